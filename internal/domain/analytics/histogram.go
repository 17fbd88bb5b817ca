package analytics

// Histogram buckets a numeric column across [min, max].
type Histogram struct {
	Column  string   `json:"column"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Buckets []Bucket `json:"buckets"`
}

// Bucket is one histogram bar. Low is inclusive; High is exclusive except
// for the last bucket, which also takes the maximum value.
type Bucket struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

func (e *Engine) histogram(c column) Histogram {
	nums := c.numbers()
	h := Histogram{Column: c.name}
	if len(nums) == 0 {
		return h
	}

	h.Min, h.Max = nums[0], nums[0]
	for _, n := range nums {
		if n < h.Min {
			h.Min = n
		}
		if n > h.Max {
			h.Max = n
		}
	}

	// A constant column collapses to a single bucket.
	if h.Min == h.Max {
		h.Buckets = []Bucket{{Low: h.Min, High: h.Max, Count: len(nums)}}
		return h
	}

	buckets := e.opts.HistogramBuckets
	width := (h.Max - h.Min) / float64(buckets)
	h.Buckets = make([]Bucket, buckets)
	for i := range h.Buckets {
		h.Buckets[i].Low = h.Min + float64(i)*width
		h.Buckets[i].High = h.Min + float64(i+1)*width
	}
	h.Buckets[buckets-1].High = h.Max

	for _, n := range nums {
		idx := int((n - h.Min) / width)
		if idx >= buckets {
			idx = buckets - 1
		}
		h.Buckets[idx].Count++
	}
	return h
}
