package formula

import (
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func (e *Evaluator) registerDateTime() {
	e.register(builtin{name: "TODAY", minArgs: 0, maxArgs: 0, fn: fnToday})
	e.register(builtin{name: "NOW", minArgs: 0, maxArgs: 0, fn: fnNow})
	e.register(builtin{name: "DATE", minArgs: 3, maxArgs: 3, fn: fnDate})
	e.register(builtin{name: "YEAR", minArgs: 1, maxArgs: 1, fn: fnYear})
	e.register(builtin{name: "MONTH", minArgs: 1, maxArgs: 1, fn: fnMonth})
	e.register(builtin{name: "DAY", minArgs: 1, maxArgs: 1, fn: fnDay})
	e.register(builtin{name: "DATEDIF", minArgs: 3, maxArgs: 3, fn: fnDateDif})
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// toDate coerces a resolved value to a date. Strings try a fixed set of
// layouts; there is no locale-aware parsing.
func toDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func dateArg(e *Evaluator, cells sheet.CellCollection, arg span, what string) (time.Time, any) {
	v := e.scalar(arg, cells)
	if sheet.IsError(v) {
		return time.Time{}, v
	}
	t, ok := toDate(v)
	if !ok {
		return time.Time{}, sheet.EvalError(what + " is not a recognizable date")
	}
	return t, nil
}

func fnToday(e *Evaluator, _ sheet.CellCollection, _ []span) any {
	now := e.clock.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func fnNow(e *Evaluator, _ sheet.CellCollection, _ []span) any {
	return e.clock.Now()
}

// fnDate builds a date from numeric parts. Out-of-range parts normalize the
// way time.Date does, so month 13 rolls into the next year.
func fnDate(e *Evaluator, cells sheet.CellCollection, args []span) any {
	year, errv := strictNumber(e.scalar(args[0], cells), "year")
	if errv != nil {
		return errv
	}
	month, errv := strictNumber(e.scalar(args[1], cells), "month")
	if errv != nil {
		return errv
	}
	day, errv := strictNumber(e.scalar(args[2], cells), "day")
	if errv != nil {
		return errv
	}
	return time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
}

func fnYear(e *Evaluator, cells sheet.CellCollection, args []span) any {
	t, errv := dateArg(e, cells, args[0], "YEAR argument")
	if errv != nil {
		return errv
	}
	return float64(t.Year())
}

func fnMonth(e *Evaluator, cells sheet.CellCollection, args []span) any {
	t, errv := dateArg(e, cells, args[0], "MONTH argument")
	if errv != nil {
		return errv
	}
	return float64(t.Month())
}

func fnDay(e *Evaluator, cells sheet.CellCollection, args []span) any {
	t, errv := dateArg(e, cells, args[0], "DAY argument")
	if errv != nil {
		return errv
	}
	return float64(t.Day())
}

// fnDateDif returns the elapsed interval between two dates in whole years,
// whole months or days, selected by the unit string.
func fnDateDif(e *Evaluator, cells sheet.CellCollection, args []span) any {
	start, errv := dateArg(e, cells, args[0], "start date")
	if errv != nil {
		return errv
	}
	end, errv := dateArg(e, cells, args[1], "end date")
	if errv != nil {
		return errv
	}
	unitV := e.scalar(args[2], cells)
	if sheet.IsError(unitV) {
		return unitV
	}
	unit := strings.ToUpper(strings.TrimSpace(toString(unitV)))

	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if endDay.Before(startDay) {
		return sheet.EvalError("end date precedes start date")
	}

	switch unit {
	case "D":
		return float64(int(endDay.Sub(startDay).Hours() / 24))
	case "M":
		months := (endDay.Year()-startDay.Year())*12 + int(endDay.Month()) - int(startDay.Month())
		if endDay.Day() < startDay.Day() {
			months--
		}
		return float64(months)
	case "Y":
		years := endDay.Year() - startDay.Year()
		if endDay.Month() < startDay.Month() ||
			(endDay.Month() == startDay.Month() && endDay.Day() < startDay.Day()) {
			years--
		}
		return float64(years)
	default:
		return sheet.EvalError("unit must be Y, M or D")
	}
}
