package numfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		code  string
		want  string
	}{
		{"usd with thousands", 1234.56, "USD", "$1,234.56"},
		{"usd rounds half up", 0.005, "USD", "$0.01"},
		{"eur", 99.9, "EUR", "€99.90"},
		{"jpy has no fraction digits", 1234.0, "JPY", "¥1,234"},
		{"negative", -42.5, "USD", "-$42.50"},
		{"unknown code falls back to usd", 10.0, "XXX?", "$10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Currency(tt.value, tt.code))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "12.50%", Percent(0.125, 2))
	assert.Equal(t, "100%", Percent(1, 0))
	assert.Equal(t, "-5.0%", Percent(-0.05, 1))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "1234.57", Fixed(1234.567, 2))
	assert.Equal(t, "3.0", Fixed(3, 1))
	assert.Equal(t, "0.00", Fixed(0.0001, 2))
}
