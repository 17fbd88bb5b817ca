package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileCriterionOperators(t *testing.T) {
	tests := []struct {
		name     string
		criteria any
		value    any
		want     bool
	}{
		{"greater than matches above", ">10", 11.0, true},
		{"greater than excludes equal", ">10", 10.0, false},
		{"at least includes equal", ">=10", 10.0, true},
		{"less than", "<5", 4.0, true},
		{"at most", "<=5", 5.0, true},
		{"not equal number", "<>5", 4.0, true},
		{"not equal excludes equal", "<>5", 5.0, false},
		{"not equal accepts text", "<>5", "x", true},
		{"explicit equals", "=7", 7.0, true},
		{"numeric string value", ">10", "12", true},
		{"text value fails numeric compare", ">10", "abc", false},
		{"nil never matches threshold", ">0", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := compileCriterion(tc.criteria)
			assert.Equal(t, tc.want, match(tc.value))
		})
	}
}

func TestCompileCriterionWildcards(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		value   any
		want    bool
	}{
		{"star suffix", "mac*", "machine", true},
		{"pattern covers the whole value", "mac*", "stomach", false},
		{"question mark", "?at", "cat", true},
		{"question mark is one char", "?at", "coat", false},
		{"case insensitive", "MAC*", "machine", true},
		{"star alone", "*", "anything", true},
		{"interior star", "a*e", "apple", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := compileCriterion(tc.pattern)
			assert.Equal(t, tc.want, match(tc.value))
		})
	}
}

func TestCompileCriterionEquality(t *testing.T) {
	t.Run("plain text is case insensitive", func(t *testing.T) {
		match := compileCriterion("Apple")
		assert.True(t, match("apple"))
		assert.False(t, match("apples"))
	})
	t.Run("numeric text matches numbers", func(t *testing.T) {
		match := compileCriterion("10")
		assert.True(t, match(10.0))
		assert.True(t, match("10"))
		assert.False(t, match(11.0))
	})
	t.Run("number matches numeric text", func(t *testing.T) {
		match := compileCriterion(10.0)
		assert.True(t, match("10"))
	})
	t.Run("boolean criteria", func(t *testing.T) {
		match := compileCriterion(true)
		assert.True(t, match(true))
		assert.False(t, match(false))
		assert.False(t, match(1.0))
	})
}

func TestCompileCriterionBlankHandling(t *testing.T) {
	t.Run("bare not-equal means not blank", func(t *testing.T) {
		match := compileCriterion("<>")
		assert.True(t, match("x"))
		assert.True(t, match(0.0))
		assert.False(t, match(nil))
		assert.False(t, match(""))
	})
	t.Run("bare equals means blank", func(t *testing.T) {
		match := compileCriterion("=")
		assert.True(t, match(nil))
		assert.True(t, match(""))
		assert.False(t, match("x"))
	})
}
