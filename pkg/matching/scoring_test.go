package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceRatio(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical", "john smith", "john smith", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "john", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"one edit", "smith", "smyth", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, scorer.SequenceRatio(tt.a, tt.b), 0.0001)
		})
	}
}

func TestSequenceRatio_Bounds(t *testing.T) {
	scorer := NewScorer()
	pairs := [][2]string{
		{"john a smith", "john smith"},
		{"a", "abcdefgh"},
		{"maria garcia", "mario garza"},
	}
	for _, p := range pairs {
		r := scorer.SequenceRatio(p[0], p[1])
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		a        string
		b        string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, scorer.LevenshteinDistance(tt.a, tt.b))
	}
}

func TestTokenOverlap(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        []string
		b        []string
		expected float64
	}{
		{"identical sets", []string{"john", "smith"}, []string{"smith", "john"}, 1.0},
		{"both empty", nil, nil, 1.0},
		{"one empty", []string{"john"}, nil, 0.0},
		{"half overlap", []string{"john", "smith"}, []string{"john", "doe"}, 1.0 / 3.0},
		{"duplicate tokens counted once", []string{"john", "john"}, []string{"john"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, scorer.TokenOverlap(tt.a, tt.b), 0.0001)
		})
	}
}

func TestExactMatch(t *testing.T) {
	scorer := NewScorer()
	assert.Equal(t, 1.0, scorer.ExactMatch("ABC", "abc", false))
	assert.Equal(t, 0.0, scorer.ExactMatch("ABC", "abc", true))
	assert.Equal(t, 1.0, scorer.ExactMatch("", "", true))
}
