package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateScore_ZeroForNonPositiveTime(t *testing.T) {
	assert.Equal(t, 0.0, CalculateScore(0, 0))
	assert.Equal(t, 0.0, CalculateScore(-5, 0))
	assert.Equal(t, 0.0, CalculateScore(0, 3))
}

func TestCalculateScore_FasterTimeScoresHigher(t *testing.T) {
	fast := CalculateScore(60, 0)
	slow := CalculateScore(300, 0)
	assert.Greater(t, fast, slow)
}

func TestCalculateScore_HintMultipliers(t *testing.T) {
	tests := []struct {
		name      string
		hintsUsed int
		expected  float64
	}{
		{"0 hints → ×1.5", 0, 150.0},
		{"1 hint → ×1.2", 1, 120.0},
		{"2 hints → ×1.2", 2, 120.0},
		{"3 hints → ×1.0", 3, 100.0},
		{"4 hints → ×1.0", 4, 100.0},
		{"5 hints → ×0.8", 5, 80.0},
		{"8 hints → ×0.8", 8, 80.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateScore(100, tt.hintsUsed))
		})
	}
}

func TestCalculateScore_MoreHintsNeverScoreHigher(t *testing.T) {
	prev := CalculateScore(100, 0)
	for hints := 1; hints <= 10; hints++ {
		score := CalculateScore(100, hints)
		assert.LessOrEqual(t, score, prev, "hints=%d", hints)
		prev = score
	}
}
