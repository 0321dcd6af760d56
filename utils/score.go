package utils

import (
	"math"
)

// CalculateScore maps a team's elapsed round time and hint usage to its
// leaderboard score. Faster is strictly better; hints only ever drag the
// multiplier down. Returns 0 for the did-not-finish sentinel (or any
// non-positive time).
//
//	0 hints   ×1.5
//	1-2 hints ×1.2
//	3-4 hints ×1.0
//	5+ hints  ×0.8
func CalculateScore(elapsedSeconds int, hintsUsed int) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}

	multiplier := 1.0
	switch {
	case hintsUsed == 0:
		multiplier = 1.5
	case hintsUsed <= 2:
		multiplier = 1.2
	case hintsUsed <= 4:
		multiplier = 1.0
	default:
		multiplier = 0.8
	}

	score := (1.0 / float64(elapsedSeconds)) * 10000 * multiplier
	return math.Round(score*100) / 100
}
