// internal/duel/round.go
package duel

import (
	"fmt"
	"math/rand"
)

// RoundParams carries everything a client needs to play one round.
type RoundParams struct {
	TargetColor string `json:"targetColor"`
	StartColor  string `json:"startColor"`
	Duration    int    `json:"duration"`
}

// RoundDuration selects the round length in seconds from the higher of the
// two ratings. More skilled pairs get shorter rounds.
func RoundDuration(rating1, rating2 int) int {
	highest := rating1
	if rating2 > highest {
		highest = rating2
	}
	switch {
	case highest >= 1500:
		return 10
	case highest >= 1100:
		return 15
	default:
		return 20
	}
}

// randomColor draws a uniform 24-bit color as "#rrggbb". This is cosmetic
// randomness, math/rand is fine.
func randomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(1<<24))
}

// GenerateRound produces the parameters for one round. Both players start
// from the same random color so neither has a head start; the target is
// drawn independently.
func GenerateRound(rating1, rating2 int) RoundParams {
	return RoundParams{
		TargetColor: randomColor(),
		StartColor:  randomColor(),
		Duration:    RoundDuration(rating1, rating2),
	}
}
