package rating

import "math"

// KFactor is the fixed Elo K used for every ranked duel.
const KFactor = 32

// Expected returns the expected score of a player rated `rating` against an
// opponent rated `opponent`, per the standard logistic Elo curve.
func Expected(rating, opponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponent-rating)/400.0))
}

// Elo computes a player's new rating from a single result. score is 1 for a
// win and 0 for a loss. The result is rounded to the nearest integer.
func Elo(rating, opponent, score int) int {
	newRating := float64(rating) + KFactor*(float64(score)-Expected(rating, opponent))
	return int(math.Round(newRating))
}

// Duel computes both sides' new ratings from the pre-match values. Both
// updates must use the original ratings, never a partially-updated one, so
// the winner's and loser's Elo calls share the same inputs.
func Duel(winnerRating, loserRating int) (newWinner, newLoser int) {
	newWinner = Elo(winnerRating, loserRating, 1)
	newLoser = Elo(loserRating, winnerRating, 0)
	return newWinner, newLoser
}
