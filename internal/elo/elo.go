package elo

import "math"

const (
	// KFactor controls how far a single result can move a rating.
	KFactor = 32
	// MinRating is the hard floor applied after every update.
	MinRating = 100
	// MaxRating is the hard ceiling applied after every update.
	MaxRating = 3000
)

// ExpectedScore returns the probability in (0,1) that a player rated a
// beats a player rated b. ExpectedScore(a,b) + ExpectedScore(b,a) == 1.
func ExpectedScore(a, b int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0))
}

// NewRating computes the updated rating for current against opponent given
// the result. The result is rounded to an integer and clamped to
// [MinRating, MaxRating]; clamping silently caps the delta, it is not an
// error.
func NewRating(current, opponent int, won bool) int {
	score := 0.0
	if won {
		score = 1.0
	}
	updated := float64(current) + KFactor*(score-ExpectedScore(current, opponent))
	return Clamp(int(math.Round(updated)))
}

// Delta returns the signed rating change for current against opponent.
func Delta(current, opponent int, won bool) int {
	return NewRating(current, opponent, won) - current
}

// TeamRating is the arithmetic mean of all member ratings rounded to an
// integer. AI teammates count the same as humans.
func TeamRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return int(math.Round(float64(sum) / float64(len(ratings))))
}

// Clamp bounds a rating to [MinRating, MaxRating].
func Clamp(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
