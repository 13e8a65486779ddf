// Package bayes holds the evidence arithmetic for the courtroom game:
// conversions between probability and log-odds ("decibels of evidence"),
// the per-evidence update rule, and the conviction threshold derivation.
package bayes

import "math"

// LogOddsToProbability converts a decibel evidence level back to a
// probability. Inverse of ProbabilityToLogOdds up to floating point.
func LogOddsToProbability(db float64) float64 {
	if db > 0 {
		return 1 - math.Pow(10, -db/10)
	}
	return math.Pow(10, -math.Abs(db)/10)
}

// ProbabilityToLogOdds converts a probability in (0,1) to decibels.
// The result is unbounded as p approaches 0 or 1; callers keep exact
// 0 and 1 out.
func ProbabilityToLogOdds(p float64) float64 {
	if p >= 0.5 {
		return 10 * math.Log10(p/(1-p))
	}
	return -10 * math.Log10((1-p)/p)
}

// Update is the log-likelihood-ratio of one evidence item in decibels.
// Both inputs must be in (0,1]; a zero probInnocent produces +Inf, so
// input validation rejects zeros before this point.
func Update(probGuilty, probInnocent float64) float64 {
	return 10 * math.Log10(probGuilty/probInnocent)
}

// Threshold derives the conviction threshold in decibels from a stated
// tolerance of one false conviction per tolerance convictions.
func Threshold(tolerance int) float64 {
	return 10 * math.Log10(float64(tolerance))
}

// ratingProbabilities maps the coarse 0-10 rating scale to canonical
// probabilities. The endpoints stay off exact 0 and 1 so updates remain
// finite.
var ratingProbabilities = map[int]float64{
	0:  0.001,
	1:  0.02,
	2:  0.1,
	3:  0.2,
	4:  0.35,
	5:  0.5,
	6:  0.65,
	7:  0.8,
	8:  0.9,
	9:  0.98,
	10: 0.999,
}

// RatingProbability looks up the canonical probability for an integer
// rating. The second return is false outside 0-10; passing an
// out-of-range rating is a caller bug, not a runtime condition.
func RatingProbability(rating int) (float64, bool) {
	p, ok := ratingProbabilities[rating]
	return p, ok
}
