package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogOddsToProbabilityKnownValues(t *testing.T) {
	assert.InDelta(t, 0.9, LogOddsToProbability(10), 1e-4)
	assert.InDelta(t, 0.99, LogOddsToProbability(20), 1e-4)
	assert.InDelta(t, 0.1, LogOddsToProbability(-10), 1e-4)
	assert.InDelta(t, 0.5, LogOddsToProbability(0), 1e-9)
}

func TestProbabilityToLogOddsKnownValues(t *testing.T) {
	assert.InDelta(t, 9.54, ProbabilityToLogOdds(0.9), 0.01)
	assert.InDelta(t, -9.54, ProbabilityToLogOdds(0.1), 0.01)
	assert.Equal(t, 0.0, ProbabilityToLogOdds(0.5))
}

func TestRoundTrip(t *testing.T) {
	probs := []float64{0.001, 0.02, 0.1, 0.35, 0.5, 0.65, 0.9, 0.98, 0.999}
	for _, p := range probs {
		assert.InDelta(t, p, LogOddsToProbability(ProbabilityToLogOdds(p)), 1e-6,
			"round trip for p=%v", p)
	}
}

func TestUpdate(t *testing.T) {
	assert.InDelta(t, 9.54, Update(0.9, 0.1), 0.01)
	assert.InDelta(t, -9.54, Update(0.1, 0.9), 0.01)
	assert.Equal(t, 0.0, Update(0.5, 0.5))
}

func TestUpdatesAreAdditive(t *testing.T) {
	// Two independent items combine by summing their decibel updates.
	total := Update(0.8, 0.2) + Update(0.6, 0.4)
	assert.InDelta(t, 7.78, total, 0.01)
}

func TestThreshold(t *testing.T) {
	assert.InDelta(t, 20, Threshold(100), 0.01)
	assert.InDelta(t, 10, Threshold(10), 0.01)
	assert.Equal(t, 0.0, Threshold(1))
}

func TestRatingProbability(t *testing.T) {
	for rating, want := range map[int]float64{0: 0.001, 5: 0.5, 10: 0.999} {
		got, ok := RatingProbability(rating)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := RatingProbability(11)
	assert.False(t, ok)
	_, ok = RatingProbability(-1)
	assert.False(t, ok)
}
