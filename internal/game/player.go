package game

import (
	"time"

	"bayes-court/internal/bayes"
)

// Response records one player's assessment of one evidence item. It is
// immutable once created.
type Response struct {
	PlayerID        string    `json:"player_id"`
	EvidenceIndex   int       `json:"evidence_index"`
	EvidenceName    string    `json:"evidence_name"`
	ProbGuilty      float64   `json:"prob_guilty"`
	ProbInnocent    float64   `json:"prob_innocent"`
	UsedRatingScale bool      `json:"used_rating_scale"`
	GuiltyRating    *int      `json:"guilty_rating,omitempty"`
	InnocentRating  *int      `json:"innocent_rating,omitempty"`
	Delta           float64   `json:"db_update"`
	SubmittedAt     time.Time `json:"timestamp"`
}

// Player is one participant's evidence trajectory: a running decibel
// total seeded with the case prior, the responses that produced it, and
// the personal conviction threshold.
type Player struct {
	ID             string
	Name           string
	Tolerance      int
	ThresholdDB    float64
	CurrentDB      float64
	Responses      []Response
	Connected      bool
	UseRatingScale bool
}

// NewPlayer derives the conviction threshold from the stated tolerance
// and seeds the trajectory with the case's prior log-odds.
func NewPlayer(id, name string, tolerance int, priorDB float64, useRatingScale bool) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Tolerance:      tolerance,
		ThresholdDB:    bayes.Threshold(tolerance),
		CurrentDB:      priorDB,
		Connected:      true,
		UseRatingScale: useRatingScale,
	}
}

// Record appends a committed response and applies its decibel delta.
func (p *Player) Record(r Response) {
	p.Responses = append(p.Responses, r)
	p.CurrentDB += r.Delta
}

// GuiltProbability is the current belief as a percentage.
func (p *Player) GuiltProbability() float64 {
	return bayes.LogOddsToProbability(p.CurrentDB) * 100
}

// WouldConvict reports whether the evidence level has reached the
// player's threshold. Equality convicts.
func (p *Player) WouldConvict() bool {
	return p.CurrentDB >= p.ThresholdDB
}
