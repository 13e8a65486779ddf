package game

import (
	"github.com/montanaflynn/stats"

	"bayes-court/internal/bayes"
)

const (
	VerdictGuilty    = "GUILTY"
	VerdictNotGuilty = "NOT GUILTY"
)

// GroupResult is a statistical summary of independent individual
// verdicts. It is a majority vote, not a Bayesian combination: each
// player's trajectory stays their own.
type GroupResult struct {
	Verdict                 string  `json:"group_verdict"`
	AverageDB               float64 `json:"average_evidence_db"`
	AverageGuiltProbability float64 `json:"average_guilt_probability"`
	GuiltyVotes             int     `json:"guilty_votes"`
	NotGuiltyVotes          int     `json:"not_guilty_votes"`
	TotalPlayers            int     `json:"total_players"`
	Unanimous               bool    `json:"unanimous"`
}

// AverageDB is the arithmetic mean of all current evidence levels,
// 0.0 with no players.
func AverageDB(players []*Player) float64 {
	if len(players) == 0 {
		return 0.0
	}
	levels := make([]float64, 0, len(players))
	for _, player := range players {
		levels = append(levels, player.CurrentDB)
	}
	mean, err := stats.Mean(levels)
	if err != nil {
		return 0.0
	}
	return mean
}

// Aggregate computes the group verdict from each player's individual
// threshold crossing. A tie, including the empty group, resolves to
// NOT GUILTY.
func Aggregate(players []*Player) GroupResult {
	avg := AverageDB(players)
	guilty := 0
	for _, player := range players {
		if player.WouldConvict() {
			guilty++
		}
	}
	notGuilty := len(players) - guilty

	verdict := VerdictNotGuilty
	if guilty > notGuilty {
		verdict = VerdictGuilty
	}
	return GroupResult{
		Verdict:                 verdict,
		AverageDB:               avg,
		AverageGuiltProbability: bayes.LogOddsToProbability(avg) * 100,
		GuiltyVotes:             guilty,
		NotGuiltyVotes:          notGuilty,
		TotalPlayers:            len(players),
		Unanimous:               guilty == 0 || notGuilty == 0,
	}
}
