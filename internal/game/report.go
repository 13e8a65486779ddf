package game

import (
	"encoding/json"
	"time"
)

// PlayerReport is one trajectory's slice of the final export.
type PlayerReport struct {
	PlayerID    string     `json:"player_id"`
	Name        string     `json:"name"`
	ThresholdDB float64    `json:"guilt_threshold_db"`
	Tolerance   int        `json:"prior_guilt_tolerance"`
	FinalDB     float64    `json:"final_evidence_db"`
	Responses   []Response `json:"responses"`
}

// FinalReport is the append-only snapshot produced when a session is
// finalized: the verdict, group statistics, and every player's full
// response history alongside the original case payload.
type FinalReport struct {
	GameID      string                  `json:"game_id"`
	CaseFile    string                  `json:"case_file"`
	CreatedAt   time.Time               `json:"created_at"`
	CompletedAt time.Time               `json:"completed_at"`
	CaseData    json.RawMessage         `json:"case_data"`
	Verdict     string                  `json:"final_verdict"`
	Statistics  GroupResult             `json:"final_statistics"`
	Players     map[string]PlayerReport `json:"players"`
}

// Report packages the session's final state. It does not mutate the
// session; finalization (Complete) is a separate explicit step.
func (s *Session) Report(completedAt time.Time) FinalReport {
	result := s.Verdict()
	players := make(map[string]PlayerReport, len(s.players))
	for id, player := range s.players {
		responses := player.Responses
		if responses == nil {
			responses = []Response{}
		}
		players[id] = PlayerReport{
			PlayerID:    id,
			Name:        player.Name,
			ThresholdDB: player.ThresholdDB,
			Tolerance:   player.Tolerance,
			FinalDB:     player.CurrentDB,
			Responses:   responses,
		}
	}
	return FinalReport{
		GameID:      s.ID,
		CaseFile:    s.Case.Path,
		CreatedAt:   s.CreatedAt,
		CompletedAt: completedAt,
		CaseData:    s.Case.Raw,
		Verdict:     result.Verdict,
		Statistics:  result,
		Players:     players,
	}
}
