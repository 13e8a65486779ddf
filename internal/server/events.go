package server

// EventPayload is the JSON body recorded with persisted game events.
type EventPayload struct {
	GameID        string `json:"game_id,omitempty"`
	PlayerID      string `json:"player_id,omitempty"`
	PlayerName    string `json:"player,omitempty"`
	Phase         string `json:"phase,omitempty"`
	EvidenceIndex int    `json:"evidence_index,omitempty"`
	Verdict       string `json:"verdict,omitempty"`
	Reason        string `json:"reason,omitempty"`
}
