package server

import (
	"encoding/json"

	"bayes-court/internal/game"
)

// snapshot builds the live state payload pushed to clients and returned
// by the game GET endpoint.
func snapshot(session *game.Session) map[string]any {
	players := make(map[string]any, session.PlayerCount())
	for _, player := range session.Players() {
		players[player.ID] = map[string]any{
			"name":                      player.Name,
			"is_connected":              player.Connected,
			"current_guilt_probability": player.GuiltProbability(),
			"current_evidence_db":       player.CurrentDB,
			"responses_count":           len(player.Responses),
		}
	}

	caseInfo := map[string]any{
		"name":        session.Case.Info.Name,
		"description": session.Case.Info.Description,
	}
	if session.Case.Info.Population != nil {
		caseInfo["population"] = *session.Case.Info.Population
	}
	priorInfo := map[string]any{
		"db":   session.Case.Prior.DB,
		"odds": session.Case.Prior.Odds,
	}
	if session.Case.Prior.Reasoning != "" {
		priorInfo["reasoning"] = session.Case.Prior.Reasoning
	}

	state := map[string]any{
		"game_id":                session.ID,
		"phase":                  string(session.Phase),
		"case_info":              caseInfo,
		"prior_info":             priorInfo,
		"current_evidence_index": session.EvidenceIndex,
		"total_evidence_count":   session.Case.EvidenceCount(),
		"players":                players,
		"max_players":            session.MaxPlayers,
		"responses_received":     session.PendingCount(),
		"waiting_for_responses":  !session.AllResponded(),
		"can_join":               session.Phase == game.PhaseSetup && session.PlayerCount() < session.MaxPlayers,
	}

	if evidence, ok := session.CurrentEvidence(); ok {
		current := map[string]any{
			"name":        evidence.Name,
			"description": evidence.Description,
		}
		if evidence.Explanation != "" {
			current["explanation"] = evidence.Explanation
		}
		state["current_evidence"] = current
	}

	if session.Phase == game.PhaseVerdict || session.Phase == game.PhaseCompleted {
		result := session.Verdict()
		state["verdict"] = map[string]any{
			"group_verdict":       result.Verdict,
			"average_evidence_db": result.AverageDB,
			"statistics":          result,
		}
	}
	return state
}

// playerState is the detailed per-player payload.
func playerState(session *game.Session, playerID string) (map[string]any, bool) {
	player, ok := session.Player(playerID)
	if !ok {
		return nil, false
	}
	responses := make([]json.RawMessage, 0, len(player.Responses))
	for _, response := range player.Responses {
		data, err := json.Marshal(response)
		if err != nil {
			continue
		}
		responses = append(responses, data)
	}
	return map[string]any{
		"player_id":                 player.ID,
		"name":                      player.Name,
		"guilt_threshold_db":        player.ThresholdDB,
		"prior_guilt_tolerance":     player.Tolerance,
		"current_evidence_db":       player.CurrentDB,
		"current_guilt_probability": player.GuiltProbability(),
		"would_convict":             player.WouldConvict(),
		"use_rating_scale":          player.UseRatingScale,
		"is_connected":              player.Connected,
		"responses":                 responses,
	}, true
}
