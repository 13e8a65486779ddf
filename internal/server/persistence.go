package server

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"time"

	"bayes-court/internal/db"
	"bayes-court/internal/game"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

func (s *Server) persistGame(session *game.Session) error {
	if s.db == nil {
		return nil
	}
	record := db.Game{
		GameID:     session.ID,
		CaseName:   session.Case.Info.Name,
		CaseFile:   filepath.Base(session.Case.Path),
		Phase:      string(session.Phase),
		MaxPlayers: session.MaxPlayers,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistEvent(session, "game_created", EventPayload{
		GameID: session.ID,
	})
}

func (s *Server) persistPlayer(session *game.Session, player *game.Player) error {
	if s.db == nil {
		return nil
	}
	gameDBID, err := s.gameDBID(session.ID)
	if err != nil {
		return err
	}
	record := db.Player{
		GameID:      gameDBID,
		PlayerID:    player.ID,
		Name:        player.Name,
		Tolerance:   player.Tolerance,
		ThresholdDB: player.ThresholdDB,
		FinalDB:     player.CurrentDB,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if !isUniqueViolation(err) {
			return err
		}
	}
	return s.persistEvent(session, "player_joined", EventPayload{
		PlayerID:   player.ID,
		PlayerName: player.Name,
	})
}

// persistResponses writes the responses committed for one evidence item
// and refreshes every player's running total.
func (s *Server) persistResponses(session *game.Session, evidenceIndex int) error {
	if s.db == nil {
		return nil
	}
	gameDBID, err := s.gameDBID(session.ID)
	if err != nil {
		return err
	}
	for _, player := range session.Players() {
		playerDBID, err := s.playerDBID(gameDBID, player.ID)
		if err != nil {
			continue
		}
		for _, response := range player.Responses {
			if response.EvidenceIndex != evidenceIndex {
				continue
			}
			record := db.Response{
				GameID:        gameDBID,
				PlayerID:      playerDBID,
				EvidenceIndex: response.EvidenceIndex,
				EvidenceName:  response.EvidenceName,
				ProbGuilty:    response.ProbGuilty,
				ProbInnocent:  response.ProbInnocent,
				DeltaDB:       response.Delta,
				UsedRating:    response.UsedRatingScale,
			}
			if err := s.db.Create(&record).Error; err != nil && !isUniqueViolation(err) {
				return err
			}
		}
		if err := s.db.Model(&db.Player{}).
			Where("id = ?", playerDBID).
			Update("final_db", player.CurrentDB).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) persistPhase(session *game.Session, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	gameDBID, err := s.gameDBID(session.ID)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"phase": string(session.Phase),
	}
	if session.Phase == game.PhaseCompleted {
		updates["completed_at"] = time.Now().UTC()
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", gameDBID).Updates(updates).Error; err != nil {
		return err
	}
	return s.persistEvent(session, eventType, payload)
}

func (s *Server) persistVerdict(session *game.Session, report game.FinalReport) error {
	if s.db == nil {
		return nil
	}
	gameDBID, err := s.gameDBID(session.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	record := db.Verdict{
		GameID:  gameDBID,
		Verdict: report.Verdict,
		Report:  datatypes.JSON(data),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	return s.persistPhase(session, "game_completed", EventPayload{
		Phase:   string(session.Phase),
		Verdict: report.Verdict,
	})
}

func (s *Server) persistEvent(session *game.Session, eventType string, payload EventPayload) error {
	if s.db == nil {
		return nil
	}
	gameDBID, err := s.gameDBID(session.ID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	event := db.Event{
		GameID:   gameDBID,
		PlayerID: s.resolveEventPlayerID(gameDBID, payload),
		Type:     eventType,
		Payload:  datatypes.JSON(data),
	}
	return s.db.Create(&event).Error
}

func (s *Server) resolveEventPlayerID(gameDBID uint, payload EventPayload) *uint {
	if payload.PlayerID == "" {
		return nil
	}
	id, err := s.playerDBID(gameDBID, payload.PlayerID)
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func (s *Server) gameDBID(gameID string) (uint, error) {
	var record db.Game
	if err := s.db.Where("game_id = ?", gameID).First(&record).Error; err != nil {
		return 0, errors.New("game not persisted")
	}
	return record.ID, nil
}

func (s *Server) playerDBID(gameDBID uint, playerID string) (uint, error) {
	var record db.Player
	if err := s.db.Where("game_id = ? AND player_id = ?", gameDBID, playerID).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
