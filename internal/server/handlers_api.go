package server

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"bayes-court/internal/bayes"
	"bayes-court/internal/casefile"
	"bayes-court/internal/game"
)

type createGameRequest struct {
	CaseFile   string `json:"case_file"`
	MaxPlayers int    `json:"max_players"`
}

type joinRequest struct {
	Name           string `json:"name"`
	Tolerance      int    `json:"tolerance"`
	UseRatingScale bool   `json:"use_rating_scale"`
}

type leaveRequest struct {
	PlayerID string `json:"player_id"`
}

type responseRequest struct {
	PlayerID       string   `json:"player_id"`
	ProbGuilty     *float64 `json:"prob_guilty"`
	ProbInnocent   *float64 `json:"prob_innocent"`
	GuiltyRating   *int     `json:"guilty_rating"`
	InnocentRating *int     `json:"innocent_rating"`
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	names, err := casefile.List(s.cfg.CaseDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list case files")
		return
	}
	cases := make([]map[string]any, 0, len(names))
	for _, name := range names {
		entry := map[string]any{
			"file": name,
		}
		c, loadErr := casefile.Load(filepath.Join(s.cfg.CaseDir, name))
		if loadErr != nil {
			entry["valid"] = false
			entry["error"] = loadErr.Error()
			cases = append(cases, entry)
			continue
		}
		entry["valid"] = true
		entry["name"] = c.Info.Name
		entry["description"] = c.Info.Description
		entry["evidence_count"] = c.EvidenceCount()
		entry["prior_db"] = c.Prior.DB
		cases = append(cases, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.ListSummaries()
	games := make([]map[string]any, 0, len(summaries))
	for _, summary := range summaries {
		games = append(games, map[string]any{
			"game_id":     summary.ID,
			"case_name":   summary.CaseName,
			"phase":       string(summary.Phase),
			"players":     summary.Players,
			"max_players": summary.MaxPlayers,
			"created_at":  summary.CreatedAt,
			"can_join":    summary.CanJoin,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := readJSON(r.Body, &req); err != nil || req.CaseFile == "" {
		writeError(w, http.StatusBadRequest, "case_file is required")
		return
	}
	if filepath.Base(req.CaseFile) != req.CaseFile {
		writeError(w, http.StatusBadRequest, "invalid case file name")
		return
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = s.cfg.MaxPlayers
	}
	c, err := casefile.Load(filepath.Join(s.cfg.CaseDir, req.CaseFile))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session := s.store.CreateSession(c, maxPlayers)
	if err := s.persistGame(session); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create game")
		return
	}
	log.Printf("game created game_id=%s case=%s max_players=%d", session.ID, c.Info.Name, maxPlayers)
	writeJSON(w, http.StatusCreated, map[string]any{
		"game_id":   session.ID,
		"case_name": c.Info.Name,
		"phase":     string(session.Phase),
	})
}

func (s *Server) handleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if gameID, playerID, ok := parsePlayerStatePath(r.URL.Path); ok {
			s.handlePlayerState(w, r, gameID, playerID)
			return
		}
	}

	gameID, action, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetGame(w, r, gameID)
		case "results":
			s.handleResults(w, r, gameID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinGame(w, r, gameID)
		case "leave":
			s.handleLeaveGame(w, r, gameID)
		case "start":
			s.handleStartGame(w, r, gameID)
		case "evidence":
			s.handleBeginEvidence(w, r, gameID)
		case "responses":
			s.handleResponses(w, r, gameID)
		case "complete":
			s.handleCompleteGame(w, r, gameID)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminSubroutes(w http.ResponseWriter, r *http.Request) {
	gameID, action, ok := parseAdminGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch {
	case r.Method == http.MethodDelete && action == "":
		s.handleAdminDelete(w, r, gameID)
	case r.Method == http.MethodPost && action == "force-advance":
		s.handleAdminForceAdvance(w, r, gameID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, gameID string) {
	session, ok := s.store.Get(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snapshot(session))
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request, gameID, playerID string) {
	session, ok := s.store.Get(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	state, ok := playerState(session, playerID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleJoinGame(w http.ResponseWriter, r *http.Request, gameID string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name and tolerance are required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateTolerance(req.Tolerance); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	playerID := newPlayerID()
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		if session.Phase != game.PhaseSetup {
			return errors.New("game already started")
		}
		return session.AddPlayer(playerID, name, req.Tolerance, req.UseRatingScale)
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	player, _ := session.Player(playerID)
	if err := s.persistPlayer(session, player); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join game")
		return
	}
	log.Printf("player joined game_id=%s player_id=%s player_name=%s tolerance=%d", session.ID, playerID, name, req.Tolerance)
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":            session.ID,
		"player_id":          playerID,
		"player":             name,
		"guilt_threshold_db": player.ThresholdDB,
	})
	s.broadcastGameUpdate(session)
}

func (s *Server) handleLeaveGame(w http.ResponseWriter, r *http.Request, gameID string) {
	var req leaveRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		return session.RemovePlayer(req.PlayerID)
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) || errors.Is(err, game.ErrUnknownPlayer) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	log.Printf("player left game_id=%s player_id=%s", session.ID, req.PlayerID)
	writeJSON(w, http.StatusOK, snapshot(session))
	s.broadcastGameUpdate(session)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request, gameID string) {
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		return session.Start()
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.persistPhase(session, "game_started", EventPayload{Phase: string(session.Phase)}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start game")
		return
	}
	log.Printf("game started game_id=%s phase=%s players=%d", session.ID, session.Phase, session.PlayerCount())
	writeJSON(w, http.StatusOK, snapshot(session))
	s.broadcastGameUpdate(session)
}

func (s *Server) handleBeginEvidence(w http.ResponseWriter, r *http.Request, gameID string) {
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		return session.AdvanceToEvidenceReview()
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.persistPhase(session, "evidence_review_started", EventPayload{Phase: string(session.Phase)}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to advance game")
		return
	}
	log.Printf("evidence review started game_id=%s items=%d", session.ID, session.Case.EvidenceCount())
	writeJSON(w, http.StatusOK, snapshot(session))
	s.broadcastGameUpdate(session)
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request, gameID string) {
	var req responseRequest
	if err := readJSON(r.Body, &req); err != nil || req.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}

	var (
		probGuilty   float64
		probInnocent float64
		ratings      *game.Ratings
	)
	if req.GuiltyRating != nil && req.InnocentRating != nil {
		if err := validateRating("guilty_rating", *req.GuiltyRating); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateRating("innocent_rating", *req.InnocentRating); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		probGuilty, _ = bayes.RatingProbability(*req.GuiltyRating)
		probInnocent, _ = bayes.RatingProbability(*req.InnocentRating)
		ratings = &game.Ratings{Guilty: *req.GuiltyRating, Innocent: *req.InnocentRating}
	} else {
		if req.ProbGuilty == nil || req.ProbInnocent == nil {
			writeError(w, http.StatusBadRequest, "prob_guilty and prob_innocent are required")
			return
		}
		if err := validateProbability("prob_guilty", *req.ProbGuilty); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validateProbability("prob_innocent", *req.ProbInnocent); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		probGuilty = *req.ProbGuilty
		probInnocent = *req.ProbInnocent
	}

	var (
		advanced      bool
		moreEvidence  bool
		evidenceIndex int
	)
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		evidenceIndex = session.EvidenceIndex
		if err := session.SubmitResponse(req.PlayerID, probGuilty, probInnocent, ratings); err != nil {
			return err
		}
		if session.AllResponded() {
			more, err := session.AdvanceEvidence()
			if err != nil {
				return err
			}
			advanced = true
			moreEvidence = more
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		if errors.Is(err, game.ErrUnknownPlayer) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	log.Printf("response submitted game_id=%s player_id=%s evidence_index=%d", session.ID, req.PlayerID, evidenceIndex)
	if advanced {
		if err := s.persistResponses(session, evidenceIndex); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save responses")
			return
		}
		eventType := "evidence_advanced"
		if !moreEvidence {
			eventType = "verdict_reached"
		}
		if err := s.persistPhase(session, eventType, EventPayload{
			Phase:         string(session.Phase),
			EvidenceIndex: session.EvidenceIndex,
		}); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to advance game")
			return
		}
		log.Printf("evidence committed game_id=%s evidence_index=%d phase=%s", session.ID, evidenceIndex, session.Phase)
	}
	writeJSON(w, http.StatusOK, snapshot(session))
	s.broadcastGameUpdate(session)
}

func (s *Server) handleCompleteGame(w http.ResponseWriter, r *http.Request, gameID string) {
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		return session.Complete()
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	report := session.Report(time.Now().UTC())
	if err := s.persistVerdict(session, report); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save verdict")
		return
	}
	log.Printf("game completed game_id=%s verdict=%s", session.ID, report.Verdict)
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id": session.ID,
		"phase":   string(session.Phase),
		"report":  report,
	})
	s.broadcastGameUpdate(session)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request, gameID string) {
	session, ok := s.store.Get(gameID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if session.Phase != game.PhaseVerdict && session.Phase != game.PhaseCompleted {
		writeError(w, http.StatusConflict, "verdict not reached")
		return
	}
	result := session.Verdict()
	players := make(map[string]any, session.PlayerCount())
	for _, player := range session.Players() {
		players[player.ID] = map[string]any{
			"name":                      player.Name,
			"final_evidence_db":         player.CurrentDB,
			"guilt_threshold_db":        player.ThresholdDB,
			"current_guilt_probability": player.GuiltProbability(),
			"would_convict":             player.WouldConvict(),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":    session.ID,
		"phase":      string(session.Phase),
		"case_name":  session.Case.Info.Name,
		"statistics": result,
		"players":    players,
	})
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request, gameID string) {
	if !s.store.Delete(gameID) {
		http.NotFound(w, r)
		return
	}
	log.Printf("game deleted game_id=%s", gameID)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleAdminForceAdvance(w http.ResponseWriter, r *http.Request, gameID string) {
	var (
		moreEvidence  bool
		evidenceIndex int
	)
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		evidenceIndex = session.EvidenceIndex
		more, err := session.AdvanceEvidence()
		if err != nil {
			return err
		}
		moreEvidence = more
		return nil
	})
	if err != nil {
		if errors.Is(err, errGameNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.persistResponses(session, evidenceIndex); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save responses")
		return
	}
	eventType := "evidence_advanced"
	if !moreEvidence {
		eventType = "verdict_reached"
	}
	if err := s.persistPhase(session, eventType, EventPayload{
		Phase:         string(session.Phase),
		EvidenceIndex: session.EvidenceIndex,
		Reason:        "admin_force_advance",
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to advance game")
		return
	}
	log.Printf("evidence force advanced game_id=%s evidence_index=%d phase=%s", session.ID, evidenceIndex, session.Phase)
	writeJSON(w, http.StatusOK, snapshot(session))
	s.broadcastGameUpdate(session)
}
