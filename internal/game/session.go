package game

import (
	"errors"
	"time"

	"bayes-court/internal/bayes"
	"bayes-court/internal/casefile"
)

var (
	ErrSessionFull     = errors.New("session is full")
	ErrDuplicatePlayer = errors.New("player already joined")
	ErrUnknownPlayer   = errors.New("player not found")
	ErrWrongPhase      = errors.New("operation not allowed in current phase")
	ErrNotReady        = errors.New("session cannot start without players")
)

// Clock supplies timestamps so the session never reads the wall clock
// on its own.
type Clock func() time.Time

// Ratings carries the optional 0-10 scale inputs behind a response.
type Ratings struct {
	Guilty   int
	Innocent int
}

// Session owns one running game: the case under review, every player's
// trajectory, and a transient buffer of responses for the evidence item
// currently on the table. It is a single-threaded state container;
// callers serialize access.
type Session struct {
	ID            string
	Case          *casefile.Case
	Phase         Phase
	EvidenceIndex int
	MaxPlayers    int
	CreatedAt     time.Time

	now     Clock
	players map[string]*Player
	order   []string
	pending map[string]Response
}

func NewSession(id string, c *casefile.Case, maxPlayers int, now Clock) *Session {
	return &Session{
		ID:         id,
		Case:       c,
		Phase:      PhaseSetup,
		MaxPlayers: maxPlayers,
		CreatedAt:  now(),
		now:        now,
		players:    make(map[string]*Player),
		pending:    make(map[string]Response),
	}
}

// AddPlayer seeds a new trajectory with the case prior. Fails without
// mutation when the session is at capacity or the identity is taken.
func (s *Session) AddPlayer(id, name string, tolerance int, useRatingScale bool) error {
	if len(s.players) >= s.MaxPlayers {
		return ErrSessionFull
	}
	if _, exists := s.players[id]; exists {
		return ErrDuplicatePlayer
	}
	s.players[id] = NewPlayer(id, name, tolerance, s.Case.Prior.DB, useRatingScale)
	s.order = append(s.order, id)
	return nil
}

// RemovePlayer drops the trajectory and any buffered response.
func (s *Session) RemovePlayer(id string) error {
	if _, exists := s.players[id]; !exists {
		return ErrUnknownPlayer
	}
	delete(s.players, id)
	delete(s.pending, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// SetConnected flips a player's connectivity flag. Disconnected players
// drop out of the response quorum but keep their trajectory.
func (s *Session) SetConnected(id string, connected bool) error {
	player, exists := s.players[id]
	if !exists {
		return ErrUnknownPlayer
	}
	player.Connected = connected
	return nil
}

func (s *Session) CanStart() bool {
	return len(s.players) >= 1 && s.Phase == PhaseSetup
}

// Start moves setup into case presentation.
func (s *Session) Start() error {
	if !s.CanStart() {
		return ErrNotReady
	}
	s.Phase = PhaseCasePresentation
	return nil
}

// AdvanceToEvidenceReview begins the evidence loop at the first item.
func (s *Session) AdvanceToEvidenceReview() error {
	if !canTransition(s.Phase, PhaseEvidenceReview) {
		return ErrWrongPhase
	}
	s.Phase = PhaseEvidenceReview
	s.EvidenceIndex = 0
	return nil
}

// SubmitResponse buffers one player's assessment of the current
// evidence item. Resubmitting before the item is committed replaces the
// earlier response. Callers validate that both probabilities are in
// (0,1] before this point.
func (s *Session) SubmitResponse(playerID string, probGuilty, probInnocent float64, ratings *Ratings) error {
	if s.Phase != PhaseEvidenceReview {
		return ErrWrongPhase
	}
	player, exists := s.players[playerID]
	if !exists {
		return ErrUnknownPlayer
	}
	evidence, _ := s.Case.EvidenceAt(s.EvidenceIndex)
	response := Response{
		PlayerID:        playerID,
		EvidenceIndex:   s.EvidenceIndex,
		EvidenceName:    evidence.Name,
		ProbGuilty:      probGuilty,
		ProbInnocent:    probInnocent,
		UsedRatingScale: player.UseRatingScale,
		Delta:           bayes.Update(probGuilty, probInnocent),
		SubmittedAt:     s.now(),
	}
	if ratings != nil {
		guilty, innocent := ratings.Guilty, ratings.Innocent
		response.GuiltyRating = &guilty
		response.InnocentRating = &innocent
	}
	s.pending[playerID] = response
	return nil
}

// AllResponded reports whether every connected player has a buffered
// response for the current item.
func (s *Session) AllResponded() bool {
	connected := 0
	for _, player := range s.players {
		if player.Connected {
			connected++
		}
	}
	return len(s.pending) == connected
}

// PendingCount is the number of buffered responses for the current item.
func (s *Session) PendingCount() int {
	return len(s.pending)
}

// AdvanceEvidence commits every buffered response into its trajectory,
// clears the buffer, and moves to the next item. The return reports
// whether more evidence remains; false means the session entered the
// verdict phase. Quorum is the caller's decision, not checked here.
func (s *Session) AdvanceEvidence() (bool, error) {
	if s.Phase != PhaseEvidenceReview {
		return false, ErrWrongPhase
	}
	for _, id := range s.order {
		if response, ok := s.pending[id]; ok {
			s.players[id].Record(response)
		}
	}
	s.pending = make(map[string]Response)

	if s.EvidenceIndex < s.Case.EvidenceCount()-1 {
		s.EvidenceIndex++
		return true, nil
	}
	s.Phase = PhaseVerdict
	return false, nil
}

// Complete marks the session finalized. Reached only through an
// explicit external save/finalize action.
func (s *Session) Complete() error {
	if !canTransition(s.Phase, PhaseCompleted) {
		return ErrWrongPhase
	}
	s.Phase = PhaseCompleted
	return nil
}

// Players returns trajectories in join order.
func (s *Session) Players() []*Player {
	list := make([]*Player, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.players[id])
	}
	return list
}

func (s *Session) Player(id string) (*Player, bool) {
	player, exists := s.players[id]
	return player, exists
}

func (s *Session) PlayerCount() int {
	return len(s.players)
}

// CurrentEvidence returns the item under review while in the evidence
// phase.
func (s *Session) CurrentEvidence() (casefile.Evidence, bool) {
	if s.Phase != PhaseEvidenceReview {
		return casefile.Evidence{}, false
	}
	return s.Case.EvidenceAt(s.EvidenceIndex)
}

// Verdict aggregates the group result over all current trajectories.
func (s *Session) Verdict() GroupResult {
	return Aggregate(s.Players())
}
