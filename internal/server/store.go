package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"bayes-court/internal/casefile"
	"bayes-court/internal/game"
)

var errGameNotFound = errors.New("game not found")

type SessionSummary struct {
	ID         string
	CaseName   string
	Phase      game.Phase
	Players    int
	MaxPlayers int
	CreatedAt  time.Time
	CanJoin    bool
}

// Store is the explicitly owned registry of live sessions. Each session
// is a single mutable resource; Update serializes every mutation under
// the store lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*game.Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*game.Session),
	}
}

func (s *Store) CreateSession(c *casefile.Case, maxPlayers int) *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := game.NewSession(newGameID(), c, maxPlayers, func() time.Time {
		return time.Now().UTC()
	})
	s.sessions[session.ID] = session
	return session
}

func (s *Store) Get(id string) (*game.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	return session, ok
}

// Update applies a mutation to one session under the store lock. The
// closure either fully applies or the session is left untouched.
func (s *Store) Update(id string, update func(session *game.Session) error) (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errGameNotFound
	}
	if err := update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

func (s *Store) ListSummaries() []SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]SessionSummary, 0, len(s.sessions))
	for _, session := range s.sessions {
		list = append(list, SessionSummary{
			ID:         session.ID,
			CaseName:   session.Case.Info.Name,
			Phase:      session.Phase,
			Players:    session.PlayerCount(),
			MaxPlayers: session.MaxPlayers,
			CreatedAt:  session.CreatedAt,
			CanJoin:    session.Phase == game.PhaseSetup && session.PlayerCount() < session.MaxPlayers,
		})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
