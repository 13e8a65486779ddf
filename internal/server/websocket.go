package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"bayes-court/internal/game"

	"github.com/gorilla/websocket"
)

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[gameID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(gameID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, gameID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(gameID string, payload any) {
	h.mu.Lock()
	group := h.groups[gameID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(gameID, conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, exists := s.store.Get(gameID); !exists {
		http.NotFound(w, r)
		return
	}
	playerID := r.URL.Query().Get("player_id")
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected game_id=%s player_id=%s remote=%s", gameID, playerID, r.RemoteAddr)
	s.ws.Add(gameID, conn)
	if playerID != "" {
		if session, err := s.store.Update(gameID, func(session *game.Session) error {
			return session.SetConnected(playerID, true)
		}); err == nil {
			s.broadcastGameUpdate(session)
		}
	}
	if session, ok := s.store.Get(gameID); ok {
		s.ws.Send(conn, snapshot(session))
	}
	go s.readWS(gameID, playerID, conn)
}

func (s *Server) readWS(gameID, playerID string, conn *websocket.Conn) {
	defer s.ws.Remove(gameID, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected game_id=%s player_id=%s error=%v", gameID, playerID, err)
			s.markDisconnected(gameID, playerID)
			return
		}
	}
}

// markDisconnected drops the player out of the response quorum. The
// trajectory survives so a reconnect resumes where it left off.
func (s *Server) markDisconnected(gameID, playerID string) {
	if playerID == "" {
		return
	}
	session, err := s.store.Update(gameID, func(session *game.Session) error {
		return session.SetConnected(playerID, false)
	})
	if err != nil {
		return
	}
	s.broadcastGameUpdate(session)
}

func (s *Server) broadcastGameUpdate(session *game.Session) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(session.ID, snapshot(session))
}
