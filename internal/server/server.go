package server

import (
	"net/http"

	"bayes-court/internal/config"

	"gorm.io/gorm"
)

type Server struct {
	store *Store
	db    *gorm.DB
	ws    *wsHub
	cfg   config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store: NewStore(),
		db:    conn,
		ws:    newWSHub(),
		cfg:   cfg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/cases", s.handleListCases)
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("POST /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("DELETE /api/admin/games/", s.handleAdminSubroutes)
	mux.HandleFunc("POST /api/admin/games/", s.handleAdminSubroutes)
	mux.HandleFunc("GET /ws/games/", s.handleWebsocket)
	return mux
}
