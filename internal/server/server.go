// Package server hosts the websocket transport, the per-room single-writer
// actors, and the auto-advance scheduler that keeps automated seats moving.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/euchred/internal/game"
	"github.com/lox/euchred/internal/store"
)

// Server is the HTTP front door: websocket upgrades, the room listing API
// and the creator delete endpoint.
type Server struct {
	manager  *Manager
	upgrader websocket.Upgrader
	httpSrv  *http.Server
	logger   *log.Logger
}

// New creates a server. The clock is injectable so scheduler tests can run
// against a mock.
func New(cfg *Config, st *store.Store, clock quartz.Clock, rng *rand.Rand, logger *log.Logger) *Server {
	s := &Server{
		manager: NewManager(st, clock, rng, cfg, logger),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Browser clients are served from arbitrary origins.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/rooms", s.handleRooms)
	mux.HandleFunc("/rooms/", s.handleRoomDelete)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
	}
	return s
}

// Manager exposes the room manager, primarily for tests.
func (s *Server) Manager() *Manager {
	return s.manager
}

// Restore loads persisted rooms before serving traffic.
func (s *Server) Restore() error {
	return s.manager.Restore()
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and closes every room.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpSrv.Shutdown(ctx)
	s.manager.Shutdown()
	return err
}

// handleWebSocket validates the join request before upgrading so refusals
// surface as HTTP status codes rather than close frames.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := joinParams{
		Room:          q.Get("room"),
		Name:          q.Get("name"),
		Password:      q.Get("password"),
		Create:        q.Get("create") == "1",
		CreatorToken:  q.Get("creatorToken"),
		BotDifficulty: difficultyParam(q.Get("botDifficulty")),
	}

	actor, playerID, reconnect, err := s.manager.Join(params)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "error", err)
		return
	}

	sess := newSession(conn, playerID, actor, s.logger)
	sess.start()
	actor.attach(sess, playerID, reconnect)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.manager.ListRooms(),
	})
}

func (s *Server) handleRoomDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/rooms/")
	if name == "" {
		writeError(w, httpErrorf(http.StatusBadRequest, "missing room name"))
		return
	}

	if err := s.manager.DeleteRoom(name, r.URL.Query().Get("creatorToken")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var herr *httpError
	if errors.As(err, &herr) {
		code = herr.code
	}
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func difficultyParam(s string) game.Difficulty {
	d := game.Difficulty(s)
	if !d.Valid() {
		return game.DifficultyMedium
	}
	return d
}
