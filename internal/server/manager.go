package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/lox/euchred/internal/bot"
	"github.com/lox/euchred/internal/game"
	"github.com/lox/euchred/internal/gameid"
	"github.com/lox/euchred/internal/randutil"
	"github.com/lox/euchred/internal/store"
)

const (
	maxNameLen = 40
	maxRoomLen = 24
)

// httpError carries a status code to the HTTP layer.
type httpError struct {
	code    int
	message string
}

func (e *httpError) Error() string { return e.message }

func httpErrorf(code int, format string, args ...any) *httpError {
	return &httpError{code: code, message: fmt.Sprintf(format, args...)}
}

// joinParams are the query parameters of a websocket upgrade request.
type joinParams struct {
	Room          string
	Name          string
	Password      string
	Create        bool
	CreatorToken  string
	BotDifficulty game.Difficulty
}

// Manager owns the room table. The table itself is only written on the
// accept path and by the reaper; each room is thereafter exclusive to its
// actor.
type Manager struct {
	mu     sync.Mutex
	rooms  map[string]*roomActor
	store  *store.Store
	clock  quartz.Clock
	rng    *rand.Rand
	cfg    *Config
	logger *log.Logger
}

// NewManager creates a room manager backed by the given store.
func NewManager(st *store.Store, clock quartz.Clock, rng *rand.Rand, cfg *Config, logger *log.Logger) *Manager {
	return &Manager{
		rooms:  make(map[string]*roomActor),
		store:  st,
		clock:  clock,
		rng:    rng,
		cfg:    cfg,
		logger: logger.WithPrefix("manager"),
	}
}

// Restore loads persisted rooms after a cold start. Every non-bot player is
// marked disconnected since no sessions survive a restart.
func (m *Manager) Restore() error {
	raws, err := m.store.LoadRooms()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, raw := range raws {
		var room game.Room
		if err := json.Unmarshal(raw, &room); err != nil {
			m.logger.Error("skipping unreadable room", "room", name, "error", err)
			continue
		}
		for _, p := range room.Players {
			if !p.IsBot {
				p.Connected = false
			}
		}
		m.rooms[room.Name] = m.newActor(&room)
	}
	if len(m.rooms) > 0 {
		m.logger.Info("restored rooms", "count", len(m.rooms))
	}
	return nil
}

// newActor derives a private RNG for the room so actors never contend on a
// shared rand source. Callers hold m.mu.
func (m *Manager) newActor(room *game.Room) *roomActor {
	rng := randutil.New(m.rng.Int64())
	return newRoomActor(room, m.store, m.clock, rng, bot.New(rng, m.logger), m.cfg.Pacing, m.logger)
}

// Join resolves a websocket upgrade request to a room actor and player id,
// creating the room when asked to. Called before the upgrade so refusals
// become plain HTTP status codes.
func (m *Manager) Join(params joinParams) (*roomActor, string, bool, error) {
	roomName := trimTo(params.Room, maxRoomLen)
	playerName := trimTo(params.Name, maxNameLen)
	if roomName == "" {
		return nil, "", false, httpErrorf(http.StatusBadRequest, "missing room name")
	}
	if playerName == "" {
		return nil, "", false, httpErrorf(http.StatusBadRequest, "missing player name")
	}

	m.reap()

	m.mu.Lock()
	actor, exists := m.rooms[roomName]
	if !exists {
		if !params.Create {
			m.mu.Unlock()
			return nil, "", false, httpErrorf(http.StatusNotFound, "room %q not found", roomName)
		}
		actor = m.createRoomLocked(roomName, params)
	}
	m.mu.Unlock()

	if exists && params.Create && !gameid.TokenEqual(actor.room.CreatorToken, params.CreatorToken) {
		return nil, "", false, httpErrorf(http.StatusConflict, "room %q already exists", roomName)
	}
	if hash := actor.room.PasswordHash; hash != "" {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(params.Password)) != nil {
			return nil, "", false, httpErrorf(http.StatusForbidden, "wrong password")
		}
	}

	var (
		playerID  string
		reconnect bool
		joinErr   error
	)
	actor.do(func() {
		r := actor.room

		if p := r.PlayerByName(playerName); p != nil {
			if p.IsBot {
				joinErr = httpErrorf(http.StatusConflict, "name %q is taken", playerName)
				return
			}
			if _, live := actor.sessions[p.ID]; live && p.Connected {
				joinErr = httpErrorf(http.StatusConflict, "name %q is taken", playerName)
				return
			}
			playerID = p.ID
			reconnect = true
		} else {
			p, err := r.AddPlayer(playerName, false)
			if err != nil {
				joinErr = httpErrorf(http.StatusConflict, "%s", err)
				return
			}
			playerID = p.ID
		}

		// The creator capability follows the token, not the socket, so a
		// creator who reopens their browser keeps their privileges.
		if gameid.TokenEqual(r.CreatorToken, params.CreatorToken) || (r.CreatorPlayerID == "" && !exists) {
			r.CreatorPlayerID = playerID
		}
	})
	if joinErr != nil {
		return nil, "", false, joinErr
	}
	return actor, playerID, reconnect, nil
}

func (m *Manager) createRoomLocked(name string, params joinParams) *roomActor {
	passwordHash := ""
	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err == nil {
			passwordHash = string(hash)
		} else {
			m.logger.Error("failed to hash password", "error", err)
		}
	}

	room := game.NewRoom(name, passwordHash, params.BotDifficulty, m.cfg.Game.TargetScore)
	actor := m.newActor(room)
	m.rooms[name] = actor
	m.logger.Info("room created", "room", name, "difficulty", room.BotDifficulty)
	return actor
}

// ListRooms returns public listings for all live rooms, reaping expired
// ones first.
func (m *Manager) ListRooms() []RoomListing {
	m.reap()

	m.mu.Lock()
	actors := make([]*roomActor, 0, len(m.rooms))
	for _, a := range m.rooms {
		actors = append(actors, a)
	}
	m.mu.Unlock()

	listings := make([]RoomListing, 0, len(actors))
	for _, a := range actors {
		a.do(func() {
			r := a.room
			listings = append(listings, RoomListing{
				Name:          r.Name,
				Players:       len(r.Players),
				MaxPlayers:    r.MaxPlayers,
				BotCount:      r.BotCount,
				BotDifficulty: r.BotDifficulty,
				HasPassword:   r.PasswordHash != "",
				Status:        r.Status,
				CreatedAt:     r.CreatedAt,
			})
		})
	}
	sort.Slice(listings, func(i, j int) bool { return listings[i].Name < listings[j].Name })
	return listings
}

// DeleteRoom evicts a room on behalf of its creator, closing all sessions
// with close code 1001.
func (m *Manager) DeleteRoom(name, creatorToken string) error {
	m.mu.Lock()
	actor, ok := m.rooms[name]
	if ok && !gameid.TokenEqual(actor.room.CreatorToken, creatorToken) {
		m.mu.Unlock()
		return httpErrorf(http.StatusForbidden, "creator token mismatch")
	}
	if ok {
		delete(m.rooms, name)
	}
	m.mu.Unlock()

	if !ok {
		return httpErrorf(http.StatusNotFound, "room %q not found", name)
	}

	actor.shutdown(websocket.CloseGoingAway)
	if err := m.store.DeleteRoom(name); err != nil {
		m.logger.Error("failed to delete room record", "room", name, "error", err)
	}
	m.logger.Info("room deleted", "room", name)
	return nil
}

// reap shuts down rooms older than the configured TTL.
func (m *Manager) reap() {
	now := time.Now()
	ttl := m.cfg.RoomTTL()

	var expired []*roomActor
	m.mu.Lock()
	for name, a := range m.rooms {
		if a.room.Expired(ttl, now) {
			delete(m.rooms, name)
			expired = append(expired, a)
		}
	}
	m.mu.Unlock()

	for _, a := range expired {
		name := a.room.Name
		a.shutdown(websocket.CloseGoingAway)
		if err := m.store.DeleteRoom(name); err != nil {
			m.logger.Error("failed to delete expired room record", "room", name, "error", err)
		}
		m.logger.Info("room expired", "room", name)
	}
}

// Shutdown stops every room actor. Rooms stay persisted for the next start.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	actors := make([]*roomActor, 0, len(m.rooms))
	for _, a := range m.rooms {
		actors = append(actors, a)
	}
	m.rooms = make(map[string]*roomActor)
	m.mu.Unlock()

	for _, a := range actors {
		a.shutdown(websocket.CloseGoingAway)
	}
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
