package server

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/euchred/internal/game"
	"github.com/lox/euchred/internal/randutil"
	"github.com/lox/euchred/internal/store"
)

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.DBPath = ":memory:"
	cfg.Pacing = PacingSettings{
		ThinkEasyMs:      1,
		ThinkMediumMs:    1,
		ThinkHardMs:      1,
		DisconnectedMs:   1,
		PostTrickPauseMs: 1,
		HandOverPauseMs:  1,
	}
	return cfg
}

func newTestManager(t *testing.T, cfg *Config) (*Manager, *store.Store) {
	t.Helper()
	logger := log.New(io.Discard)
	st, err := store.Open(":memory:", logger)
	require.NoError(t, err)
	m := NewManager(st, quartz.NewReal(), randutil.New(1), cfg, logger)
	t.Cleanup(func() {
		m.Shutdown()
		_ = st.Close()
	})
	return m, st
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var herr *httpError
	require.ErrorAs(t, err, &herr)
	return herr.code
}

func TestJoinCreatesRoom(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	actor, playerID, reconnect, err := m.Join(joinParams{Room: "r1", Name: "alice", Create: true})
	require.NoError(t, err)
	assert.False(t, reconnect)
	assert.NotEmpty(t, playerID)
	assert.Equal(t, playerID, actor.room.CreatorPlayerID)
	assert.Equal(t, game.StatusWaiting, actor.room.Status)
}

func TestJoinMissingRoomNotFound(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	_, _, _, err := m.Join(joinParams{Room: "nope", Name: "alice"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestJoinValidatesParams(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	_, _, _, err := m.Join(joinParams{Name: "alice", Create: true})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, _, _, err = m.Join(joinParams{Room: "r1", Create: true})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestCreateConflictWithoutToken(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	actor, _, _, err := m.Join(joinParams{Room: "r1", Name: "alice", Create: true})
	require.NoError(t, err)

	_, _, _, err = m.Join(joinParams{Room: "r1", Name: "mallory", Create: true})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	// The legitimate creator may re-create and keeps the capability.
	_, playerID, reconnect, err := m.Join(joinParams{
		Room:         "r1",
		Name:         "alice",
		Create:       true,
		CreatorToken: actor.room.CreatorToken,
	})
	require.NoError(t, err)
	assert.True(t, reconnect)
	assert.Equal(t, playerID, actor.room.CreatorPlayerID)
}

func TestJoinWrongPassword(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	_, _, _, err := m.Join(joinParams{Room: "r1", Name: "alice", Password: "secret", Create: true})
	require.NoError(t, err)

	_, _, _, err = m.Join(joinParams{Room: "r1", Name: "bob", Password: "wrong"})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, _, _, err = m.Join(joinParams{Room: "r1", Name: "bob", Password: "secret"})
	assert.NoError(t, err)
}

func TestJoinFullRoom(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	for _, name := range []string{"a", "b", "c", "d"} {
		_, _, _, err := m.Join(joinParams{Room: "r1", Name: name, Create: name == "a"})
		require.NoError(t, err)
	}

	_, _, _, err := m.Join(joinParams{Room: "r1", Name: "e"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	// A seated name may always rebind.
	_, _, reconnect, err := m.Join(joinParams{Room: "r1", Name: "c"})
	require.NoError(t, err)
	assert.True(t, reconnect)
}

func TestJoinBotNameConflict(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	actor, creatorID, _, err := m.Join(joinParams{Room: "r1", Name: "alice", Create: true})
	require.NoError(t, err)

	actor.do(func() {
		_, err := actor.room.Apply(game.Action{Type: game.ActionAddBot, PlayerID: creatorID}, nil)
		require.NoError(t, err)
	})

	_, _, _, err = m.Join(joinParams{Room: "r1", Name: "Bot 1"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
}

func TestJoinTrimsNames(t *testing.T) {
	m, _ := newTestManager(t, fastConfig())

	longRoom := "  room-name-that-is-way-longer-than-twenty-four-characters"
	longName := "player-name-that-keeps-going-well-past-the-forty-character-limit"

	actor, playerID, _, err := m.Join(joinParams{Room: longRoom, Name: longName, Create: true})
	require.NoError(t, err)

	assert.LessOrEqual(t, len(actor.room.Name), maxRoomLen)
	actor.do(func() {
		p := actor.room.PlayerByID(playerID)
		assert.LessOrEqual(t, len(p.Name), maxNameLen)
	})
}

func TestDeleteRoomRequiresToken(t *testing.T) {
	m, st := newTestManager(t, fastConfig())

	actor, _, _, err := m.Join(joinParams{Room: "r1", Name: "alice", Create: true})
	require.NoError(t, err)
	token := actor.room.CreatorToken

	err = m.DeleteRoom("r1", "bogus")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	require.NoError(t, m.DeleteRoom("r1", token))
	assert.Empty(t, m.ListRooms())

	loaded, err := st.LoadRooms()
	require.NoError(t, err)
	assert.NotContains(t, loaded, "r1")

	err = m.DeleteRoom("r1", token)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestListRoomsReapsExpired(t *testing.T) {
	cfg := fastConfig()
	cfg.Game.RoomTTLMinutes = 1
	m, st := newTestManager(t, cfg)

	actor, _, _, err := m.Join(joinParams{Room: "old", Name: "alice", Create: true})
	require.NoError(t, err)
	actor.do(func() {
		actor.room.CreatedAt = time.Now().Add(-2 * time.Hour)
	})
	_, _, _, err = m.Join(joinParams{Room: "fresh", Name: "bob", Create: true})
	require.NoError(t, err)

	listings := m.ListRooms()
	require.Len(t, listings, 1)
	assert.Equal(t, "fresh", listings[0].Name)

	loaded, err := st.LoadRooms()
	require.NoError(t, err)
	assert.NotContains(t, loaded, "old")
}

func TestRestoreMarksHumansDisconnected(t *testing.T) {
	cfg := fastConfig()
	logger := log.New(io.Discard)
	st, err := store.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	room := game.NewRoom("r1", "", game.DifficultyMedium, 10)
	human, err := room.AddPlayer("alice", false)
	require.NoError(t, err)
	human.Connected = true
	bot, err := room.AddPlayer("Bot 1", true)
	require.NoError(t, err)
	require.NoError(t, st.SaveRoom("r1", room))

	m := NewManager(st, quartz.NewReal(), randutil.New(1), cfg, logger)
	t.Cleanup(m.Shutdown)
	require.NoError(t, m.Restore())

	listings := m.ListRooms()
	require.Len(t, listings, 1)

	m.mu.Lock()
	actor := m.rooms["r1"]
	m.mu.Unlock()
	actor.do(func() {
		assert.False(t, actor.room.PlayerByName("alice").Connected)
		assert.Equal(t, bot.Name, actor.room.PlayerByName("Bot 1").Name)
	})
}
