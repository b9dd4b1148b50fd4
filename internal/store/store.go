// Package store persists room state in a sqlite-backed key/value table.
// All rooms are written as a single JSON record so a crash never leaves a
// partially updated room set.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// roomsKey is the single record under which the whole room map is stored.
const roomsKey = "euchre-rooms"

const opTimeout = 5 * time.Second

// Store is a durable map of room name to marshaled room state.
type Store struct {
	db     *sql.DB
	logger *log.Logger

	mu    sync.Mutex
	cache map[string]json.RawMessage
}

// Open opens or creates the sqlite database at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string, logger *log.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if path != ":memory:" {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS records (
    key           TEXT PRIMARY KEY,
    data          BLOB NOT NULL,
    updated_at_ms INTEGER NOT NULL
);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger.WithPrefix("store"),
		cache:  make(map[string]json.RawMessage),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRoom stores one room's marshaled state and rewrites the record.
func (s *Store) SaveRoom(name string, room any) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[name] = data
	return s.flushLocked()
}

// DeleteRoom removes a room and rewrites the record.
func (s *Store) DeleteRoom(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache[name]; !ok {
		return nil
	}
	delete(s.cache, name)
	return s.flushLocked()
}

// LoadRooms reads the persisted room map, seeding the in-memory cache so
// later saves preserve rooms that have not been touched yet.
func (s *Store) LoadRooms() (map[string]json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE key = ?`, roomsKey).Scan(&data)
	if err == sql.ErrNoRows {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	rooms := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode room record: %w", err)
	}

	s.mu.Lock()
	for name, raw := range rooms {
		s.cache[name] = raw
	}
	s.mu.Unlock()

	s.logger.Debug("loaded rooms", "count", len(rooms))
	return rooms, nil
}

func (s *Store) flushLocked() error {
	data, err := json.Marshal(s.cache)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO records (key, data, updated_at_ms) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at_ms = excluded.updated_at_ms`,
		roomsKey, data, time.Now().UTC().UnixMilli())
	return err
}
