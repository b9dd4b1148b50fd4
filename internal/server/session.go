package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Session is one WebSocket client bound to a seat in a room.
type Session struct {
	conn     *websocket.Conn
	send     chan *ServerMessage
	playerID string
	room     *roomActor
	logger   *log.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, playerID string, room *roomActor, logger *log.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		conn:     conn,
		send:     make(chan *ServerMessage, 64),
		playerID: playerID,
		room:     room,
		logger:   logger.WithPrefix("session"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *Session) start() {
	go s.writePump()
	go s.readPump()
}

// Send queues a message for delivery. A slow client that fills its buffer is
// dropped rather than blocking the room writer.
func (s *Session) Send(msg *ServerMessage) {
	select {
	case s.send <- msg:
	case <-s.ctx.Done():
	default:
		s.logger.Warn("send buffer full, closing session", "player", s.playerID)
		s.CloseWithCode(websocket.CloseGoingAway)
	}
}

// Close tears down the session without a close frame.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		_ = s.conn.Close()
	})
}

// CloseWithCode sends a close frame before tearing the session down. Code
// 1001 is used when the room is deleted or reaped.
func (s *Session) CloseWithCode(code int) {
	s.closeOnce.Do(func() {
		deadline := time.Now().Add(writeWait)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""), deadline)
		s.cancel()
		_ = s.conn.Close()
	})
}

func (s *Session) readPump() {
	defer func() {
		s.Close()
		s.room.detach(s)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket error", "player", s.playerID, "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.Send(errorMessage("malformed message"))
			continue
		}

		switch msg.Type {
		case ClientTypePing:
			// Answered here so keepalives never wake the room writer.
			s.Send(pongMessage())
		case ClientTypeAction:
			s.room.handleClientAction(s, msg)
		default:
			s.Send(errorMessage("unknown message type"))
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("write failed", "player", s.playerID, "error", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}
