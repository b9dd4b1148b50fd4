package server

import (
	"time"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/game"
)

// Client message types
const (
	ClientTypePing   = "ping"
	ClientTypeAction = "action"
)

// Server message types
const (
	ServerTypePong  = "pong"
	ServerTypeInfo  = "info"
	ServerTypeError = "error"
	ServerTypeState = "state"
)

// ClientMessage is the flat envelope for everything a client sends.
type ClientMessage struct {
	Type           string          `json:"type"`
	Action         game.ActionType `json:"action,omitempty"`
	Suit           deck.Suit       `json:"suit,omitempty"`
	CardID         string          `json:"cardId,omitempty"`
	Alone          bool            `json:"alone,omitempty"`
	TargetPlayerID string          `json:"targetPlayerId,omitempty"`
	SeatIndex      int             `json:"seatIndex,omitempty"`
	BotDifficulty  game.Difficulty `json:"botDifficulty,omitempty"`
}

// ServerMessage is the envelope for everything the server sends.
type ServerMessage struct {
	Type    string        `json:"type"`
	Message string        `json:"message,omitempty"`
	State   *RoomSnapshot `json:"state,omitempty"`
}

func pongMessage() *ServerMessage {
	return &ServerMessage{Type: ServerTypePong}
}

func infoMessage(text string) *ServerMessage {
	return &ServerMessage{Type: ServerTypeInfo, Message: text}
}

func errorMessage(text string) *ServerMessage {
	return &ServerMessage{Type: ServerTypeError, Message: text}
}

// PlayerView is a player as seen by another client. Only the recipient's own
// hand is ever included; everyone else exposes a count.
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	SeatIndex int         `json:"seatIndex"`
	Connected bool        `json:"connected"`
	IsBot     bool        `json:"isBot"`
	HandCount int         `json:"handCount"`
	Hand      []deck.Card `json:"hand,omitempty"`
}

// GameView is the public slice of the in-progress hand.
type GameView struct {
	Phase              game.Phase            `json:"phase"`
	DealerSeat         int                   `json:"dealerSeat"`
	TurnSeat           int                   `json:"turnSeat"`
	Upcard             *deck.Card            `json:"upcard,omitempty"`
	BlockedSuit        deck.Suit             `json:"blockedSuit,omitempty"`
	Trump              deck.Suit             `json:"trump,omitempty"`
	MakerTeam          int                   `json:"makerTeam"`
	CalledByPlayerID   string                `json:"calledByPlayerId,omitempty"`
	GoingAlonePlayerID string                `json:"goingAlonePlayerId,omitempty"`
	SittingOutSeat     int                   `json:"sittingOutSeat"`
	CurrentTrick       []game.TrickPlay      `json:"currentTrick"`
	CompletedTricks    []game.CompletedTrick `json:"completedTricks"`
	HandSummary        *game.HandSummary     `json:"handSummary,omitempty"`
	HandNumber         int                   `json:"handNumber"`
}

// RoomSnapshot is one client's personalized view of the room.
type RoomSnapshot struct {
	RoomName      string          `json:"roomName"`
	MaxPlayers    int             `json:"maxPlayers"`
	Status        game.Status     `json:"status"`
	BotDifficulty game.Difficulty `json:"botDifficulty"`
	BotCount      int             `json:"botCount"`
	TargetScore   int             `json:"targetScore"`
	Score         game.Score      `json:"score"`
	Players       []PlayerView    `json:"players"`
	You           *PlayerView     `json:"you,omitempty"`
	Game          *GameView       `json:"game,omitempty"`
	LegalPlays    []deck.Card     `json:"legalPlays,omitempty"`
	CreatorToken  string          `json:"creatorToken,omitempty"`
	IsCreator     bool            `json:"isCreator,omitempty"`
}

// RoomListing is one entry of the GET /rooms response.
type RoomListing struct {
	Name          string          `json:"name"`
	Players       int             `json:"players"`
	MaxPlayers    int             `json:"maxPlayers"`
	BotCount      int             `json:"botCount"`
	BotDifficulty game.Difficulty `json:"botDifficulty"`
	HasPassword   bool            `json:"hasPassword"`
	Status        game.Status     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// snapshotFor builds the personalized snapshot for one recipient. The creator
// token is only ever revealed to the creator.
func snapshotFor(r *game.Room, recipientID string) *RoomSnapshot {
	snap := &RoomSnapshot{
		RoomName:      r.Name,
		MaxPlayers:    r.MaxPlayers,
		Status:        r.Status,
		BotDifficulty: r.BotDifficulty,
		BotCount:      r.BotCount,
		TargetScore:   r.TargetScore,
		Score:         r.Score,
	}

	for _, p := range r.Players {
		view := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			SeatIndex: p.SeatIndex,
			Connected: p.Connected,
			IsBot:     p.IsBot,
			HandCount: len(p.Hand),
		}
		if p.ID == recipientID {
			view.Hand = append([]deck.Card(nil), p.Hand...)
			game.SortHand(view.Hand)
			you := view
			snap.You = &you
		}
		snap.Players = append(snap.Players, view)
	}

	if r.IsCreator(recipientID) {
		snap.CreatorToken = r.CreatorToken
		snap.IsCreator = true
	}

	if g := r.Game; g != nil {
		snap.Game = &GameView{
			Phase:              g.Phase,
			DealerSeat:         g.DealerSeat,
			TurnSeat:           g.TurnSeat,
			Upcard:             g.Upcard,
			BlockedSuit:        g.BlockedSuit,
			Trump:              g.Trump,
			MakerTeam:          g.MakerTeam,
			CalledByPlayerID:   g.CalledByPlayerID,
			GoingAlonePlayerID: g.GoingAlonePlayerID,
			SittingOutSeat:     g.SittingOutSeat,
			CurrentTrick:       g.CurrentTrick,
			CompletedTricks:    g.CompletedTricks,
			HandSummary:        g.HandSummary,
			HandNumber:         g.HandNumber,
		}
		snap.LegalPlays = r.LegalPlays(recipientID)
	}

	return snap
}
