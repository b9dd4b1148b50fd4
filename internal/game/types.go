package game

import (
	"sort"
	"strings"
	"time"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/gameid"
)

// DefaultTargetScore is the match-winning score unless configured otherwise
const DefaultTargetScore = 10

// MaxPlayers is the number of seats at a euchre table
const MaxPlayers = 4

// Phase represents where the current hand is in its lifecycle
type Phase string

const (
	PhaseBiddingRound1 Phase = "bidding-round-1"
	PhaseBiddingRound2 Phase = "bidding-round-2"
	PhaseDealerDiscard Phase = "dealer-discard"
	PhasePlaying       Phase = "playing"
	PhaseHandOver      Phase = "hand-over"
	PhaseGameOver      Phase = "game-over"
)

// Status represents the room lifecycle state
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// Difficulty selects the bot strength for a room
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid returns true for a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Player represents a seated player. Disconnected humans keep their seat;
// bots are never connected.
type Player struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	SeatIndex int         `json:"seatIndex"`
	Connected bool        `json:"connected"`
	IsBot     bool        `json:"isBot"`
	Hand      []deck.Card `json:"hand"`
}

/// Team returns the player's team id: even seats are team 0, odd seats team 1
func (p *Player) Team() int {
	return p.SeatIndex % 2
}

// TeamOfSeat returns the team id for a seat index
func TeamOfSeat(seat int) int {
	return seat % 2
}

// PartnerSeat returns the seat across the table
func PartnerSeat(seat int) int {
	return (seat + 2) % MaxPlayers
}

// NextSeat returns the next seat clockwise
func NextSeat(seat int) int {
	return (seat + 1) % MaxPlayers
}

// TrickPlay is a single card played into a trick, in play order
type TrickPlay struct {
	PlayerID string    `json:"playerId"`
	Card     deck.Card `json:"card"`
}

// CompletedTrick is an immutable record of a resolved trick
type CompletedTrick struct {
	Index      int         `json:"index"`
	WinnerSeat int         `json:"winnerSeat"`
	Cards      []TrickPlay `json:"cards"`
}

// HandSummary records how a finished hand was scored
type HandSummary struct {
	MakerTeam      int `json:"makerTeam"`
	MakerTricks    int `json:"makerTricks"`
	DefenderTricks int `json:"defenderTricks"`
	PointsAwarded  int `json:"pointsAwarded"`
	AwardedTo      int `json:"awardedTo"`
}

// Score tracks match points per team
type Score struct {
	Team0 int `json:"team0"`
	Team1 int `json:"team1"`
}

// ForTeam returns the score for a team id
func (s Score) ForTeam(team int) int {
	if team == 0 {
		return s.Team0
	}
	return s.Team1
}

// Game holds the state of the hand currently being played
type Game struct {
	Phase              Phase            `json:"phase"`
	DealerSeat         int              `json:"dealerSeat"`
	TurnSeat           int              `json:"turnSeat"`
	Upcard             *deck.Card       `json:"upcard,omitempty"`
	Kitty              []deck.Card      `json:"kitty"`
	BlockedSuit        deck.Suit        `json:"blockedSuit,omitempty"`
	Trump              deck.Suit        `json:"trump,omitempty"`
	MakerTeam          int              `json:"makerTeam"`
	CalledByPlayerID   string           `json:"calledByPlayerId,omitempty"`
	GoingAlonePlayerID string           `json:"goingAlonePlayerId,omitempty"`
	SittingOutSeat     int              `json:"sittingOutSeat"`
	CurrentTrick       []TrickPlay      `json:"currentTrick"`
	CompletedTricks    []CompletedTrick `json:"completedTricks"`
	TrickIndex         int              `json:"trickIndex"`
	HandSummary        *HandSummary     `json:"handSummary,omitempty"`
	HandNumber         int              `json:"handNumber"`
}

// ActiveSeatCount returns how many seats play cards this hand
func (g *Game) ActiveSeatCount() int {
	if g.SittingOutSeat >= 0 {
		return MaxPlayers - 1
	}
	return MaxPlayers
}

// NextActiveSeat returns the next seat clockwise that is not sitting out
func (g *Game) NextActiveSeat(seat int) int {
	next := NextSeat(seat)
	for next == g.SittingOutSeat {
		next = NextSeat(next)
	}
	return next
}

// LeadCard returns the first card of the current trick, or nil
func (g *Game) LeadCard() *deck.Card {
	if len(g.CurrentTrick) == 0 {
		return nil
	}
	return &g.CurrentTrick[0].Card
}

// Room is the authoritative state for one table. All mutation goes through
// the per-room single writer.
type Room struct {
	Name            string     `json:"name"`
	PasswordHash    string     `json:"passwordHash,omitempty"`
	CreatorToken    string     `json:"creatorToken"`
	CreatorPlayerID string     `json:"creatorPlayerId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	MaxPlayers      int        `json:"maxPlayers"`
	Status          Status     `json:"status"`
	BotDifficulty   Difficulty `json:"botDifficulty"`
	BotCount        int        `json:"botCount"`
	TargetScore     int        `json:"targetScore"`
	Score           Score      `json:"score"`
	Players         []*Player  `json:"players"`
	Game            *Game      `json:"game,omitempty"`
}

// NewRoom creates an empty room with a freshly minted creator token
func NewRoom(name, passwordHash string, difficulty Difficulty, targetScore int) *Room {
	if !difficulty.Valid() {
		difficulty = DifficultyMedium
	}
	if targetScore <= 0 {
		targetScore = DefaultTargetScore
	}
	now := time.Now()
	return &Room{
		Name:          name,
		PasswordHash:  passwordHash,
		CreatorToken:  gameid.NewToken(),
		CreatedAt:     now,
		UpdatedAt:     now,
		MaxPlayers:    MaxPlayers,
		Status:        StatusWaiting,
		BotDifficulty: difficulty,
		TargetScore:   targetScore,
	}
}

// PlayerByID finds a player by id
func (r *Room) PlayerByID(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByName finds a player by name, case-insensitively
func (r *Room) PlayerByName(name string) *Player {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// PlayerBySeat finds the player in a seat
func (r *Room) PlayerBySeat(seat int) *Player {
	for _, p := range r.Players {
		if p.SeatIndex == seat {
			return p
		}
	}
	return nil
}

// SeatTaken returns true if any player occupies the seat
func (r *Room) SeatTaken(seat int) bool {
	return r.PlayerBySeat(seat) != nil
}

// nextOpenSeat returns the lowest unoccupied seat, or -1 when full
func (r *Room) nextOpenSeat() int {
	for seat := 0; seat < r.MaxPlayers; seat++ {
		if !r.SeatTaken(seat) {
			return seat
		}
	}
	return -1
}

// AddPlayer seats a new player in the lowest open seat
func (r *Room) AddPlayer(name string, isBot bool) (*Player, error) {
	if r.PlayerByName(name) != nil {
		return nil, ErrNameTaken
	}
	seat := r.nextOpenSeat()
	if seat < 0 {
		return nil, ErrRoomFull
	}
	p := &Player{
		ID:        gameid.New(),
		Name:      name,
		SeatIndex: seat,
		IsBot:     isBot,
	}
	r.Players = append(r.Players, p)
	return p, nil
}

// IsCreator reports whether the player holds the creator capability
func (r *Room) IsCreator(playerID string) bool {
	return r.CreatorPlayerID != "" && r.CreatorPlayerID == playerID
}

// Expired reports whether the room has outlived its TTL
func (r *Room) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(r.CreatedAt) > ttl
}

// LegalPlays returns the cards the player may play right now, or nil when it
// is not their turn to play a card.
func (r *Room) LegalPlays(playerID string) []deck.Card {
	g := r.Game
	if g == nil || g.Phase != PhasePlaying {
		return nil
	}
	p := r.PlayerByID(playerID)
	if p == nil || p.SeatIndex != g.TurnSeat {
		return nil
	}
	return deck.LegalPlays(p.Hand, g.LeadCard(), g.Trump)
}

// SortHand orders cards suit-then-rank for stable client rendering
func SortHand(cards []deck.Card) {
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].Suit != cards[j].Suit {
			return cards[i].Suit < cards[j].Suit
		}
		return cards[i].Rank < cards[j].Rank
	})
}
