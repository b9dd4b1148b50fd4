package deck

import "fmt"

// Suit represents a card suit
type Suit string

const (
	Clubs    Suit = "clubs"
	Diamonds Suit = "diamonds"
	Hearts   Suit = "hearts"
	Spades   Suit = "spades"
)

// Suits lists all four suits in canonical order
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Valid returns true if the suit is one of the four known suits
func (s Suit) Valid() bool {
	switch s {
	case Clubs, Diamonds, Hearts, Spades:
		return true
	}
	return false
}

// SameColor returns the other suit of the same color (clubs↔spades, hearts↔diamonds)
func (s Suit) SameColor() Suit {
	switch s {
	case Clubs:
		return Spades
	case Spades:
		return Clubs
	case Hearts:
		return Diamonds
	case Diamonds:
		return Hearts
	}
	return s
}

// String returns the string representation of a suit
func (s Suit) String() string {
	return string(s)
}

// Rank represents a card rank in the euchre deck (9 through Ace)
type Rank int

const (
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
	Ace   Rank = 14
)

// Ranks lists the six euchre ranks low to high
var Ranks = []Rank{Nine, Ten, Jack, Queen, King, Ace}

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Nine:
		return "9"
	case Ten:
		return "10"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return "?"
	}
}

// Card represents a playing card. ID is unique within a deal and is how
// clients reference cards on the wire.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
	Rank Rank   `json:"rank"`
}

// NewCard creates a new card with its canonical ID
func NewCard(suit Suit, rank Rank) Card {
	return Card{
		ID:   fmt.Sprintf("%s-%s", suit, rank),
		Suit: suit,
		Rank: rank,
	}
}

// String returns the string representation of a card (e.g., "hearts-9")
func (c Card) String() string {
	return c.ID
}

// IsRightBower returns true if the card is the Jack of trump
func (c Card) IsRightBower(trump Suit) bool {
	return c.Rank == Jack && c.Suit == trump
}

// IsLeftBower returns true if the card is the Jack of trump's same-color suit
func (c Card) IsLeftBower(trump Suit) bool {
	return c.Rank == Jack && c.Suit == trump.SameColor()
}

// EffectiveSuit returns the suit the card counts as for following and winning.
// The left bower plays as a trump card; every other card plays as printed.
func (c Card) EffectiveSuit(trump Suit) Suit {
	if c.IsLeftBower(trump) {
		return trump
	}
	return c.Suit
}

// IsTrump returns true if the card is effectively trump (bowers included)
func (c Card) IsTrump(trump Suit) bool {
	return c.EffectiveSuit(trump) == trump
}

// Rank strength tiers. Bowers sit above trump honors, trump above the led
// suit, and off-suit cards cannot win a trick.
const (
	strengthRightBower = 100
	strengthLeftBower  = 99
)

// Strength returns the card's trick-winning strength given trump and the led
// effective suit. Off-suit non-trump cards score zero.
func Strength(c Card, trump, lead Suit) int {
	if c.IsRightBower(trump) {
		return strengthRightBower
	}
	if c.IsLeftBower(trump) {
		return strengthLeftBower
	}
	if c.Suit == trump {
		// Non-bower trump ranks A,K,Q,10,9 map onto 98..94. The Jack is
		// always a bower so the tier stays contiguous.
		switch c.Rank {
		case Ace:
			return 98
		case King:
			return 97
		case Queen:
			return 96
		case Ten:
			return 95
		default:
			return 94
		}
	}
	if c.Suit == lead {
		return c.LeadValue()
	}
	return 0
}

// LeadValue returns the card's strength as if it led its own suit with no
// trump involvement, A=60 down to 9=55. Used as a residual value when
// evaluating hands.
func (c Card) LeadValue() int {
	return int(c.Rank) + 46
}
