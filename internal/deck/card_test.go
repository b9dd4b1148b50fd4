package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardID(t *testing.T) {
	assert.Equal(t, "hearts-9", NewCard(Hearts, Nine).ID)
	assert.Equal(t, "diamonds-J", NewCard(Diamonds, Jack).ID)
	assert.Equal(t, "spades-10", NewCard(Spades, Ten).ID)
	assert.Equal(t, "clubs-A", NewCard(Clubs, Ace).ID)
}

func TestBowers(t *testing.T) {
	rightBower := NewCard(Hearts, Jack)
	leftBower := NewCard(Diamonds, Jack)

	assert.True(t, rightBower.IsRightBower(Hearts))
	assert.True(t, leftBower.IsLeftBower(Hearts))
	assert.False(t, leftBower.IsRightBower(Hearts))
	assert.False(t, NewCard(Spades, Jack).IsLeftBower(Hearts))

	// The left bower counts as trump, not as its printed suit.
	assert.Equal(t, Hearts, leftBower.EffectiveSuit(Hearts))
	assert.True(t, leftBower.IsTrump(Hearts))
	assert.Equal(t, Diamonds, leftBower.EffectiveSuit(Spades))
}

func TestStrengthOrdering(t *testing.T) {
	trump := Hearts
	lead := Spades

	tests := []struct {
		card Card
		want int
	}{
		{NewCard(Hearts, Jack), 100},   // right bower
		{NewCard(Diamonds, Jack), 99},  // left bower
		{NewCard(Hearts, Ace), 98},
		{NewCard(Hearts, King), 97},
		{NewCard(Hearts, Queen), 96},
		{NewCard(Hearts, Ten), 95},
		{NewCard(Hearts, Nine), 94},
		{NewCard(Spades, Ace), 60},
		{NewCard(Spades, King), 59},
		{NewCard(Spades, Queen), 58},
		{NewCard(Spades, Jack), 57},
		{NewCard(Spades, Ten), 56},
		{NewCard(Spades, Nine), 55},
		{NewCard(Clubs, Ace), 0}, // off suit never wins
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strength(tt.card, trump, lead), "card %s", tt.card.ID)
	}
}

func TestStrengthLeadIsTrump(t *testing.T) {
	// When trump is led, trump strengths apply and off-suit cards are dead.
	assert.Equal(t, 100, Strength(NewCard(Clubs, Jack), Clubs, Clubs))
	assert.Equal(t, 0, Strength(NewCard(Hearts, Ace), Clubs, Clubs))
}

func TestSameColor(t *testing.T) {
	assert.Equal(t, Diamonds, Hearts.SameColor())
	assert.Equal(t, Hearts, Diamonds.SameColor())
	assert.Equal(t, Spades, Clubs.SameColor())
	assert.Equal(t, Clubs, Spades.SameColor())
}
