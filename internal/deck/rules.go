package deck

// LegalPlays returns the cards in hand that may legally be played given the
// led card. With no lead any card is legal; otherwise the lead's effective
// suit must be followed when the hand holds any card of that effective suit.
func LegalPlays(hand []Card, lead *Card, trump Suit) []Card {
	if lead == nil {
		out := make([]Card, len(hand))
		copy(out, hand)
		return out
	}

	leadSuit := lead.EffectiveSuit(trump)
	var follows []Card
	for _, c := range hand {
		if c.EffectiveSuit(trump) == leadSuit {
			follows = append(follows, c)
		}
	}
	if len(follows) > 0 {
		return follows
	}

	out := make([]Card, len(hand))
	copy(out, hand)
	return out
}

// CanFollow returns true if the hand holds a card of the led effective suit
func CanFollow(hand []Card, lead Card, trump Suit) bool {
	leadSuit := lead.EffectiveSuit(trump)
	for _, c := range hand {
		if c.EffectiveSuit(trump) == leadSuit {
			return true
		}
	}
	return false
}

// TrickWinnerIdx returns the index of the winning card among the played cards
// in play order, or -1 for an empty trick. The first card establishes the led
// suit.
func TrickWinnerIdx(plays []Card, trump Suit) int {
	if len(plays) == 0 {
		return -1
	}
	lead := plays[0].EffectiveSuit(trump)
	winner := 0
	best := Strength(plays[0], trump, lead)
	for i := 1; i < len(plays); i++ {
		if s := Strength(plays[i], trump, lead); s > best {
			best = s
			winner = i
		}
	}
	return winner
}
