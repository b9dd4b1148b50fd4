package bot

import (
	rand "math/rand/v2"
	"sort"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/game"
)

// voidSuits infers, per seat, the effective suits a player has shown they do
// not hold: any time a seat failed to follow the led suit, that suit is void
// for them.
func voidSuits(g *game.Game, seatOf func(playerID string) int) map[int]map[deck.Suit]bool {
	voids := make(map[int]map[deck.Suit]bool)

	mark := func(plays []game.TrickPlay) {
		if len(plays) == 0 {
			return
		}
		lead := plays[0].Card.EffectiveSuit(g.Trump)
		for _, tp := range plays[1:] {
			if tp.Card.EffectiveSuit(g.Trump) != lead {
				seat := seatOf(tp.PlayerID)
				if voids[seat] == nil {
					voids[seat] = make(map[deck.Suit]bool)
				}
				voids[seat][lead] = true
			}
		}
	}

	for _, ct := range g.CompletedTricks {
		mark(ct.Cards)
	}
	mark(g.CurrentTrick)
	return voids
}

// determinize builds a perfect-information sample of the room from one seat's
// point of view: that seat's real hand plus a random completion of the other
// hands consistent with known hand sizes and inferred voids.
func determinize(r *game.Room, seat int, rng *rand.Rand) *searchState {
	g := r.Game

	seen := make(map[string]bool)
	me := r.PlayerBySeat(seat)
	for _, c := range me.Hand {
		seen[c.ID] = true
	}
	for _, ct := range g.CompletedTricks {
		for _, tp := range ct.Cards {
			seen[tp.Card.ID] = true
		}
	}
	for _, tp := range g.CurrentTrick {
		seen[tp.Card.ID] = true
	}
	if g.Upcard != nil {
		seen[g.Upcard.ID] = true
	}
	if g.BlockedSuit != "" && len(g.Kitty) == 4 {
		// The turned-down upcard sits on top of the kitty and was public.
		seen[g.Kitty[3].ID] = true
	}

	var unseen []deck.Card
	for _, c := range deck.FullDeck() {
		if !seen[c.ID] {
			unseen = append(unseen, c)
		}
	}
	rng.Shuffle(len(unseen), func(i, j int) {
		unseen[i], unseen[j] = unseen[j], unseen[i]
	})

	voids := voidSuits(g, func(id string) int {
		if p := r.PlayerByID(id); p != nil {
			return p.SeatIndex
		}
		return -1
	})

	st := &searchState{
		trump:      g.Trump,
		turnSeat:   g.TurnSeat,
		sittingOut: g.SittingOutSeat,
	}
	st.hands[seat] = append([]deck.Card(nil), me.Hand...)
	for _, ct := range g.CompletedTricks {
		st.tricksWon[game.TeamOfSeat(ct.WinnerSeat)]++
	}
	for _, tp := range g.CurrentTrick {
		if p := r.PlayerByID(tp.PlayerID); p != nil {
			st.trick = append(st.trick, seatCard{seat: p.SeatIndex, card: tp.Card})
		}
	}

	// Fill the other seats largest-first, skipping void suits; if the pool
	// cannot satisfy a constraint, relax it rather than fail.
	type need struct {
		seat int
		n    int
	}
	var needs []need
	for s := 0; s < game.MaxPlayers; s++ {
		if s == seat {
			continue
		}
		if p := r.PlayerBySeat(s); p != nil {
			needs = append(needs, need{seat: s, n: len(p.Hand)})
		}
	}
	sort.Slice(needs, func(i, j int) bool { return needs[i].n > needs[j].n })

	taken := make([]bool, len(unseen))
	for _, nd := range needs {
		for dealt := 0; dealt < nd.n; dealt++ {
			pick := -1
			for i, c := range unseen {
				if taken[i] {
					continue
				}
				if voids[nd.seat] != nil && voids[nd.seat][c.EffectiveSuit(g.Trump)] {
					continue
				}
				pick = i
				break
			}
			if pick < 0 {
				for i := range unseen {
					if !taken[i] {
						pick = i
						break
					}
				}
			}
			if pick < 0 {
				break
			}
			taken[pick] = true
			st.hands[nd.seat] = append(st.hands[nd.seat], unseen[pick])
		}
	}

	return st
}
