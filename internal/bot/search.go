package bot

import (
	"math"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/game"
)

type seatCard struct {
	seat int
	card deck.Card
}

// searchState is a perfect-information position used by the minimax search.
// It is a value-ish struct: clone() before mutating a child node.
type searchState struct {
	hands      [game.MaxPlayers][]deck.Card
	trump      deck.Suit
	trick      []seatCard
	turnSeat   int
	sittingOut int
	tricksWon  [2]int
}

func (st *searchState) clone() *searchState {
	out := &searchState{
		trump:      st.trump,
		turnSeat:   st.turnSeat,
		sittingOut: st.sittingOut,
		tricksWon:  st.tricksWon,
	}
	for i := range st.hands {
		out.hands[i] = append([]deck.Card(nil), st.hands[i]...)
	}
	out.trick = append([]seatCard(nil), st.trick...)
	return out
}

func (st *searchState) activeSeatCount() int {
	if st.sittingOut >= 0 {
		return game.MaxPlayers - 1
	}
	return game.MaxPlayers
}

func (st *searchState) nextActiveSeat(seat int) int {
	next := game.NextSeat(seat)
	for next == st.sittingOut {
		next = game.NextSeat(next)
	}
	return next
}

func (st *searchState) leadCard() *deck.Card {
	if len(st.trick) == 0 {
		return nil
	}
	return &st.trick[0].card
}

func (st *searchState) done() bool {
	for i, h := range st.hands {
		if i != st.sittingOut && len(h) > 0 {
			return false
		}
	}
	return len(st.trick) == 0
}

// play applies one card for the turn seat, resolving the trick when full
func (st *searchState) play(card deck.Card) {
	seat := st.turnSeat
	hand := st.hands[seat]
	for i, c := range hand {
		if c.ID == card.ID {
			st.hands[seat] = append(hand[:i], hand[i+1:]...)
			break
		}
	}
	st.trick = append(st.trick, seatCard{seat: seat, card: card})

	if len(st.trick) < st.activeSeatCount() {
		st.turnSeat = st.nextActiveSeat(seat)
		return
	}

	cards := make([]deck.Card, len(st.trick))
	for i, sc := range st.trick {
		cards[i] = sc.card
	}
	winIdx := deck.TrickWinnerIdx(cards, st.trump)
	winner := st.trick[winIdx].seat
	st.tricksWon[game.TeamOfSeat(winner)]++
	st.trick = nil
	st.turnSeat = winner
}

// evaluate scores the position for botTeam: dominated by the trick
// differential, with a residual term for material left in hand.
func (st *searchState) evaluate(botTeam int) float64 {
	score := 100 * float64(st.tricksWon[botTeam]-st.tricksWon[1-botTeam])

	residual := 0.0
	for seat, hand := range st.hands {
		if seat == st.sittingOut {
			continue
		}
		sign := -1.0
		if game.TeamOfSeat(seat) == botTeam {
			sign = 1.0
		}
		for _, c := range hand {
			residual += sign * float64(deck.Strength(c, st.trump, c.Suit))
		}
	}
	return score + 0.1*residual
}

// alphabeta runs a depth-limited minimax: seats on botTeam maximize, the
// others minimize.
func alphabeta(st *searchState, depth int, alpha, beta float64, botTeam int) float64 {
	if depth <= 0 || st.done() {
		return st.evaluate(botTeam)
	}

	moves := deck.LegalPlays(st.hands[st.turnSeat], st.leadCard(), st.trump)
	if len(moves) == 0 {
		return st.evaluate(botTeam)
	}

	maximizing := game.TeamOfSeat(st.turnSeat) == botTeam
	best := math.Inf(-1)
	if !maximizing {
		best = math.Inf(1)
	}

	for _, move := range moves {
		child := st.clone()
		child.play(move)
		v := alphabeta(child, depth-1, alpha, beta, botTeam)

		if maximizing {
			if v > best {
				best = v
			}
			if best > alpha {
				alpha = best
			}
		} else {
			if v < best {
				best = v
			}
			if best < beta {
				beta = best
			}
		}
		if beta <= alpha {
			break
		}
	}
	return best
}
