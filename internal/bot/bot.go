// Package bot drives AI-controlled seats with a determinized-sample minimax:
// unknown opponent hands are sampled consistently with observed voids, and
// each candidate move is scored by alpha-beta search across the samples.
package bot

import (
	"math"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/game"
)

// Engine produces one action at a time for a bot seat
type Engine struct {
	rng    *rand.Rand
	logger *log.Logger
}

// New creates a bot engine. The RNG drives determinization and the random
// move rate; inject a seeded one for reproducible play.
func New(rng *rand.Rand, logger *log.Logger) *Engine {
	return &Engine{
		rng:    rng,
		logger: logger.WithPrefix("bot"),
	}
}

// ChooseAction returns the bot's move for the current phase. The second
// return is false when the phase needs no per-seat decision.
func (e *Engine) ChooseAction(r *game.Room, seat int) (game.Action, bool) {
	g := r.Game
	if g == nil {
		return game.Action{}, false
	}
	p := r.PlayerBySeat(seat)
	if p == nil {
		return game.Action{}, false
	}
	settings := SettingsFor(r.BotDifficulty)

	switch g.Phase {
	case game.PhaseBiddingRound1:
		return e.chooseBidRound1(r, p, settings), true
	case game.PhaseBiddingRound2:
		return e.chooseBidRound2(r, p, settings), true
	case game.PhaseDealerDiscard:
		return e.chooseDiscard(r, p), true
	case game.PhasePlaying:
		return e.choosePlay(r, p, settings), true
	default:
		return game.Action{}, false
	}
}

func (e *Engine) chooseBidRound1(r *game.Room, p *game.Player, settings Settings) game.Action {
	score := e.scoreCall(r, p.SeatIndex, r.Game.Upcard.Suit, true, settings)
	e.logger.Debug("round-1 bid evaluated", "seat", p.SeatIndex, "suit", r.Game.Upcard.Suit, "score", score)

	if score >= settings.BidThreshold {
		return game.Action{
			Type:     game.ActionOrderUp,
			PlayerID: p.ID,
			Alone:    score >= settings.BidThreshold+aloneMargin,
		}
	}
	return game.Action{Type: game.ActionPass, PlayerID: p.ID}
}

func (e *Engine) chooseBidRound2(r *game.Room, p *game.Player, settings Settings) game.Action {
	bestScore := math.Inf(-1)
	var bestSuit deck.Suit
	for _, suit := range deck.Suits {
		if suit == r.Game.BlockedSuit {
			continue
		}
		score := e.scoreCall(r, p.SeatIndex, suit, false, settings)
		if score > bestScore {
			bestScore = score
			bestSuit = suit
		}
	}
	e.logger.Debug("round-2 bid evaluated", "seat", p.SeatIndex, "suit", bestSuit, "score", bestScore)

	if bestScore >= settings.BidThreshold {
		return game.Action{
			Type:     game.ActionChooseTrump,
			PlayerID: p.ID,
			Suit:     bestSuit,
			Alone:    bestScore >= settings.BidThreshold+aloneMargin,
		}
	}
	return game.Action{Type: game.ActionPass, PlayerID: p.ID}
}

// scoreCall samples the position that would follow calling trump and returns
// the average search value for the bot's team.
func (e *Engine) scoreCall(r *game.Room, seat int, trump deck.Suit, pickUp bool, settings Settings) float64 {
	g := r.Game
	botTeam := game.TeamOfSeat(seat)

	total := 0.0
	for s := 0; s < settings.SampleCount; s++ {
		st := determinize(r, seat, e.rng)
		st.trump = trump
		st.sittingOut = -1
		st.turnSeat = st.nextActiveSeat(g.DealerSeat)

		if pickUp && g.Upcard != nil {
			// The dealer picks up the upcard and sheds their weakest card.
			dealer := g.DealerSeat
			st.hands[dealer] = append(st.hands[dealer], *g.Upcard)
			drop := weakestDiscard(st.hands[dealer], trump)
			st.hands[dealer] = removeCard(st.hands[dealer], drop.ID)
		}

		total += alphabeta(st, settings.SearchDepth, math.Inf(-1), math.Inf(1), botTeam)
	}
	return total / float64(settings.SampleCount)
}

func (e *Engine) chooseDiscard(r *game.Room, p *game.Player) game.Action {
	card := weakestDiscard(p.Hand, r.Game.Trump)
	return game.Action{Type: game.ActionDiscard, PlayerID: p.ID, CardID: card.ID}
}

// weakestDiscard prefers the lowest off-trump card; a hand of pure trump
// sheds its weakest trump instead.
func weakestDiscard(hand []deck.Card, trump deck.Suit) deck.Card {
	best := deck.Card{}
	bestVal := math.MaxInt
	for _, c := range hand {
		if c.IsTrump(trump) {
			continue
		}
		if v := c.LeadValue(); v < bestVal {
			bestVal = v
			best = c
		}
	}
	if best.ID != "" {
		return best
	}
	for _, c := range hand {
		if v := deck.Strength(c, trump, trump); v < bestVal {
			bestVal = v
			best = c
		}
	}
	return best
}

func (e *Engine) choosePlay(r *game.Room, p *game.Player, settings Settings) game.Action {
	legal := r.LegalPlays(p.ID)
	if len(legal) == 0 {
		return game.Action{Type: game.ActionPass, PlayerID: p.ID}
	}
	if len(legal) == 1 {
		return game.Action{Type: game.ActionPlayCard, PlayerID: p.ID, CardID: legal[0].ID}
	}
	if settings.RandomMoveRate > 0 && e.rng.Float64() < settings.RandomMoveRate {
		pick := legal[e.rng.IntN(len(legal))]
		return game.Action{Type: game.ActionPlayCard, PlayerID: p.ID, CardID: pick.ID}
	}

	botTeam := p.Team()
	totals := make([]float64, len(legal))
	for s := 0; s < settings.SampleCount; s++ {
		st := determinize(r, p.SeatIndex, e.rng)
		for i, move := range legal {
			child := st.clone()
			child.play(move)
			totals[i] += alphabeta(child, settings.SearchDepth-1, math.Inf(-1), math.Inf(1), botTeam)
		}
	}

	bestIdx := 0
	for i := 1; i < len(totals); i++ {
		if totals[i] > totals[bestIdx] {
			bestIdx = i
		}
	}
	e.logger.Debug("play chosen", "seat", p.SeatIndex, "card", legal[bestIdx].ID, "score", totals[bestIdx])
	return game.Action{Type: game.ActionPlayCard, PlayerID: p.ID, CardID: legal[bestIdx].ID}
}

func removeCard(hand []deck.Card, id string) []deck.Card {
	for i, c := range hand {
		if c.ID == id {
			return append(hand[:i], hand[i+1:]...)
		}
	}
	return hand
}
