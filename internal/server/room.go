package server

import (
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/lox/euchred/internal/bot"
	"github.com/lox/euchred/internal/game"
	"github.com/lox/euchred/internal/store"
)

// advanceCap bounds one scheduler pass so malformed state can never spin the
// room writer.
const advanceCap = 64

// roomActor is the single writer for one room. Every mutation, whether from
// a client command or the auto-advance scheduler, runs on its goroutine.
type roomActor struct {
	room     *game.Room
	cmds     chan func()
	done     chan struct{}
	sessions map[string]*Session
	clock    quartz.Clock
	rng      *rand.Rand
	bots     *bot.Engine
	store    *store.Store
	pacing   PacingSettings
	logger   *log.Logger

	// advancePending is true while a scheduler pass is in flight, including
	// while it waits on a pacing timer. Owned by the actor goroutine.
	advancePending bool
	closed         bool
}

func newRoomActor(room *game.Room, st *store.Store, clock quartz.Clock, rng *rand.Rand, engine *bot.Engine, pacing PacingSettings, logger *log.Logger) *roomActor {
	a := &roomActor{
		room:     room,
		cmds:     make(chan func(), 64),
		done:     make(chan struct{}),
		sessions: make(map[string]*Session),
		clock:    clock,
		rng:      rng,
		bots:     engine,
		store:    st,
		pacing:   pacing,
		logger:   logger.WithPrefix("room").With("room", room.Name),
	}
	go a.run()
	return a
}

func (a *roomActor) run() {
	for {
		select {
		case fn := <-a.cmds:
			fn()
		case <-a.done:
			return
		}
	}
}

// enqueue submits work to the actor goroutine, dropping it if the room has
// shut down.
func (a *roomActor) enqueue(fn func()) {
	select {
	case a.cmds <- fn:
	case <-a.done:
	}
}

// do runs fn on the actor goroutine and waits for it to complete.
func (a *roomActor) do(fn func()) {
	ran := make(chan struct{})
	a.enqueue(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
	case <-a.done:
	}
}

// attach binds a session to a seat, replacing any stale session for the same
// player.
func (a *roomActor) attach(sess *Session, playerID string, reconnect bool) {
	a.do(func() {
		if old, ok := a.sessions[playerID]; ok && old != sess {
			old.CloseWithCode(websocket.ClosePolicyViolation)
		}
		a.sessions[playerID] = sess

		p := a.room.PlayerByID(playerID)
		if p == nil {
			return
		}
		p.Connected = true

		if reconnect {
			a.broadcastInfo(p.Name + " reconnected")
		} else {
			a.broadcastInfo(p.Name + " joined the room")
		}
		a.persist()
		a.broadcastState()
		a.kickAdvance()
	})
}

// detach marks the seat disconnected but never evicts the player. The
// scheduler substitutes deterministic moves until they return.
func (a *roomActor) detach(sess *Session) {
	a.enqueue(func() {
		if a.sessions[sess.playerID] != sess {
			return
		}
		delete(a.sessions, sess.playerID)

		p := a.room.PlayerByID(sess.playerID)
		if p == nil {
			return
		}
		p.Connected = false
		a.logger.Info("player disconnected", "player", p.Name)

		a.broadcastInfo(p.Name + " disconnected")
		a.persist()
		a.broadcastState()
		a.kickAdvance()
	})
}

// handleClientAction validates and applies one action from a live session.
// Errors go back to the offending session only; state is untouched.
func (a *roomActor) handleClientAction(sess *Session, msg ClientMessage) {
	a.enqueue(func() {
		action := game.Action{
			Type:           msg.Action,
			PlayerID:       sess.playerID,
			Suit:           msg.Suit,
			CardID:         msg.CardID,
			Alone:          msg.Alone,
			TargetPlayerID: msg.TargetPlayerID,
			SeatIndex:      msg.SeatIndex,
			BotDifficulty:  msg.BotDifficulty,
		}

		infos, err := a.room.Apply(action, a.rng)
		if err != nil {
			a.logger.Debug("action rejected", "player", sess.playerID, "action", msg.Action, "error", err)
			sess.Send(errorMessage(err.Error()))
			return
		}

		a.room.UpdatedAt = time.Now()
		a.persist()
		for _, info := range infos {
			a.broadcastInfo(info)
		}
		a.broadcastState()
		a.kickAdvance()
	})
}

// snapshotSync returns a personalized snapshot, for use by HTTP handlers.
func (a *roomActor) snapshotSync(recipientID string) *RoomSnapshot {
	var snap *RoomSnapshot
	a.do(func() {
		snap = snapshotFor(a.room, recipientID)
	})
	return snap
}

// shutdown closes every session with the given close code and stops the
// actor goroutine.
func (a *roomActor) shutdown(code int) {
	a.do(func() {
		a.closed = true
		for _, sess := range a.sessions {
			sess.CloseWithCode(code)
		}
		a.sessions = make(map[string]*Session)
	})
	close(a.done)
}

func (a *roomActor) persist() {
	if err := a.store.SaveRoom(a.room.Name, a.room); err != nil {
		a.logger.Error("failed to persist room", "error", err)
	}
}

func (a *roomActor) broadcastInfo(text string) {
	for _, sess := range a.sessions {
		sess.Send(infoMessage(text))
	}
}

func (a *roomActor) broadcastState() {
	for id, sess := range a.sessions {
		sess.Send(&ServerMessage{Type: ServerTypeState, State: snapshotFor(a.room, id)})
	}
}

// kickAdvance starts a scheduler pass unless one is already in flight.
// Safe to call after every mutation; re-entry is coalesced.
func (a *roomActor) kickAdvance() {
	if a.advancePending || a.closed {
		return
	}
	a.advancePending = true
	a.scheduleStep(advanceCap)
}

// scheduleStep inspects the room and either arms a timer for the next
// automated move or ends the pass.
func (a *roomActor) scheduleStep(stepsLeft int) {
	if a.closed || stepsLeft <= 0 {
		a.finishPass(stepsLeft <= 0)
		return
	}

	delay, ok := a.nextMoveDelay()
	if !ok {
		a.finishPass(false)
		return
	}

	a.clock.AfterFunc(delay, func() {
		a.enqueue(func() {
			a.fireStep(stepsLeft)
		})
	})
}

// nextMoveDelay decides whether an automated move is due and how long to
// wait before making it.
func (a *roomActor) nextMoveDelay() (time.Duration, bool) {
	r := a.room
	g := r.Game
	if r.Status != game.StatusPlaying || g == nil {
		return 0, false
	}

	switch g.Phase {
	case game.PhaseGameOver:
		return 0, false
	case game.PhaseHandOver:
		if !a.anyBotSeated() {
			return 0, false
		}
		return time.Duration(a.pacing.HandOverPauseMs) * time.Millisecond, true
	}

	p := r.PlayerBySeat(g.TurnSeat)
	if p == nil {
		return 0, false
	}
	if p.Connected && !p.IsBot {
		return 0, false
	}

	delay := time.Duration(a.pacing.DisconnectedMs) * time.Millisecond
	if p.IsBot {
		delay = a.thinkDelay()
	}

	// A just-resolved trick gets a longer pause so clients can animate the
	// capture before the next card is played.
	if g.Phase == game.PhasePlaying && len(g.CurrentTrick) == 0 && len(g.CompletedTricks) > 0 {
		if pause := time.Duration(a.pacing.PostTrickPauseMs) * time.Millisecond; pause > delay {
			delay = pause
		}
	}
	return delay, true
}

func (a *roomActor) thinkDelay() time.Duration {
	switch a.room.BotDifficulty {
	case game.DifficultyEasy:
		return time.Duration(a.pacing.ThinkEasyMs) * time.Millisecond
	case game.DifficultyHard:
		return time.Duration(a.pacing.ThinkHardMs) * time.Millisecond
	default:
		return time.Duration(a.pacing.ThinkMediumMs) * time.Millisecond
	}
}

// fireStep executes exactly one automated move. The room may have changed
// while the timer was pending, so due-ness is re-checked from scratch.
func (a *roomActor) fireStep(stepsLeft int) {
	if a.closed {
		a.advancePending = false
		return
	}
	if _, ok := a.nextMoveDelay(); !ok {
		a.finishPass(false)
		return
	}

	action, ok := a.chooseAutomatedAction()
	if !ok {
		a.finishPass(false)
		return
	}

	infos, err := a.room.Apply(action, a.rng)
	if err != nil {
		// A failed automated move means the fallback policies disagree with
		// the engine; stop rather than loop on the same state.
		a.logger.Error("automated action failed", "action", action.Type, "error", err)
		a.advancePending = false
		return
	}

	a.room.UpdatedAt = time.Now()
	a.persist()
	for _, info := range infos {
		a.broadcastInfo(info)
	}
	a.broadcastState()
	a.scheduleStep(stepsLeft - 1)
}

// finishPass ends the current pass. A recheck covers wakeups that arrived
// while the pass was in flight, and restart gives a fresh budget after the
// cap so long bot-only matches keep progressing.
func (a *roomActor) finishPass(restart bool) {
	a.advancePending = false
	if restart {
		a.kickAdvance()
	}
}

func (a *roomActor) anyBotSeated() bool {
	for _, p := range a.room.Players {
		if p.IsBot {
			return true
		}
	}
	return false
}

// chooseAutomatedAction picks the move for the seat that is due: the bot
// engine for bots, deterministic fallbacks for disconnected humans.
func (a *roomActor) chooseAutomatedAction() (game.Action, bool) {
	r := a.room
	g := r.Game

	if g.Phase == game.PhaseHandOver {
		for _, p := range r.Players {
			if p.IsBot {
				return game.Action{Type: game.ActionStartNextHand, PlayerID: p.ID}, true
			}
		}
		return game.Action{}, false
	}

	p := r.PlayerBySeat(g.TurnSeat)
	if p == nil {
		return game.Action{}, false
	}

	if p.IsBot {
		return a.bots.ChooseAction(r, p.SeatIndex)
	}

	// Disconnected human: pass in bidding, discard the first card, play the
	// first legal card.
	switch g.Phase {
	case game.PhaseBiddingRound1, game.PhaseBiddingRound2:
		return game.Action{Type: game.ActionPass, PlayerID: p.ID}, true
	case game.PhaseDealerDiscard:
		if len(p.Hand) == 0 {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionDiscard, PlayerID: p.ID, CardID: p.Hand[0].ID}, true
	case game.PhasePlaying:
		legal := r.LegalPlays(p.ID)
		if len(legal) == 0 {
			return game.Action{}, false
		}
		return game.Action{Type: game.ActionPlayCard, PlayerID: p.ID, CardID: legal[0].ID}, true
	}
	return game.Action{}, false
}
