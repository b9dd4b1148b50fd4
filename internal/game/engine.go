package game

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/lox/euchred/internal/deck"
)

// ActionType enumerates the wire actions a seat can take
type ActionType string

const (
	ActionPass             ActionType = "pass"
	ActionOrderUp          ActionType = "order-up"
	ActionChooseTrump      ActionType = "choose-trump"
	ActionDiscard          ActionType = "discard"
	ActionPlayCard         ActionType = "play-card"
	ActionStartNextHand    ActionType = "start-next-hand"
	ActionRestartMatch     ActionType = "restart-match"
	ActionAddBot           ActionType = "add-bot"
	ActionRemoveBot        ActionType = "remove-bot"
	ActionSetSeat          ActionType = "set-seat"
	ActionSetBotDifficulty ActionType = "set-bot-difficulty"
	ActionStartRoom        ActionType = "start-room"
)

// Action is a request by one player to mutate the room
type Action struct {
	Type           ActionType
	PlayerID       string
	Suit           deck.Suit
	CardID         string
	Alone          bool
	TargetPlayerID string
	SeatIndex      int
	BotDifficulty  Difficulty
}

// Apply validates and executes an action against the room. It returns
// human-readable info events for broadcast. On error the room is unchanged.
func (r *Room) Apply(a Action, rng *rand.Rand) ([]string, error) {
	actor := r.PlayerByID(a.PlayerID)
	if actor == nil {
		return nil, ErrPlayerNotFound
	}

	switch a.Type {
	case ActionPass:
		return r.applyPass(actor, rng)
	case ActionOrderUp:
		return r.applyOrderUp(actor, a.Alone)
	case ActionChooseTrump:
		return r.applyChooseTrump(actor, a.Suit, a.Alone)
	case ActionDiscard:
		return r.applyDiscard(actor, a.CardID)
	case ActionPlayCard:
		return r.applyPlayCard(actor, a.CardID)
	case ActionStartNextHand:
		return r.applyStartNextHand(rng)
	case ActionRestartMatch:
		return r.applyRestartMatch(rng)
	case ActionAddBot:
		return r.applyAddBot(actor)
	case ActionRemoveBot:
		return r.applyRemoveBot(actor)
	case ActionSetSeat:
		return r.applySetSeat(actor, a.TargetPlayerID, a.SeatIndex)
	case ActionSetBotDifficulty:
		return r.applySetBotDifficulty(actor, a.BotDifficulty)
	case ActionStartRoom:
		return r.applyStartRoom(actor, rng)
	default:
		return nil, ErrUnknownAction
	}
}

// Deal starts a fresh hand: shuffle, five cards per seat, turn the upcard,
// bury the kitty. Bidding opens left of the dealer.
func (r *Room) Deal(rng *rand.Rand) {
	d := deck.New(rng)
	d.Shuffle()

	for seat := 0; seat < r.MaxPlayers; seat++ {
		p := r.PlayerBySeat(seat)
		p.Hand = d.DrawN(5)
		SortHand(p.Hand)
	}

	up, _ := d.Draw()
	handNumber := 1
	dealer := 0
	if r.Game != nil {
		handNumber = r.Game.HandNumber + 1
		dealer = r.Game.DealerSeat
	} else {
		dealer = rng.IntN(r.MaxPlayers)
	}

	r.Game = &Game{
		Phase:          PhaseBiddingRound1,
		DealerSeat:     dealer,
		TurnSeat:       NextSeat(dealer),
		Upcard:         &up,
		Kitty:          d.DrawN(3),
		MakerTeam:      -1,
		SittingOutSeat: -1,
		HandNumber:     handNumber,
	}
	r.UpdatedAt = time.Now()
}

// redeal throws the hand in and deals again with the dealer rotated
func (r *Room) redeal(rng *rand.Rand) {
	r.Game.DealerSeat = NextSeat(r.Game.DealerSeat)
	r.Deal(rng)
}

func (r *Room) requirePhase(phases ...Phase) error {
	if r.Status != StatusPlaying || r.Game == nil {
		return ErrWrongPhase
	}
	for _, ph := range phases {
		if r.Game.Phase == ph {
			return nil
		}
	}
	return ErrWrongPhase
}

func (r *Room) requireTurn(actor *Player) error {
	if actor.SeatIndex != r.Game.TurnSeat {
		return ErrNotYourTurn
	}
	return nil
}

func (r *Room) applyPass(actor *Player, rng *rand.Rand) ([]string, error) {
	if err := r.requirePhase(PhaseBiddingRound1, PhaseBiddingRound2); err != nil {
		return nil, err
	}
	if err := r.requireTurn(actor); err != nil {
		return nil, err
	}

	g := r.Game
	wasDealer := actor.SeatIndex == g.DealerSeat
	infos := []string{fmt.Sprintf("%s passes", actor.Name)}

	if g.Phase == PhaseBiddingRound1 {
		if wasDealer {
			// Upcard is turned down; its suit may not be called in round 2.
			g.BlockedSuit = g.Upcard.Suit
			g.Kitty = append(g.Kitty, *g.Upcard)
			g.Upcard = nil
			g.Phase = PhaseBiddingRound2
			infos = append(infos, fmt.Sprintf("%s turned down; name a different suit", g.BlockedSuit))
		}
		g.TurnSeat = NextSeat(actor.SeatIndex)
	} else {
		if wasDealer {
			infos = append(infos, "all four passed; throwing the hand in")
			r.redeal(rng)
			return infos, nil
		}
		g.TurnSeat = NextSeat(actor.SeatIndex)
	}

	return infos, nil
}

func (r *Room) applyOrderUp(actor *Player, alone bool) ([]string, error) {
	if err := r.requirePhase(PhaseBiddingRound1); err != nil {
		return nil, err
	}
	if err := r.requireTurn(actor); err != nil {
		return nil, err
	}

	g := r.Game
	dealer := r.PlayerBySeat(g.DealerSeat)
	dealer.Hand = append(dealer.Hand, *g.Upcard)
	SortHand(dealer.Hand)

	g.Trump = g.Upcard.Suit
	g.Upcard = nil
	r.setMaker(actor, alone)
	g.TurnSeat = g.DealerSeat
	g.Phase = PhaseDealerDiscard

	info := fmt.Sprintf("%s orders up %s", actor.Name, g.Trump)
	if alone {
		info = fmt.Sprintf("%s orders up %s and goes alone", actor.Name, g.Trump)
	}
	return []string{info}, nil
}

func (r *Room) applyChooseTrump(actor *Player, suit deck.Suit, alone bool) ([]string, error) {
	if err := r.requirePhase(PhaseBiddingRound2); err != nil {
		return nil, err
	}
	if err := r.requireTurn(actor); err != nil {
		return nil, err
	}
	if !suit.Valid() {
		return nil, ErrInvalidSuit
	}
	g := r.Game
	if suit == g.BlockedSuit {
		return nil, ErrBlockedSuit
	}

	g.Trump = suit
	r.setMaker(actor, alone)
	g.TurnSeat = g.NextActiveSeat(g.DealerSeat)
	g.Phase = PhasePlaying

	info := fmt.Sprintf("%s calls %s", actor.Name, suit)
	if alone {
		info = fmt.Sprintf("%s calls %s and goes alone", actor.Name, suit)
	}
	return []string{info}, nil
}

// setMaker records the trump caller and loner bookkeeping
func (r *Room) setMaker(actor *Player, alone bool) {
	g := r.Game
	g.MakerTeam = actor.Team()
	g.CalledByPlayerID = actor.ID
	if alone {
		g.GoingAlonePlayerID = actor.ID
		g.SittingOutSeat = PartnerSeat(actor.SeatIndex)
	}
}

func (r *Room) applyDiscard(actor *Player, cardID string) ([]string, error) {
	if err := r.requirePhase(PhaseDealerDiscard); err != nil {
		return nil, err
	}
	g := r.Game
	if actor.SeatIndex != g.DealerSeat {
		return nil, ErrNotYourTurn
	}

	idx := cardIndex(actor.Hand, cardID)
	if idx < 0 {
		return nil, ErrCardNotInHand
	}
	// The discard is buried in the kitty, face down.
	g.Kitty = append(g.Kitty, actor.Hand[idx])
	actor.Hand = append(actor.Hand[:idx], actor.Hand[idx+1:]...)

	g.TurnSeat = g.NextActiveSeat(g.DealerSeat)
	g.Phase = PhasePlaying

	return []string{fmt.Sprintf("%s discards", actor.Name)}, nil
}

func (r *Room) applyPlayCard(actor *Player, cardID string) ([]string, error) {
	if err := r.requirePhase(PhasePlaying); err != nil {
		return nil, err
	}
	if err := r.requireTurn(actor); err != nil {
		return nil, err
	}
	g := r.Game

	idx := cardIndex(actor.Hand, cardID)
	if idx < 0 {
		return nil, ErrCardNotInHand
	}
	card := actor.Hand[idx]

	if !containsCard(deck.LegalPlays(actor.Hand, g.LeadCard(), g.Trump), cardID) {
		return nil, ErrMustFollowSuit
	}

	actor.Hand = append(actor.Hand[:idx], actor.Hand[idx+1:]...)
	g.CurrentTrick = append(g.CurrentTrick, TrickPlay{PlayerID: actor.ID, Card: card})

	if len(g.CurrentTrick) < g.ActiveSeatCount() {
		g.TurnSeat = g.NextActiveSeat(actor.SeatIndex)
		return nil, nil
	}

	return r.resolveTrick()
}

// resolveTrick closes out a full trick and, after the fifth, scores the hand
func (r *Room) resolveTrick() ([]string, error) {
	g := r.Game

	cards := make([]deck.Card, len(g.CurrentTrick))
	for i, tp := range g.CurrentTrick {
		cards[i] = tp.Card
	}
	winIdx := deck.TrickWinnerIdx(cards, g.Trump)
	winner := r.PlayerByID(g.CurrentTrick[winIdx].PlayerID)

	g.CompletedTricks = append(g.CompletedTricks, CompletedTrick{
		Index:      g.TrickIndex,
		WinnerSeat: winner.SeatIndex,
		Cards:      g.CurrentTrick,
	})
	g.TrickIndex++
	g.CurrentTrick = nil
	g.TurnSeat = winner.SeatIndex

	infos := []string{fmt.Sprintf("%s takes trick %d", winner.Name, g.TrickIndex)}

	if g.TrickIndex >= 5 {
		infos = append(infos, r.finalizeHand()...)
	}
	return infos, nil
}

// finalizeHand scores a completed hand and either ends the match or parks the
// room in hand-over awaiting the next deal.
func (r *Room) finalizeHand() []string {
	g := r.Game

	makerTricks := 0
	for _, ct := range g.CompletedTricks {
		if TeamOfSeat(ct.WinnerSeat) == g.MakerTeam {
			makerTricks++
		}
	}
	defenderTricks := 5 - makerTricks

	summary := &HandSummary{
		MakerTeam:      g.MakerTeam,
		MakerTricks:    makerTricks,
		DefenderTricks: defenderTricks,
	}

	switch {
	case makerTricks <= 2:
		summary.PointsAwarded = 2
		summary.AwardedTo = 1 - g.MakerTeam
	case makerTricks == 5 && g.GoingAlonePlayerID != "":
		summary.PointsAwarded = 4
		summary.AwardedTo = g.MakerTeam
	case makerTricks == 5:
		summary.PointsAwarded = 2
		summary.AwardedTo = g.MakerTeam
	default:
		summary.PointsAwarded = 1
		summary.AwardedTo = g.MakerTeam
	}

	if summary.AwardedTo == 0 {
		r.Score.Team0 += summary.PointsAwarded
	} else {
		r.Score.Team1 += summary.PointsAwarded
	}
	g.HandSummary = summary

	var infos []string
	if makerTricks <= 2 {
		infos = append(infos, fmt.Sprintf("euchred! %s takes 2 points", teamName(summary.AwardedTo)))
	} else {
		infos = append(infos, fmt.Sprintf("%s makes it with %d tricks for %d point(s)",
			teamName(summary.AwardedTo), makerTricks, summary.PointsAwarded))
	}

	if r.Score.Team0 >= r.TargetScore || r.Score.Team1 >= r.TargetScore {
		g.Phase = PhaseGameOver
		winner := 0
		if r.Score.Team1 > r.Score.Team0 {
			winner = 1
		}
		infos = append(infos, fmt.Sprintf("%s wins the match %d-%d",
			teamName(winner), r.Score.ForTeam(winner), r.Score.ForTeam(1-winner)))
	} else {
		g.Phase = PhaseHandOver
	}
	return infos
}

func (r *Room) applyStartNextHand(rng *rand.Rand) ([]string, error) {
	if err := r.requirePhase(PhaseHandOver); err != nil {
		return nil, err
	}
	r.Game.DealerSeat = NextSeat(r.Game.DealerSeat)
	r.Deal(rng)
	return []string{fmt.Sprintf("hand %d dealt", r.Game.HandNumber)}, nil
}

func (r *Room) applyRestartMatch(rng *rand.Rand) ([]string, error) {
	if err := r.requirePhase(PhaseGameOver); err != nil {
		return nil, err
	}
	r.Score = Score{}
	r.Game.DealerSeat = NextSeat(r.Game.DealerSeat)
	r.Game.HandNumber = 0
	r.Deal(rng)
	return []string{"new match started"}, nil
}

func (r *Room) requireCreatorLobby(actor *Player) error {
	if !r.IsCreator(actor.ID) {
		return ErrNotCreator
	}
	if r.Status != StatusWaiting {
		return ErrNotInLobby
	}
	return nil
}

func (r *Room) applyAddBot(actor *Player) ([]string, error) {
	if err := r.requireCreatorLobby(actor); err != nil {
		return nil, err
	}
	name := fmt.Sprintf("Bot %d", r.BotCount+1)
	bot, err := r.AddPlayer(name, true)
	if err != nil {
		return nil, err
	}
	r.BotCount++
	return []string{fmt.Sprintf("%s joined seat %d", bot.Name, bot.SeatIndex)}, nil
}

func (r *Room) applyRemoveBot(actor *Player) ([]string, error) {
	if err := r.requireCreatorLobby(actor); err != nil {
		return nil, err
	}
	for i := len(r.Players) - 1; i >= 0; i-- {
		if r.Players[i].IsBot {
			name := r.Players[i].Name
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			r.BotCount--
			return []string{fmt.Sprintf("%s removed", name)}, nil
		}
	}
	return nil, ErrNoBotToRemove
}

func (r *Room) applySetSeat(actor *Player, targetID string, seat int) ([]string, error) {
	if err := r.requireCreatorLobby(actor); err != nil {
		return nil, err
	}
	if seat < 0 || seat >= r.MaxPlayers {
		return nil, ErrInvalidSeat
	}
	target := r.PlayerByID(targetID)
	if target == nil {
		return nil, ErrPlayerNotFound
	}
	if other := r.PlayerBySeat(seat); other != nil && other != target {
		other.SeatIndex = target.SeatIndex
	}
	target.SeatIndex = seat
	return []string{fmt.Sprintf("%s moved to seat %d", target.Name, seat)}, nil
}

func (r *Room) applySetBotDifficulty(actor *Player, d Difficulty) ([]string, error) {
	if !r.IsCreator(actor.ID) {
		return nil, ErrNotCreator
	}
	if !d.Valid() {
		return nil, fmt.Errorf("invalid bot difficulty %q", d)
	}
	r.BotDifficulty = d
	return []string{fmt.Sprintf("bot difficulty set to %s", d)}, nil
}

func (r *Room) applyStartRoom(actor *Player, rng *rand.Rand) ([]string, error) {
	if err := r.requireCreatorLobby(actor); err != nil {
		return nil, err
	}
	if len(r.Players) != r.MaxPlayers {
		return nil, ErrNeedFourPlayers
	}
	r.Status = StatusPlaying
	r.Deal(rng)
	return []string{fmt.Sprintf("game on: hand %d dealt", r.Game.HandNumber)}, nil
}

func teamName(team int) string {
	if team == 0 {
		return "Team A"
	}
	return "Team B"
}

func cardIndex(hand []deck.Card, id string) int {
	for i, c := range hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func containsCard(cards []deck.Card, id string) bool {
	for _, c := range cards {
		if c.ID == id {
			return true
		}
	}
	return false
}
