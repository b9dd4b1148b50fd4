package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/euchred/internal/deck"
	"github.com/lox/euchred/internal/randutil"
)

func fixtureRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom("table", "", DifficultyMedium, 10)
	for _, name := range []string{"P0", "P1", "P2", "P3"} {
		p, err := r.AddPlayer(name, false)
		require.NoError(t, err)
		p.Connected = true
	}
	r.CreatorPlayerID = r.Players[0].ID
	return r
}

func card(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.NewCard(suit, rank)
}

func hand(cards ...deck.Card) []deck.Card {
	return cards
}

// play applies a play-card action and fails the test on error.
func play(t *testing.T, r *Room, seat int, cardID string) {
	t.Helper()
	p := r.PlayerBySeat(seat)
	_, err := r.Apply(Action{Type: ActionPlayCard, PlayerID: p.ID, CardID: cardID}, nil)
	require.NoError(t, err, "seat %d playing %s", seat, cardID)
}

// totalCards counts every card reachable in the room state.
func totalCards(r *Room) int {
	n := 0
	for _, p := range r.Players {
		n += len(p.Hand)
	}
	g := r.Game
	n += len(g.CurrentTrick) + len(g.Kitty)
	if g.Upcard != nil {
		n++
	}
	for _, ct := range g.CompletedTricks {
		n += len(ct.Cards)
	}
	return n
}

func TestStartRoomDealsHand(t *testing.T) {
	r := fixtureRoom(t)
	rng := randutil.New(11)

	_, err := r.Apply(Action{Type: ActionStartRoom, PlayerID: r.Players[0].ID}, rng)
	require.NoError(t, err)

	assert.Equal(t, StatusPlaying, r.Status)
	require.NotNil(t, r.Game)
	assert.Equal(t, PhaseBiddingRound1, r.Game.Phase)
	assert.NotNil(t, r.Game.Upcard)
	assert.Len(t, r.Game.Kitty, 3)
	assert.Equal(t, 1, r.Game.HandNumber)
	assert.Equal(t, NextSeat(r.Game.DealerSeat), r.Game.TurnSeat)
	for _, p := range r.Players {
		assert.Len(t, p.Hand, 5)
	}
	assert.Equal(t, deck.Size, totalCards(r))
}

func TestStartRoomRequiresFourPlayers(t *testing.T) {
	r := NewRoom("table", "", DifficultyMedium, 10)
	p, err := r.AddPlayer("P0", false)
	require.NoError(t, err)
	r.CreatorPlayerID = p.ID

	_, err = r.Apply(Action{Type: ActionStartRoom, PlayerID: p.ID}, randutil.New(1))
	assert.ErrorIs(t, err, ErrNeedFourPlayers)
}

// orderUpFixture deals a fixed position: dealer seat 3, upcard hearts-9,
// every hand chosen so the scripted play below is forced.
func orderUpFixture(t *testing.T) *Room {
	t.Helper()
	r := fixtureRoom(t)
	r.Status = StatusPlaying

	r.Players[0].Hand = hand(
		card(deck.Spades, deck.Ace), card(deck.Spades, deck.King),
		card(deck.Clubs, deck.Ace), card(deck.Clubs, deck.King),
		card(deck.Diamonds, deck.Ace))
	r.Players[1].Hand = hand(
		card(deck.Hearts, deck.Jack), card(deck.Hearts, deck.Ace),
		card(deck.Diamonds, deck.Queen), card(deck.Clubs, deck.Ten),
		card(deck.Spades, deck.Nine))
	r.Players[2].Hand = hand(
		card(deck.Hearts, deck.King), card(deck.Hearts, deck.Queen),
		card(deck.Hearts, deck.Ten), card(deck.Spades, deck.Queen),
		card(deck.Diamonds, deck.King))
	r.Players[3].Hand = hand(
		card(deck.Clubs, deck.Nine), card(deck.Diamonds, deck.Nine),
		card(deck.Diamonds, deck.Ten), card(deck.Clubs, deck.Jack),
		card(deck.Spades, deck.Ten))

	up := card(deck.Hearts, deck.Nine)
	r.Game = &Game{
		Phase:          PhaseBiddingRound1,
		DealerSeat:     3,
		TurnSeat:       0,
		Upcard:         &up,
		Kitty:          hand(card(deck.Clubs, deck.Queen), card(deck.Diamonds, deck.Jack), card(deck.Spades, deck.Jack)),
		MakerTeam:      -1,
		SittingOutSeat: -1,
		HandNumber:     1,
	}
	return r
}

func TestOrderUpEuchre(t *testing.T) {
	r := orderUpFixture(t)
	g := r.Game

	_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.Players[0].ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, g.TurnSeat)

	_, err = r.Apply(Action{Type: ActionOrderUp, PlayerID: r.Players[1].ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseDealerDiscard, g.Phase)
	assert.Equal(t, deck.Hearts, g.Trump)
	assert.Equal(t, 1, g.MakerTeam)
	assert.Equal(t, 3, g.TurnSeat)
	assert.Len(t, r.Players[3].Hand, 6)

	_, err = r.Apply(Action{Type: ActionDiscard, PlayerID: r.Players[3].ID, CardID: "clubs-9"}, nil)
	require.NoError(t, err)
	assert.Equal(t, PhasePlaying, g.Phase)
	assert.Equal(t, 0, g.TurnSeat)
	assert.Len(t, r.Players[3].Hand, 5)

	// Trick 1: defenders take spades.
	play(t, r, 0, "spades-A")
	play(t, r, 1, "spades-9")
	play(t, r, 2, "spades-Q")
	play(t, r, 3, "spades-10")
	require.Len(t, g.CompletedTricks, 1)
	assert.Equal(t, 0, g.CompletedTricks[0].WinnerSeat)
	assert.Equal(t, 0, g.TurnSeat)
	assert.Equal(t, deck.Size, totalCards(r))

	// Trick 2: defenders take clubs.
	play(t, r, 0, "clubs-A")
	play(t, r, 1, "clubs-10")
	play(t, r, 2, "diamonds-K")
	play(t, r, 3, "clubs-J")
	assert.Equal(t, 0, g.CompletedTricks[1].WinnerSeat)

	// Trick 3: the maker ruffs in with the right bower.
	play(t, r, 0, "clubs-K")
	play(t, r, 1, "hearts-J")
	play(t, r, 2, "hearts-10")
	play(t, r, 3, "diamonds-9")
	assert.Equal(t, 1, g.CompletedTricks[2].WinnerSeat)

	// Trick 4: maker cashes the trump ace.
	play(t, r, 1, "hearts-A")
	play(t, r, 2, "hearts-Q")
	play(t, r, 3, "hearts-9")
	play(t, r, 0, "spades-K")
	assert.Equal(t, 1, g.CompletedTricks[3].WinnerSeat)

	// Trick 5: a defender trumps the last diamond, euchring the makers.
	play(t, r, 1, "diamonds-Q")
	play(t, r, 2, "hearts-K")
	play(t, r, 3, "diamonds-10")
	play(t, r, 0, "diamonds-A")
	assert.Equal(t, 2, g.CompletedTricks[4].WinnerSeat)

	require.NotNil(t, g.HandSummary)
	assert.Equal(t, &HandSummary{
		MakerTeam:      1,
		MakerTricks:    2,
		DefenderTricks: 3,
		PointsAwarded:  2,
		AwardedTo:      0,
	}, g.HandSummary)
	assert.Equal(t, Score{Team0: 2, Team1: 0}, r.Score)
	assert.Equal(t, PhaseHandOver, g.Phase)
}

func TestMustFollowSuit(t *testing.T) {
	r := orderUpFixture(t)
	require.NoError(t, applyAll(r,
		Action{Type: ActionPass, PlayerID: r.Players[0].ID},
		Action{Type: ActionOrderUp, PlayerID: r.Players[1].ID},
		Action{Type: ActionDiscard, PlayerID: r.Players[3].ID, CardID: "clubs-9"},
	))

	play(t, r, 0, "spades-A")
	// Seat 1 holds spades-9 and must follow.
	_, err := r.Apply(Action{Type: ActionPlayCard, PlayerID: r.Players[1].ID, CardID: "hearts-A"}, nil)
	assert.ErrorIs(t, err, ErrMustFollowSuit)
	assert.Len(t, r.Game.CurrentTrick, 1)
}

func TestPlayCardOutOfTurn(t *testing.T) {
	r := orderUpFixture(t)
	require.NoError(t, applyAll(r,
		Action{Type: ActionPass, PlayerID: r.Players[0].ID},
		Action{Type: ActionOrderUp, PlayerID: r.Players[1].ID},
		Action{Type: ActionDiscard, PlayerID: r.Players[3].ID, CardID: "clubs-9"},
	))

	_, err := r.Apply(Action{Type: ActionPlayCard, PlayerID: r.Players[2].ID, CardID: "hearts-K"}, nil)
	assert.ErrorIs(t, err, ErrNotYourTurn)
}

func TestCardNotInHand(t *testing.T) {
	r := orderUpFixture(t)
	require.NoError(t, applyAll(r,
		Action{Type: ActionPass, PlayerID: r.Players[0].ID},
		Action{Type: ActionOrderUp, PlayerID: r.Players[1].ID},
		Action{Type: ActionDiscard, PlayerID: r.Players[3].ID, CardID: "clubs-9"},
	))

	_, err := r.Apply(Action{Type: ActionPlayCard, PlayerID: r.Players[0].ID, CardID: "hearts-K"}, nil)
	assert.ErrorIs(t, err, ErrCardNotInHand)
}

func applyAll(r *Room, actions ...Action) error {
	for _, a := range actions {
		if _, err := r.Apply(a, nil); err != nil {
			return err
		}
	}
	return nil
}

func TestRoundOnePassTurnsDownUpcard(t *testing.T) {
	r := orderUpFixture(t)
	g := r.Game

	for seat := 0; seat < 4; seat++ {
		_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.PlayerBySeat(g.TurnSeat).ID}, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, PhaseBiddingRound2, g.Phase)
	assert.Equal(t, deck.Hearts, g.BlockedSuit)
	assert.Nil(t, g.Upcard)
	assert.Len(t, g.Kitty, 4)
	assert.Equal(t, 0, g.TurnSeat)
	assert.Equal(t, deck.Size, totalCards(r))
}

func TestAllPassRedeals(t *testing.T) {
	r := orderUpFixture(t)
	rng := randutil.New(3)

	for i := 0; i < 8; i++ {
		_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.PlayerBySeat(r.Game.TurnSeat).ID}, rng)
		require.NoError(t, err)
	}

	g := r.Game
	assert.Equal(t, PhaseBiddingRound1, g.Phase)
	assert.Equal(t, 0, g.DealerSeat, "dealer rotates on a thrown-in hand")
	assert.Equal(t, 2, g.HandNumber)
	assert.Empty(t, g.BlockedSuit)
	assert.Equal(t, deck.Size, totalCards(r))
}

func TestBlockedSuitRejected(t *testing.T) {
	r := orderUpFixture(t)
	for seat := 0; seat < 4; seat++ {
		_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.PlayerBySeat(r.Game.TurnSeat).ID}, nil)
		require.NoError(t, err)
	}
	g := r.Game
	require.Equal(t, PhaseBiddingRound2, g.Phase)
	turnBefore := g.TurnSeat

	_, err := r.Apply(Action{
		Type:     ActionChooseTrump,
		PlayerID: r.PlayerBySeat(turnBefore).ID,
		Suit:     deck.Hearts,
	}, nil)
	assert.ErrorIs(t, err, ErrBlockedSuit)
	assert.Equal(t, PhaseBiddingRound2, g.Phase)
	assert.Equal(t, turnBefore, g.TurnSeat, "turn stays on the offender")
}

func TestChooseTrumpInvalidSuit(t *testing.T) {
	r := orderUpFixture(t)
	for seat := 0; seat < 4; seat++ {
		_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.PlayerBySeat(r.Game.TurnSeat).ID}, nil)
		require.NoError(t, err)
	}

	_, err := r.Apply(Action{
		Type:     ActionChooseTrump,
		PlayerID: r.Players[0].ID,
		Suit:     deck.Suit("stars"),
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidSuit)
}

func TestLonerPartnerSitsOut(t *testing.T) {
	r := orderUpFixture(t)
	g := r.Game

	// Turn down the upcard, then seat 2 calls spades alone in round 2.
	for seat := 0; seat < 4; seat++ {
		_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.PlayerBySeat(g.TurnSeat).ID}, nil)
		require.NoError(t, err)
	}
	_, err := r.Apply(Action{Type: ActionPass, PlayerID: r.Players[0].ID}, nil)
	require.NoError(t, err)
	_, err = r.Apply(Action{Type: ActionPass, PlayerID: r.Players[1].ID}, nil)
	require.NoError(t, err)

	_, err = r.Apply(Action{
		Type:     ActionChooseTrump,
		PlayerID: r.Players[2].ID,
		Suit:     deck.Spades,
		Alone:    true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, PhasePlaying, g.Phase)
	assert.Equal(t, deck.Spades, g.Trump)
	assert.Equal(t, 0, g.SittingOutSeat, "the caller's partner sits out")
	assert.Equal(t, r.Players[2].ID, g.GoingAlonePlayerID)
	assert.Equal(t, 3, g.ActiveSeatCount())
	assert.Equal(t, 1, g.TurnSeat, "lead skips the sitting-out seat")

	// A trick completes with three cards and the idle hand is untouched.
	play(t, r, 1, "spades-9")
	play(t, r, 2, "spades-Q")
	play(t, r, 3, "spades-10")
	require.Len(t, g.CompletedTricks, 1)
	assert.Equal(t, 2, g.CompletedTricks[0].WinnerSeat)
	assert.Len(t, r.Players[0].Hand, 5)
}

func TestFinalizeHandScoringTable(t *testing.T) {
	tests := []struct {
		name        string
		makerTricks int
		alone       bool
		wantPoints  int
		wantTo      int
	}{
		{"euchred at zero", 0, false, 2, 0},
		{"euchred at two", 2, false, 2, 0},
		{"made three", 3, false, 1, 1},
		{"made four", 4, false, 1, 1},
		{"march", 5, false, 2, 1},
		{"alone march", 5, true, 4, 1},
		{"alone but only three", 3, true, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixtureRoom(t)
			r.Status = StatusPlaying
			g := &Game{
				Phase:          PhasePlaying,
				MakerTeam:      1,
				SittingOutSeat: -1,
			}
			if tt.alone {
				g.GoingAlonePlayerID = r.Players[1].ID
			}
			for i := 0; i < 5; i++ {
				winner := 0 // defender seat
				if i < tt.makerTricks {
					winner = 1 // maker seat
				}
				g.CompletedTricks = append(g.CompletedTricks, CompletedTrick{Index: i, WinnerSeat: winner})
			}
			r.Game = g

			r.finalizeHand()

			require.NotNil(t, g.HandSummary)
			assert.Equal(t, tt.wantPoints, g.HandSummary.PointsAwarded)
			assert.Equal(t, tt.wantTo, g.HandSummary.AwardedTo)
			assert.Equal(t, tt.makerTricks, g.HandSummary.MakerTricks)
			assert.Equal(t, 5-tt.makerTricks, g.HandSummary.DefenderTricks)
			assert.Equal(t, tt.wantPoints, r.Score.ForTeam(tt.wantTo))
			assert.Equal(t, PhaseHandOver, g.Phase)
		})
	}
}

func TestMatchEndsAtTargetScore(t *testing.T) {
	r := fixtureRoom(t)
	r.Status = StatusPlaying
	r.Score = Score{Team0: 9, Team1: 4}
	g := &Game{Phase: PhasePlaying, MakerTeam: 0, SittingOutSeat: -1}
	for i := 0; i < 5; i++ {
		g.CompletedTricks = append(g.CompletedTricks, CompletedTrick{Index: i, WinnerSeat: 0})
	}
	r.Game = g

	r.finalizeHand()

	assert.Equal(t, PhaseGameOver, g.Phase)
	assert.Equal(t, 11, r.Score.Team0)

	// Next hand may not start, only a restart.
	_, err := r.Apply(Action{Type: ActionStartNextHand, PlayerID: r.Players[0].ID}, randutil.New(1))
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = r.Apply(Action{Type: ActionRestartMatch, PlayerID: r.Players[0].ID}, randutil.New(1))
	require.NoError(t, err)
	assert.Equal(t, Score{}, r.Score)
	assert.Equal(t, PhaseBiddingRound1, r.Game.Phase)
	assert.Equal(t, 1, r.Game.HandNumber)
}

func TestStartNextHandRotatesDealer(t *testing.T) {
	r := orderUpFixture(t)
	r.Game.Phase = PhaseHandOver

	_, err := r.Apply(Action{Type: ActionStartNextHand, PlayerID: r.Players[0].ID}, randutil.New(5))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Game.DealerSeat)
	assert.Equal(t, 2, r.Game.HandNumber)
	assert.Equal(t, PhaseBiddingRound1, r.Game.Phase)
}

func TestScoreNeverDecreases(t *testing.T) {
	r := fixtureRoom(t)
	r.Status = StatusPlaying
	rng := randutil.New(99)
	r.Deal(rng)

	prev := Score{}
	for i := 0; i < 200; i++ {
		g := r.Game
		if g.Phase == PhaseGameOver {
			break
		}
		var a Action
		switch g.Phase {
		case PhaseHandOver:
			a = Action{Type: ActionStartNextHand, PlayerID: r.Players[0].ID}
		case PhaseBiddingRound1:
			p := r.PlayerBySeat(g.TurnSeat)
			if g.TurnSeat == g.DealerSeat {
				a = Action{Type: ActionOrderUp, PlayerID: p.ID}
			} else {
				a = Action{Type: ActionPass, PlayerID: p.ID}
			}
		case PhaseDealerDiscard:
			p := r.PlayerBySeat(g.DealerSeat)
			a = Action{Type: ActionDiscard, PlayerID: p.ID, CardID: p.Hand[0].ID}
		case PhasePlaying:
			p := r.PlayerBySeat(g.TurnSeat)
			legal := r.LegalPlays(p.ID)
			a = Action{Type: ActionPlayCard, PlayerID: p.ID, CardID: legal[0].ID}
		}
		_, err := r.Apply(a, rng)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, r.Score.Team0, prev.Team0)
		assert.GreaterOrEqual(t, r.Score.Team1, prev.Team1)
		prev = r.Score

		if r.Game.Phase == PhasePlaying || r.Game.Phase == PhaseBiddingRound1 {
			assert.Equal(t, deck.Size, totalCards(r))
		}
	}
}

func TestLobbyBotManagement(t *testing.T) {
	r := NewRoom("table", "", DifficultyMedium, 10)
	creator, err := r.AddPlayer("P0", false)
	require.NoError(t, err)
	r.CreatorPlayerID = creator.ID
	other, err := r.AddPlayer("P1", false)
	require.NoError(t, err)

	_, err = r.Apply(Action{Type: ActionAddBot, PlayerID: other.ID}, nil)
	assert.ErrorIs(t, err, ErrNotCreator)

	for i := 0; i < 2; i++ {
		_, err = r.Apply(Action{Type: ActionAddBot, PlayerID: creator.ID}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, r.BotCount)
	assert.NotNil(t, r.PlayerByName("Bot 1"))

	_, err = r.Apply(Action{Type: ActionRemoveBot, PlayerID: creator.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, r.BotCount)

	_, err = r.Apply(Action{Type: ActionSetBotDifficulty, PlayerID: creator.ID, BotDifficulty: DifficultyHard}, nil)
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, r.BotDifficulty)

	_, err = r.Apply(Action{Type: ActionSetBotDifficulty, PlayerID: creator.ID, BotDifficulty: Difficulty("brutal")}, nil)
	assert.Error(t, err)
}

func TestSetSeatSwaps(t *testing.T) {
	r := fixtureRoom(t)
	creator := r.Players[0]
	p1 := r.Players[1]
	p3 := r.Players[3]

	_, err := r.Apply(Action{
		Type:           ActionSetSeat,
		PlayerID:       creator.ID,
		TargetPlayerID: p1.ID,
		SeatIndex:      3,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, p1.SeatIndex)
	assert.Equal(t, 1, p3.SeatIndex, "displaced player takes the vacated seat")

	seen := map[int]bool{}
	for _, p := range r.Players {
		assert.False(t, seen[p.SeatIndex], "duplicate seat %d", p.SeatIndex)
		seen[p.SeatIndex] = true
	}

	_, err = r.Apply(Action{
		Type:           ActionSetSeat,
		PlayerID:       creator.ID,
		TargetPlayerID: p1.ID,
		SeatIndex:      7,
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidSeat)
}
