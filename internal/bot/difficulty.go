package bot

import "github.com/lox/euchred/internal/game"

// Settings tune the search per difficulty level
type Settings struct {
	SampleCount    int     // determinizations per decision
	SearchDepth    int     // plies of lookahead
	RandomMoveRate float64 // chance of a uniformly random legal play
	BidThreshold   float64 // minimum sampled score to call trump
}

// aloneMargin is how far above the bid threshold a hand must score before the
// bot calls alone.
const aloneMargin = 80

// SettingsFor returns the search settings for a difficulty
func SettingsFor(d game.Difficulty) Settings {
	switch d {
	case game.DifficultyEasy:
		return Settings{SampleCount: 4, SearchDepth: 2, RandomMoveRate: 0.35, BidThreshold: 45}
	case game.DifficultyHard:
		return Settings{SampleCount: 16, SearchDepth: 8, RandomMoveRate: 0.00, BidThreshold: -5}
	default:
		return Settings{SampleCount: 8, SearchDepth: 4, RandomMoveRate: 0.12, BidThreshold: 20}
	}
}
