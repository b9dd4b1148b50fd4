package game

import "errors"

// Sentinel errors for action failures. Transport maps these onto error frames
// or HTTP statuses; state is never mutated on an error return.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrWrongPhase      = errors.New("action not legal in current phase")
	ErrMustFollowSuit  = errors.New("must follow suit")
	ErrCardNotInHand   = errors.New("card not in hand")
	ErrBlockedSuit     = errors.New("cannot call the turned-down suit")
	ErrInvalidSuit     = errors.New("invalid suit")
	ErrInvalidSeat     = errors.New("invalid seat index")
	ErrRoomFull        = errors.New("room is full")
	ErrNameTaken       = errors.New("name already taken")
	ErrNotCreator      = errors.New("only the room creator can do that")
	ErrNotInLobby      = errors.New("room has already started")
	ErrNeedFourPlayers = errors.New("need four seated players to start")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrNoBotToRemove   = errors.New("no bot to remove")
	ErrSittingOut      = errors.New("seat is sitting out this hand")
	ErrUnknownAction   = errors.New("unknown action")
)
