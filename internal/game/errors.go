package game

import "errors"

// Errors surfaced to the sender as `Error{content:"server error: ..."}`
// by the dispatcher. Room state is never left half-mutated when one of
// these is returned.
var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrNotInLobby    = errors.New("room is not in lobby")
	ErrNotInWordBomb = errors.New("room is not in word bomb")
	ErrNotInAnagrams = errors.New("room is not in anagrams")

	ErrClientNotFound = errors.New("client couldn't be found while removing")
	ErrSocketMismatch = errors.New("client's socket did not match while removing")

	ErrRateLimited = errors.New("rate limited")

	ErrChatTooLong  = errors.New("chat message too long")
	ErrInputTooLong = errors.New("input too long")
	ErrGuessTooLong = errors.New("guess too long")

	ErrNotRoomOwner     = errors.New("not the room owner")
	ErrNotEnoughPlayers = errors.New("not enough players ready")

	ErrOutOfTurn      = errors.New("played out of turn")
	ErrPlayerNotFound = errors.New("player not found")

	// ErrNoPlayersAlive means turn rotation found nobody to hand the turn
	// to. Reaching it outside the timeout path is an internal bug; the
	// triggering operation is aborted and the game continues best-effort.
	ErrNoPlayersAlive = errors.New("no other players alive")
)
