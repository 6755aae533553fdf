package game

import "errors"

var (
	ErrRoomNotFound       = errors.New("Room not found")
	ErrCodeSpaceExhausted = errors.New("no free session code")
	ErrNotMember          = errors.New("player is not in the room")
	ErrSelfVote           = errors.New("players cannot vote for themselves")
	ErrDuplicateVote      = errors.New("player already voted for this target")
	ErrNotCurrentTarget   = errors.New("target is not being voted on")
	ErrTallyClosed        = errors.New("tally already closed")
	ErrInvalidNote        = errors.New("note is not an allowed rating")
)
