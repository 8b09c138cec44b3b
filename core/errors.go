package core

import "errors"

var (
	// ErrAbstractInstantiation is returned when a leaderboard is built without a ranking policy.
	ErrAbstractInstantiation = errors.New("leaderboard core cannot be instantiated without a ranking policy")
	// ErrUnimplementedOperation is returned by policies that do not provide rank or range.
	ErrUnimplementedOperation = errors.New("ranking operation not implemented")
	// ErrInvalidEntry is returned when an id, score, payload or range bound is missing or malformed.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrReleased is returned by every operation after a leaderboard has been released.
	ErrReleased = errors.New("leaderboard released")
)
