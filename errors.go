package main

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match with errors.Is against the category
// sentinels; the specific errors wrap them.
var (
	// ErrProtocol: malformed or unexpected message; the connection is closed.
	ErrProtocol = errors.New("protocol error")
	// ErrValidation: bad join payload; the join is rejected, connection stays.
	ErrValidation = errors.New("validation error")
	// ErrNameTaken: the name belongs to a live player or bot.
	ErrNameTaken = errors.New("name already in use")
	// ErrCapacity: refused before the connection is accepted.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrPeerGone: a push to the peer failed (RuntimeDisconnect).
	ErrPeerGone = errors.New("peer gone")
	// ErrOversize: the safety valve kicked an entity that grew past MaxMass.
	ErrOversize = errors.New("mass limit exceeded")
	// ErrStopped: the game loop no longer accepts intents.
	ErrStopped = errors.New("game loop stopped")
)

var (
	ErrEmptyName          = fmt.Errorf("%w: name is empty", ErrValidation)
	ErrNameTooLong        = fmt.Errorf("%w: name is too long", ErrValidation)
	ErrNameCharset        = fmt.Errorf("%w: name may only contain letters, digits, '_' and '-'", ErrValidation)
	ErrInvalidColor       = fmt.Errorf("%w: color must be three values in 0..255", ErrValidation)
	ErrAlreadyJoined      = fmt.Errorf("%w: connection already controls a blob", ErrValidation)
	ErrTooManyConnections = fmt.Errorf("%w: server full", ErrCapacity)
	ErrRateLimited        = fmt.Errorf("%w: too many connections, slow down", ErrCapacity)
)
