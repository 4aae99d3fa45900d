package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownContract = errors.New("contract not in catalog")
	ErrParityConflict  = errors.New("conversion and reversal signalled together")
	ErrNoSpot          = errors.New("no spot quote cached")
	ErrInvalidOrder    = errors.New("invalid order parameters")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrWSDisconnect    = errors.New("websocket disconnected")
	ErrContextDone     = errors.New("context cancelled")
)
