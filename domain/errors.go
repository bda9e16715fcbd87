package domain

import "errors"

var (
	// ErrExhaustedCatalog means every eligible item is present in the
	// recent-item history; the caller should clear the history and redraw.
	ErrExhaustedCatalog = errors.New("catalog exhausted by recent history")

	// ErrNoActiveLoop means a control operation targeted a channel that has
	// no running session.
	ErrNoActiveLoop = errors.New("no active game in this channel")

	// ErrRequestTimeout means a bounded read against a running session did
	// not complete within its budget.
	ErrRequestTimeout = errors.New("request to game loop timed out")

	ErrSessionExists = errors.New("a game already exists in this channel")
	ErrNotSetupOwner = errors.New("only the player who started the setup may do that")
	ErrNoSetup       = errors.New("no game setup in progress in this channel")
	ErrEmptyCatalog  = errors.New("no items match the chosen tags")

	UnexpectedDatabaseError = errors.New("unexpected database error")
)
