package model

import "errors"

// Common errors used across the application.
// Business-rule refusals inside a town are reported as boolean results, not
// errors; these cover lookups and collaborator failures.
var (
	// Town errors
	ErrTownNotFound    = errors.New("town not found")
	ErrInvalidPassword = errors.New("invalid town update password")
	ErrTownFull        = errors.New("town is full")
	ErrInvalidTownName = errors.New("town name must not be empty")

	// Player and session errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerAlreadyJoined = errors.New("player has already joined this town")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionInUse        = errors.New("session is already connected")

	// Collaborator errors
	ErrVideoUnavailable = errors.New("video credential unavailable")
)
