package models

import "errors"

// Domain specific errors shared by the planner services and handlers.
var (
	ErrNotFound            = errors.New("requested item not found")
	ErrBadRequest          = errors.New("bad request")
	ErrValidation          = errors.New("validation failed")
	ErrSessionNotFound     = errors.New("planning session not found or expired")
	ErrUnknownEvent        = errors.New("unknown wizard event")
	ErrProviderUnavailable = errors.New("provider not configured")
)
