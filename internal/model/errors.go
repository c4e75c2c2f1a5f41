package model

import "errors"

// Failure taxonomy surfaced to callers. The HTTP layer maps these to status
// codes; nothing in the core retries or swallows them.
var (
	ErrEmptyObservationSet = errors.New("empty_observation_set")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrStoreUnavailable    = errors.New("store_unavailable")
	ErrNotAuthorized       = errors.New("not_authorized")
)
