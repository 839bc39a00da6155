package models

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound         = errors.New("not found")
	ErrVersionConflict  = errors.New("inventory was modified concurrently")
	ErrInvalidQuantity  = errors.New("quantity cannot be negative")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotPending       = errors.New("suggestion is not pending")
	ErrNothingToApprove = errors.New("no pending suggestions to approve")
)
