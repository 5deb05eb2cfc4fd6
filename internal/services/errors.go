package services

import "errors"

// Service errors
var (
	// ErrInvalidBatch wraps reveal batches that violate their contract
	ErrInvalidBatch = errors.New("invalid reveal batch")
)
