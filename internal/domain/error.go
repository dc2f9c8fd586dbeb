package domain

import "errors"

var (
	// Caller-recoverable errors. An operation returning one of these has not mutated state.
	ErrForbidden            = errors.New("forbidden")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrPremiumStyleRequired = errors.New("style requires a premium plan")
	ErrNotFound             = errors.New("entity not found")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyExists   = errors.New("entity already exists")

	// Storage-level uniqueness conflicts on question sets.
	ErrShareTokenConflict  = errors.New("share token already taken")
	ErrSlugConflict        = errors.New("slug already taken")
	ErrShareTokenExhausted = errors.New("could not allocate a unique share token")

	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
