package domain

import "errors"

var (
	// ErrProviderUnreachable indicates the time-entry provider could not
	// be reached at the transport level.
	ErrProviderUnreachable = errors.New("time-entry provider unreachable")

	// ErrProviderStatus indicates the provider responded with a
	// non-success HTTP status.
	ErrProviderStatus = errors.New("time-entry provider error")

	// ErrInvalidRange indicates a date range whose start is after its end.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrNoUsers indicates an aggregate request with no user ids and no
	// configured default list to fall back on.
	ErrNoUsers = errors.New("no user ids given and no defaults configured")
)
