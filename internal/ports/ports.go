package ports

import (
	"context"
	"encoding/json"

	"timebill/internal/domain"
)

// TimeEntryProvider defines methods to fetch time entries for one user of
// one account from the time-tracking provider.
type TimeEntryProvider interface {
	// ListTimeEntries returns the entries recorded in the inclusive range.
	ListTimeEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange) ([]domain.TimeEntry, error)

	// RawTimeEntries performs the same request and returns the provider
	// response body untouched.
	RawTimeEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange) (json.RawMessage, error)
}

// AuditSink records fetched entries for audit and debugging. Recording is
// best effort; callers must not fail a request on sink errors.
type AuditSink interface {
	RecordEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange, entries []domain.TimeEntry) error
}
