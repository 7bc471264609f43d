package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"timebill/internal/domain"
	"timebill/internal/ports"
)

// BillingUseCase composes fetch, tally and calculate into per-user and
// multi-user billable summaries.
type BillingUseCase struct {
	Log      *slog.Logger
	Provider ports.TimeEntryProvider
	Audit    ports.AuditSink // optional
	Rate     decimal.Decimal

	// Now is overridable in tests; nil means time.Now in UTC.
	Now func() time.Time
}

func (uc *BillingUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now().UTC()
}

// BillableThisMonth computes the billable summary for one user over the
// current calendar month, evaluated at call time.
func (uc *BillingUseCase) BillableThisMonth(ctx context.Context, userID, accountID int64) (domain.Summary, error) {
	return uc.billableRange(ctx, userID, accountID, domain.ThisMonth(uc.now()))
}

// BillableByMonth computes the billable summary for one user over the
// given month and year.
func (uc *BillingUseCase) BillableByMonth(ctx context.Context, userID, accountID int64, month time.Month, year int) (domain.Summary, error) {
	return uc.billableRange(ctx, userID, accountID, domain.MonthRange(year, month))
}

func (uc *BillingUseCase) billableRange(ctx context.Context, userID, accountID int64, rng domain.DateRange) (domain.Summary, error) {
	if uc.Provider == nil {
		return domain.Summary{}, errors.New("usecase not initialized: missing provider")
	}

	entries, err := uc.Provider.ListTimeEntries(ctx, userID, accountID, rng)
	if err != nil {
		return domain.Summary{}, err
	}
	uc.Log.Debug("fetched time entries",
		slog.Int64("user_id", userID),
		slog.Int("count", len(entries)),
	)

	if uc.Audit != nil {
		if err := uc.Audit.RecordEntries(ctx, userID, accountID, rng, entries); err != nil {
			uc.Log.Warn("audit record failed", slog.String("error", err.Error()))
		}
	}

	sum := domain.Calculate(domain.Tally(entries), uc.Rate)
	sum.Entries = entries
	return sum, nil
}

// AggregateThisMonth rolls up billable summaries across users for the
// current calendar month.
func (uc *BillingUseCase) AggregateThisMonth(ctx context.Context, userIDs []int64, accountID int64) (domain.AggregateSummary, error) {
	return uc.aggregateRange(ctx, userIDs, accountID, domain.ThisMonth(uc.now()))
}

// AggregateByMonth rolls up billable summaries across users for the given
// month and year.
func (uc *BillingUseCase) AggregateByMonth(ctx context.Context, userIDs []int64, accountID int64, month time.Month, year int) (domain.AggregateSummary, error) {
	return uc.aggregateRange(ctx, userIDs, accountID, domain.MonthRange(year, month))
}

// aggregateRange fetches users sequentially in caller order. Any per-user
// failure aborts the whole aggregate: partial sums would silently
// understate the total.
func (uc *BillingUseCase) aggregateRange(ctx context.Context, userIDs []int64, accountID int64, rng domain.DateRange) (domain.AggregateSummary, error) {
	if len(userIDs) == 0 {
		return domain.AggregateSummary{}, domain.ErrNoUsers
	}

	summaries := make([]domain.Summary, 0, len(userIDs))
	for _, id := range userIDs {
		sum, err := uc.billableRange(ctx, id, accountID, rng)
		if err != nil {
			return domain.AggregateSummary{}, fmt.Errorf("user %d: %w", id, err)
		}
		summaries = append(summaries, sum)
	}
	return domain.Aggregate(summaries), nil
}
