package app

import (
	"context"
	"log/slog"

	msql "timebill/internal/adapter/mysql"
	tm "timebill/internal/adapter/tmetric"
	"timebill/internal/config"
	"timebill/internal/migrate"
	"timebill/internal/ports"
	"timebill/internal/usecase"
)

// App wires adapters and use cases.
type App struct {
	log *slog.Logger
	cfg config.Config
	uc  *usecase.BillingUseCase
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	provider := tm.NewClient(cfg.TMetric.BaseURL, cfg.TMetric.APIToken, cfg.TMetric.FetchTimeout, log)

	// The audit sink is optional; no DSN means no storage at all.
	var audit ports.AuditSink
	if cfg.MySQL.DSN != "" {
		if err := migrate.Run(ctx, cfg.MySQL.DSN, log); err != nil {
			return nil, err
		}
		sink, err := msql.NewClient(ctx, cfg.MySQL.DSN, log)
		if err != nil {
			return nil, err
		}
		audit = sink
	}

	uc := &usecase.BillingUseCase{
		Log:      log,
		Provider: provider,
		Audit:    audit,
		Rate:     cfg.Billing.RatePerMin,
	}

	return &App{log: log, cfg: cfg, uc: uc}, nil
}
