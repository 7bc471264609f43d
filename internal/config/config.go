package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds environment-driven configuration, read once at startup.
type Config struct {
	TMetric struct {
		APIToken     string
		BaseURL      string // default: https://app.tmetric.com/api/v3/
		FetchTimeout time.Duration
	}
	Billing struct {
		RatePerMin     decimal.Decimal
		CurrencySymbol string
	}
	Defaults struct {
		AccountID int64
		UserIDs   []int64
	}
	MySQL struct {
		DSN string // empty disables the fetch audit sink
	}
	HTTP struct {
		Addr string
	}
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	cfg.TMetric.APIToken = os.Getenv("API_TOKEN")
	if cfg.TMetric.APIToken == "" {
		return cfg, errors.New("API_TOKEN is required")
	}
	cfg.TMetric.BaseURL = os.Getenv("API_HOST")
	if cfg.TMetric.BaseURL == "" {
		cfg.TMetric.BaseURL = "https://app.tmetric.com/api/v3/"
	}
	cfg.TMetric.FetchTimeout = 30 * time.Second
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, errors.New("FETCH_TIMEOUT must be a positive duration")
		}
		cfg.TMetric.FetchTimeout = d
	}

	rate := os.Getenv("RATE_PER_MINUTE")
	if rate == "" {
		return cfg, errors.New("RATE_PER_MINUTE is required")
	}
	r, err := decimal.NewFromString(rate)
	if err != nil || r.IsNegative() {
		return cfg, errors.New("RATE_PER_MINUTE must be a non-negative decimal")
	}
	cfg.Billing.RatePerMin = r

	cfg.Billing.CurrencySymbol = os.Getenv("CURRENCY_SYMBOL")
	if cfg.Billing.CurrencySymbol == "" {
		cfg.Billing.CurrencySymbol = "£"
	}

	if v := os.Getenv("DEFAULT_ACCOUNT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, errors.New("DEFAULT_ACCOUNT_ID must be an integer")
		}
		cfg.Defaults.AccountID = id
	}
	if v := os.Getenv("DEFAULT_USER_IDS"); v != "" {
		ids, err := ParseUserIDs(v)
		if err != nil {
			return cfg, errors.New("DEFAULT_USER_IDS must be a comma-separated list of integers")
		}
		cfg.Defaults.UserIDs = ids
	}

	cfg.MySQL.DSN = os.Getenv("MYSQL_DSN")

	cfg.HTTP.Addr = os.Getenv("HTTP_ADDR")
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	return cfg, nil
}

// ParseUserIDs parses a comma-separated list of user ids. Blank items are
// skipped so trailing commas are harmless.
func ParseUserIDs(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
