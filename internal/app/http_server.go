package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"timebill/internal/config"
	"timebill/internal/domain"
)

// Handler returns the routed HTTP handler for the billing endpoints.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/total-user-billable-this-month", a.handleUserThisMonth)
	mux.HandleFunc("/total-user-billable-by-month", a.handleUserByMonth)
	mux.HandleFunc("/total-billable-this-month", a.handleAggregateThisMonth)
	mux.HandleFunc("/total-billable-by-month", a.handleAggregateByMonth)
	mux.HandleFunc("/tmetric-timeentries", a.handlePassthrough)

	return loggingMiddleware(a.log, mux)
}

// HTTPServer returns a configured http.Server. Call ListenAndServe on it
// in a goroutine and Shutdown it on exit.
func (a *App) HTTPServer(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: a.Handler()}
	a.log.Info("http server configured", slog.String("addr", addr))
	return srv
}

// GET /total-user-billable-this-month?user_id&account_id[&include_entries]
func (a *App) handleUserThisMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	q := r.URL.Query()
	userID, err := requireInt64(q.Get("user_id"), "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := a.resolveAccount(q.Get("account_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sum, err := a.uc.BillableThisMonth(r.Context(), userID, accountID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.summaryResponse(sum, q.Get("include_entries") != ""))
}

// GET /total-user-billable-by-month?user_id&account_id&month&year[&include_entries]
func (a *App) handleUserByMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	q := r.URL.Query()
	userID, err := requireInt64(q.Get("user_id"), "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	accountID, err := a.resolveAccount(q.Get("account_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	month, year, err := parseMonthYear(q.Get("month"), q.Get("year"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sum, err := a.uc.BillableByMonth(r.Context(), userID, accountID, month, year)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.summaryResponse(sum, q.Get("include_entries") != ""))
}

// GET /total-billable-this-month[?account_id&user_ids]
func (a *App) handleAggregateThisMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	q := r.URL.Query()
	accountID, err := a.resolveAccount(q.Get("account_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	userIDs, err := a.resolveUsers(q.Get("user_ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	agg, err := a.uc.AggregateThisMonth(r.Context(), userIDs, accountID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.aggregateResponse(agg))
}

// GET /total-billable-by-month?month[&year&account_id&user_ids]
func (a *App) handleAggregateByMonth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	q := r.URL.Query()
	accountID, err := a.resolveAccount(q.Get("account_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	userIDs, err := a.resolveUsers(q.Get("user_ids"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	month, year, err := parseMonthYear(q.Get("month"), q.Get("year"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	agg, err := a.uc.AggregateByMonth(r.Context(), userIDs, accountID, month, year)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.aggregateResponse(agg))
}

// passthroughRequest is the POST body for /tmetric-timeentries.
type passthroughRequest struct {
	UserID    int64  `json:"user_id"`
	AccountID int64  `json:"account_id"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// POST /tmetric-timeentries returns the provider response unmodified.
// Both dates are required; the upstream behavior of formatting an absent
// date was a runtime failure, not a feature.
func (a *App) handlePassthrough(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
		return
	}
	var req passthroughRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}
	if req.UserID == 0 || req.AccountID == 0 {
		writeError(w, http.StatusBadRequest, errors.New("user_id and account_id are required"))
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, errors.New("startDate and endDate are required"))
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("startDate must be YYYY-MM-DD"))
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("endDate must be YYYY-MM-DD"))
		return
	}

	raw, err := a.uc.Provider.RawTimeEntries(r.Context(), req.UserID, req.AccountID, domain.DateRange{Start: start, End: end})
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// resolveAccount falls back to the configured default account when the
// query omits one.
func (a *App) resolveAccount(param string) (int64, error) {
	if param != "" {
		id, err := strconv.ParseInt(param, 10, 64)
		if err != nil {
			return 0, errors.New("account_id must be an integer")
		}
		return id, nil
	}
	if a.cfg.Defaults.AccountID == 0 {
		return 0, errors.New("account_id is required and no default is configured")
	}
	return a.cfg.Defaults.AccountID, nil
}

// resolveUsers parses a comma-separated user_ids param, falling back to
// the configured default list when the query omits one.
func (a *App) resolveUsers(param string) ([]int64, error) {
	if param == "" {
		return a.cfg.Defaults.UserIDs, nil
	}
	ids, err := config.ParseUserIDs(param)
	if err != nil {
		return nil, errors.New("user_ids must be a comma-separated list of integers")
	}
	return ids, nil
}

func requireInt64(val, name string) (int64, error) {
	if val == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return id, nil
}

// parseMonthYear validates a month/year pair. When yearOptional is set an
// absent year defaults to the current year.
func parseMonthYear(monthStr, yearStr string, yearOptional bool) (time.Month, int, error) {
	if monthStr == "" {
		return 0, 0, errors.New("month is required")
	}
	m, err := strconv.Atoi(monthStr)
	if err != nil || m < 1 || m > 12 {
		return 0, 0, errors.New("month must be an integer between 1 and 12")
	}
	if yearStr == "" {
		if !yearOptional {
			return 0, 0, errors.New("year is required")
		}
		return time.Month(m), time.Now().UTC().Year(), nil
	}
	y, err := strconv.Atoi(yearStr)
	if err != nil || y < 1 {
		return 0, 0, errors.New("year must be a positive integer")
	}
	return time.Month(m), y, nil
}

// summaryResponse shapes a per-user summary for JSON output. The display
// string is rendered from minor units at the boundary only.
type summaryResponse struct {
	TotalMinutes  int64           `json:"total_minutes"`
	TotalHours    float64         `json:"total_hours"`
	BillableMajor float64         `json:"billable_major_units"`
	BillableMinor int64           `json:"billable_minor_units"`
	Display       string          `json:"billable_display"`
	RatePerMin    float64         `json:"rate_per_min"`
	Entries       []entryResponse `json:"entries,omitempty"`
}

type entryResponse struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (a *App) summaryResponse(sum domain.Summary, includeEntries bool) summaryResponse {
	resp := summaryResponse{
		TotalMinutes:  sum.TotalMinutes,
		TotalHours:    sum.TotalHours,
		BillableMajor: sum.Billable.InexactFloat64(),
		BillableMinor: sum.MinorUnits,
		Display:       domain.Display(a.cfg.Billing.CurrencySymbol, sum.MinorUnits),
		RatePerMin:    sum.RatePerMin.InexactFloat64(),
	}
	if includeEntries {
		resp.Entries = make([]entryResponse, 0, len(sum.Entries))
		for _, e := range sum.Entries {
			resp.Entries = append(resp.Entries, entryResponse{
				StartTime: e.Start.Format("2006-01-02T15:04:05"),
				EndTime:   e.End.Format("2006-01-02T15:04:05"),
			})
		}
	}
	return resp
}

// aggregateResponse shapes a multi-user rollup for JSON output. The
// average rate is null when no minutes were recorded.
type aggregateResponse struct {
	TotalMinutes  int64    `json:"total_minutes"`
	TotalHours    float64  `json:"total_hours"`
	BillableMajor float64  `json:"billable_major_units"`
	BillableMinor int64    `json:"billable_minor_units"`
	Display       string   `json:"billable_display"`
	AvgRatePerMin *float64 `json:"average_rate_per_min"`
}

func (a *App) aggregateResponse(agg domain.AggregateSummary) aggregateResponse {
	resp := aggregateResponse{
		TotalMinutes:  agg.TotalMinutes,
		TotalHours:    agg.TotalHours,
		BillableMajor: float64(agg.MinorUnits) / 100,
		BillableMinor: agg.MinorUnits,
		Display:       domain.Display(a.cfg.Billing.CurrencySymbol, agg.MinorUnits),
	}
	if avg, ok := agg.AverageRatePerMin(); ok {
		f := avg.InexactFloat64()
		resp.AvgRatePerMin = &f
	}
	return resp
}

// writeDomainError maps pipeline errors onto HTTP statuses: provider
// trouble is a bad gateway, caller mistakes are bad requests.
func (a *App) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProviderUnreachable), errors.Is(err, domain.ErrProviderStatus):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrNoUsers):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		a.log.Error("request failed", slog.String("error", err.Error()))
	}
	writeError(w, status, err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// loggingMiddleware provides basic request logging.
func loggingMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("dur", time.Since(start)),
		)
	})
}
