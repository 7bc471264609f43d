package tmetric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"timebill/internal/domain"
)

const dateLayout = "2006-01-02"

// entryTimeLayout is the wall-clock format TMetric uses for startTime and
// endTime fields.
const entryTimeLayout = "2006-01-02T15:04:05"

// Client implements ports.TimeEntryProvider using the TMetric REST API v3.
type Client struct {
	baseURL  string
	apiToken string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(baseURL, apiToken string, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://app.tmetric.com/api/v3/"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// ListTimeEntries fetches entries for one user in [rng.Start, rng.End].
// TMetric v3: GET accounts/{account}/timeentries?userId=...&startDate=...&endDate=...
// Entries with missing or unparsable timestamps are quarantined: skipped,
// counted and logged rather than failing the whole fetch.
func (c *Client) ListTimeEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange) ([]domain.TimeEntry, error) {
	body, err := c.get(ctx, userID, accountID, rng)
	if err != nil {
		return nil, err
	}

	var raw []rawTimeEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrProviderStatus, err)
	}

	out := make([]domain.TimeEntry, 0, len(raw))
	quarantined := 0
	for _, r := range raw {
		start, startErr := time.Parse(entryTimeLayout, r.StartTime)
		end, endErr := time.Parse(entryTimeLayout, r.EndTime)
		if startErr != nil || endErr != nil {
			quarantined++
			continue
		}
		out = append(out, domain.TimeEntry{Start: start, End: end})
	}
	if quarantined > 0 {
		c.log.Warn("quarantined malformed time entries",
			slog.Int("count", quarantined),
			slog.Int64("user_id", userID),
			slog.Int64("account_id", accountID),
		)
	}
	return out, nil
}

// RawTimeEntries performs the same request and returns the provider body
// untouched, for the passthrough endpoint.
func (c *Client) RawTimeEntries(ctx context.Context, userID, accountID int64, rng domain.DateRange) (json.RawMessage, error) {
	return c.get(ctx, userID, accountID, rng)
}

// get performs a single attempt against the provider; failures surface to
// the caller as-is, with no retries or backoff.
func (c *Client) get(ctx context.Context, userID, accountID int64, rng domain.DateRange) ([]byte, error) {
	if c.apiToken == "" {
		return nil, errors.New("missing api token")
	}
	// Reversed ranges fail fast before any network call.
	if !rng.Valid() {
		return nil, fmt.Errorf("%w: %s > %s", domain.ErrInvalidRange,
			rng.Start.Format(dateLayout), rng.End.Format(dateLayout))
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	u = u.JoinPath("accounts", strconv.FormatInt(accountID, 10), "timeentries")
	q := u.Query()
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("startDate", rng.Start.Format(dateLayout))
	q.Set("endDate", rng.End.Format(dateLayout))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status %d: %s", domain.ErrProviderStatus, resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// rawTimeEntry mirrors the JSON from TMetric v3. Timestamps stay strings
// here so a malformed value quarantines one entry instead of failing the
// whole decode.
type rawTimeEntry struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}
