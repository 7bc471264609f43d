package tmetric

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebill/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRange() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}
}

func TestListTimeEntries_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/99/timeentries", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "7", q.Get("userId"))
		assert.Equal(t, "2024-02-01", q.Get("startDate"))
		assert.Equal(t, "2024-02-29", q.Get("endDate"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, testLogger())
	entries, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListTimeEntries_MapsEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"startTime":"2024-02-05T09:00:00","endTime":"2024-02-05T10:30:00"},
			{"startTime":"2024-02-06T14:00:00","endTime":"2024-02-06T14:45:00"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, testLogger())
	entries, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC), entries[0].Start)
	assert.Equal(t, 90*time.Minute, entries[0].Duration())
	assert.Equal(t, 45*time.Minute, entries[1].Duration())
}

func TestListTimeEntries_QuarantinesMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"startTime":"2024-02-05T09:00:00","endTime":"2024-02-05T10:00:00"},
			{"startTime":"not-a-timestamp","endTime":"2024-02-05T11:00:00"},
			{"startTime":"2024-02-05T12:00:00"},
			{"startTime":"2024-02-05T13:00:00","endTime":"2024-02-05T13:30:00"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, testLogger())
	entries, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	require.NoError(t, err)
	// The two malformed entries are skipped, not fatal.
	require.Len(t, entries, 2)
	assert.Equal(t, time.Hour, entries[0].Duration())
	assert.Equal(t, 30*time.Minute, entries[1].Duration())
}

func TestListTimeEntries_ProviderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such account", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, testLogger())
	_, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestListTimeEntries_ProviderUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := NewClient(srv.URL, "tok", 0, testLogger())
	_, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnreachable)
}

func TestListTimeEntries_InvalidRangeFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	rng := domain.DateRange{
		Start: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	c := NewClient(srv.URL, "tok", 0, testLogger())
	_, err := c.ListTimeEntries(context.Background(), 7, 99, rng)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	assert.False(t, called, "reversed range must not reach the provider")
}

func TestListTimeEntries_MissingToken(t *testing.T) {
	c := NewClient("https://example.invalid", "", 0, testLogger())
	_, err := c.ListTimeEntries(context.Background(), 7, 99, testRange())

	assert.EqualError(t, err, "missing api token")
}

func TestRawTimeEntries_PassesBodyThrough(t *testing.T) {
	const body = `[{"startTime":"2024-02-05T09:00:00","endTime":"2024-02-05T10:00:00","note":"extra fields kept"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 0, testLogger())
	raw, err := c.RawTimeEntries(context.Background(), 7, 99, testRange())

	require.NoError(t, err)
	assert.JSONEq(t, body, string(raw))
}
