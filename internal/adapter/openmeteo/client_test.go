package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/couchcryptid/rainfall-trends/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(baseURL, 5*time.Second, observability.NewTestLogger())
	c.now = func() time.Time {
		return time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	}
	return c
}

func TestYearlyMeanTemperature_BucketsAndRounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1940-01-01", q.Get("start_date"))
		assert.Equal(t, "2026-08-23", q.Get("end_date"), "archive lags five days")
		assert.Equal(t, "temperature_2m_mean", q.Get("daily"))
		assert.Equal(t, "fahrenheit", q.Get("temperature_unit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["1940-01-01", "1940-01-02", "1940-01-03", "1941-01-01"],
				"temperature_2m_mean": [50.0, 51.0, null, 60.04]
			}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	series, err := c.YearlyMeanTemperature(context.Background(), 30.0, -97.0)
	require.NoError(t, err)

	want := []domain.YearlyTemp{
		{Year: 1940, Avg: 50.5},
		{Year: 1941, Avg: 60.0},
	}
	if diff := cmp.Diff(want, series.Data); diff != "" {
		t.Errorf("yearly series mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 30.0, series.Lat)
	assert.Equal(t, -97.0, series.Lon)
}

func TestYearlyMeanTemperature_UpstreamErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": true, "reason": "latitude out of range"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.YearlyMeanTemperature(context.Background(), 999, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude out of range")
}

func TestYearlyMeanTemperature_EmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"daily": {"time": [], "temperature_2m_mean": []}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.YearlyMeanTemperature(context.Background(), 30.0, -97.0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no daily series")
}

func TestBucketByYear_MismatchedLengths(t *testing.T) {
	v := 42.0
	got := bucketByYear([]string{"2000-01-01", "2000-01-02"}, []*float64{&v})
	require.Len(t, got, 1)
	assert.Equal(t, domain.YearlyTemp{Year: 2000, Avg: 42.0}, got[0])
}
