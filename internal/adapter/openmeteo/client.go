// Package openmeteo derives yearly mean temperatures from the Open-Meteo
// archive API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
)

// archiveStart is the earliest date the archive API serves.
const archiveStart = "1940-01-01"

// archiveLag is how far behind real time the archive updates.
const archiveLag = 5 * 24 * time.Hour

// Client fetches the daily mean temperature series and buckets it by year.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	now        func() time.Time
}

// YearlySeries is the response of YearlyMeanTemperature: the covered date
// range plus one averaged point per year, ascending. Averages are rounded
// to one decimal (°F).
type YearlySeries struct {
	Start string              `json:"start"`
	End   string              `json:"end"`
	Lat   float64             `json:"lat"`
	Lon   float64             `json:"lon"`
	Data  []domain.YearlyTemp `json:"data"`
}

// NewClient creates an Open-Meteo archive client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		now:        time.Now,
	}
}

// YearlyMeanTemperature fetches the full daily temperature archive for the
// coordinates and averages it per calendar year.
func (c *Client) YearlyMeanTemperature(ctx context.Context, lat, lon float64) (YearlySeries, error) {
	start := archiveStart
	end := c.now().Add(-archiveLag).UTC().Format("2006-01-02")

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("start_date", start)
	params.Set("end_date", end)
	params.Set("daily", "temperature_2m_mean")
	params.Set("temperature_unit", "fahrenheit")
	params.Set("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return YearlySeries{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return YearlySeries{}, fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return YearlySeries{}, fmt.Errorf("archive API error: status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Daily struct {
			Time            []string   `json:"time"`
			Temperature2mAv []*float64 `json:"temperature_2m_mean"`
		} `json:"daily"`
		Error  bool   `json:"error"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return YearlySeries{}, fmt.Errorf("decode response: %w", err)
	}
	if payload.Error {
		return YearlySeries{}, fmt.Errorf("archive API error: %s", payload.Reason)
	}
	if len(payload.Daily.Time) == 0 {
		return YearlySeries{}, fmt.Errorf("no daily series returned")
	}

	return YearlySeries{
		Start: start,
		End:   end,
		Lat:   lat,
		Lon:   lon,
		Data:  bucketByYear(payload.Daily.Time, payload.Daily.Temperature2mAv),
	}, nil
}

// bucketByYear averages daily values per calendar year, skipping null
// readings, and rounds each average to one decimal.
func bucketByYear(dates []string, temps []*float64) []domain.YearlyTemp {
	type bucket struct {
		sum float64
		n   int
	}
	buckets := make(map[int]*bucket)

	for i, date := range dates {
		if i >= len(temps) || temps[i] == nil || len(date) < 4 {
			continue
		}
		year, err := strconv.Atoi(date[:4])
		if err != nil {
			continue
		}
		b, ok := buckets[year]
		if !ok {
			b = &bucket{}
			buckets[year] = b
		}
		b.sum += *temps[i]
		b.n++
	}

	yearly := make([]domain.YearlyTemp, 0, len(buckets))
	for year, b := range buckets {
		avg := math.Round(b.sum/float64(b.n)*10) / 10
		yearly = append(yearly, domain.YearlyTemp{Year: year, Avg: avg})
	}
	sort.Slice(yearly, func(i, j int) bool { return yearly[i].Year < yearly[j].Year })
	return yearly
}
