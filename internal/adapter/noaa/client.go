// Package noaa pages through daily precipitation records from the NOAA
// Climate Data Online (CDO) v2 API.
package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/sony/gobreaker"
)

// Client implements domain.RecordSource against the CDO /data endpoint.
type Client struct {
	token   string
	baseURL string
	httpCfg httpClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a CDO client. The token is sent on every request in the
// "token" header, as the CDO API requires.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "noaa-cdo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		token:   token,
		baseURL: baseURL,
		httpCfg: httpClientConfig{
			client: &http.Client{Timeout: timeout},
			backoff: backoffConfig{
				maxRetries:      3,
				initialInterval: 500 * time.Millisecond,
				maxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
		logger:  logger,
	}
}

// DailyPrecipitation fetches one page of GHCND PRCP records for a county-year.
// Offset is 1-based, matching the CDO pagination convention.
func (c *Client) DailyPrecipitation(ctx context.Context, fips string, year, offset, limit int) (domain.RecordPage, error) {
	buildRequest := func() (*http.Request, error) {
		params := url.Values{}
		params.Set("datasetid", "GHCND")
		params.Set("locationid", "FIPS:"+fips)
		params.Set("startdate", fmt.Sprintf("%d-01-01", year))
		params.Set("enddate", fmt.Sprintf("%d-12-31", year))
		params.Set("datatypeid", "PRCP")
		params.Set("units", "standard")
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))

		req, err := http.NewRequest(http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("token", c.token)
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return domain.RecordPage{}, fmt.Errorf("cdo page fips=%s year=%d offset=%d: %w", fips, year, offset, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results  []domain.DailyRecord `json:"results"`
		Metadata struct {
			Resultset struct {
				Count int `json:"count"`
			} `json:"resultset"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		// Drain so the connection can be reused even on a decode error.
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.RecordPage{}, fmt.Errorf("decode cdo response: %w", err)
	}

	return domain.RecordPage{
		Records: payload.Results,
		Total:   payload.Metadata.Resultset.Count,
	}, nil
}
