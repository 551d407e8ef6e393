// Package fcc resolves coordinates to county FIPS codes using the FCC
// census block API.
package fcc

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
)

// Client implements domain.RegionLookup against the FCC census block API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates an FCC census block lookup client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// CountyFIPS converts coordinates to a county FIPS code. It returns an empty
// string with a nil error when the point does not fall inside any US county.
func (c *Client) CountyFIPS(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"latitude":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format":    {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("census block request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("FCC API error: status %d: %s", resp.StatusCode, body)
	}

	var blockResp response
	if err := json.NewDecoder(resp.Body).Decode(&blockResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return blockResp.County.FIPS, nil
}

// FCC API response types.

type response struct {
	County county `json:"County"`
	State  state  `json:"State"`
	Status string `json:"status"`
}

type county struct {
	FIPS string `json:"FIPS"`
	Name string `json:"name"`
}

type state struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
