// Package http exposes the rainfall stream and temperature series over HTTP,
// plus health, readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/adapter/openmeteo"
	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RainfallStreamer produces the wet-day stream for a coordinate pair.
type RainfallStreamer interface {
	Run(ctx context.Context, lat, lon float64, w domain.FrameWriter) error
}

// TemperatureSource serves the yearly mean temperature series.
type TemperatureSource interface {
	YearlyMeanTemperature(ctx context.Context, lat, lon float64) (openmeteo.YearlySeries, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the climate API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	streamer   RainfallStreamer
	temps      TemperatureSource
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires its routes.
func NewServer(addr string, streamer RainfallStreamer, temps TemperatureSource, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// No WriteTimeout: a rainfall stream pages NOAA year by year and
			// stays open for minutes. Clients abort via request cancellation.
			IdleTimeout: 60 * time.Second,
		},
		streamer: streamer,
		temps:    temps,
		logger:   logger,
	}

	mux.HandleFunc("GET /api/v1/rainfall/extreme", s.handleRainfall)
	mux.HandleFunc("GET /api/v1/temperature/yearly", s.handleTemperature)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRainfall streams newline-delimited year-count frames. Parameter
// errors are rejected with a JSON 400 before the stream starts; once
// streaming begins, failures travel in-band as error frames.
func (s *Server) handleRainfall(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if err := s.streamer.Run(r.Context(), lat, lon, newFlushFrameWriter(w)); err != nil {
		// Headers are long gone; nothing to send the client beyond what the
		// stream already carried.
		s.logger.Warn("rainfall stream ended early", "lat", lat, "lon", lon, "error", err)
	}
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := parseCoords(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	series, err := s.temps.YearlyMeanTemperature(r.Context(), lat, lon)
	if err != nil {
		s.logger.Error("temperature series failed", "lat", lat, "lon", lon, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "failed to fetch temperature data"})
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// flushFrameWriter pushes each frame to the client as soon as it is written,
// so consumers render years progressively instead of waiting for the end.
type flushFrameWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

func newFlushFrameWriter(w http.ResponseWriter) *flushFrameWriter {
	f, _ := w.(http.Flusher)
	return &flushFrameWriter{w: w, f: f}
}

func (fw *flushFrameWriter) WriteFrame(line []byte) error {
	if _, err := fw.w.Write(line); err != nil {
		return err
	}
	if fw.f != nil {
		fw.f.Flush()
	}
	return nil
}

func parseCoords(r *http.Request) (lat, lon float64, err error) {
	q := r.URL.Query()
	latStr, lonStr := q.Get("lat"), q.Get("lon")
	if latStr == "" || lonStr == "" {
		return 0, 0, fmt.Errorf("lat and lon query parameters are required")
	}
	lat, err = strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("lat must be a number between -90 and 90")
	}
	lon, err = strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("lon must be a number between -180 and 180")
	}
	return lat, lon, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
