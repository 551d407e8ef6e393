// Package aggregate turns paginated daily precipitation records into a
// stream of per-year wet-day counts.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/couchcryptid/rainfall-trends/internal/observability"
	"github.com/jonboulle/clockwork"
)

// FrameSink optionally receives every emitted year count, e.g. for
// downstream analytics. Sink failures never affect the stream.
type FrameSink interface {
	PublishYearCount(ctx context.Context, fips string, yc domain.YearCount) error
}

// Config holds the aggregation parameters.
type Config struct {
	// LookbackYears is the number of years before the most recent
	// fully-elapsed year; the window covers LookbackYears+1 years total.
	LookbackYears int
	// PageSize caps records per upstream request; 1000 is the CDO maximum.
	PageSize int
	// WetThreshold is the precipitation value a record must exceed for its
	// date to count as a wet day.
	WetThreshold float64
	// YearPacing is the mandatory delay between consecutive years' fetches,
	// kept to stay under the upstream rate limit. It applies between years,
	// never between pages of one year.
	YearPacing time.Duration
}

// DefaultConfig matches the production dashboard: a 26-year window, maximum
// page size, >1 unit of precipitation counts as a wet day, 200ms pacing.
func DefaultConfig() Config {
	return Config{
		LookbackYears: 25,
		PageSize:      1000,
		WetThreshold:  1,
		YearPacing:    200 * time.Millisecond,
	}
}

// Aggregator produces one rainfall stream per Run call. It is safe for
// concurrent Runs; nothing is shared across requests except counters.
type Aggregator struct {
	regions domain.RegionLookup
	records domain.RecordSource
	sink    FrameSink // nil when the Kafka sink is disabled
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	cfg     Config
	ready   atomic.Bool
}

// New creates an Aggregator. Pass a nil sink to disable frame publishing.
func New(regions domain.RegionLookup, records domain.RecordSource, sink FrameSink, logger *slog.Logger, metrics *observability.Metrics, cfg Config) *Aggregator {
	return &Aggregator{
		regions: regions,
		records: records,
		sink:    sink,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		cfg:     cfg,
	}
}

// SetClock swaps the pacing clock; tests use a fake to make the inter-year
// delay deterministic.
func (a *Aggregator) SetClock(c clockwork.Clock) {
	a.clock = c
}

// CheckReadiness returns nil once at least one stream has completed.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no rainfall stream has completed yet")
	}
	return nil
}

// Run resolves the coordinates to a county and walks the year window,
// writing one frame per aggregated year. Failures follow a containment
// policy: a failed page aborts only its year, a year whose first page failed
// is omitted entirely, and only an unresolvable location or an internal
// fault produces an error frame. Run never writes anything after an error
// frame. The returned error reports write failures and cancellation; the
// caller owns closing the stream.
func (a *Aggregator) Run(ctx context.Context, lat, lon float64, w domain.FrameWriter) (err error) {
	a.metrics.StreamsStarted.Inc()
	start := a.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("aggregation panicked", "lat", lat, "lon", lon, "panic", r)
			a.metrics.StreamsFailed.Inc()
			err = a.writeErrorFrame(w, fmt.Sprintf("internal error: %v", r))
		}
	}()

	fips, lookupErr := a.regions.CountyFIPS(ctx, lat, lon)
	if lookupErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("county lookup failed", "lat", lat, "lon", lon, "error", lookupErr)
		a.metrics.RegionLookups.WithLabelValues("error").Inc()
		a.metrics.StreamsFailed.Inc()
		return a.writeErrorFrame(w, "failed to fetch location data")
	}
	if fips == "" {
		a.metrics.RegionLookups.WithLabelValues("empty").Inc()
		a.metrics.StreamsFailed.Inc()
		return a.writeErrorFrame(w, "could not find a valid county for this location")
	}
	a.metrics.RegionLookups.WithLabelValues("success").Inc()

	startYear, endYear := domain.Window(a.cfg.LookbackYears)
	a.logger.Info("stream started", "fips", fips, "start_year", startYear, "end_year", endYear)

	for year := startYear; year <= endYear; year++ {
		count, ok := a.aggregateYear(ctx, fips, year)
		if ctx.Err() != nil {
			a.logger.Debug("stream cancelled", "fips", fips, "year", year)
			return ctx.Err()
		}
		if ok {
			yc := domain.YearCount{Year: year, Count: count}
			line, encErr := domain.EncodeYearCount(yc)
			if encErr != nil {
				return encErr
			}
			if writeErr := w.WriteFrame(line); writeErr != nil {
				return fmt.Errorf("write frame: %w", writeErr)
			}
			a.metrics.YearsEmitted.Inc()
			a.publish(ctx, fips, yc)
		} else {
			// First page failed: the year is silently omitted. Consumers
			// tolerate gaps in the window.
			a.metrics.YearsSkipped.Inc()
		}

		// Pace every year boundary, omitted years included; a skipped year
		// usually means the upstream is throttling, which is when the delay
		// matters most.
		if year < endYear && !a.sleep(ctx, a.cfg.YearPacing) {
			return ctx.Err()
		}
	}

	a.ready.Store(true)
	a.metrics.StreamsCompleted.Inc()
	a.metrics.StreamDuration.Observe(a.clock.Since(start).Seconds())
	a.logger.Info("stream completed", "fips", fips, "duration", a.clock.Since(start))
	return nil
}

// aggregateYear pages through one year's records and counts distinct wet
// dates. ok is false when no page succeeded at all.
func (a *Aggregator) aggregateYear(ctx context.Context, fips string, year int) (count int, ok bool) {
	// At most one entry per calendar day, so the set stays tiny.
	dates := make(map[string]struct{}, 64)

	fetched := 0
	total := 0
	offset := 1
	firstPage := true

	for {
		page, err := a.records.DailyPrecipitation(ctx, fips, year, offset, a.cfg.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return 0, false
			}
			a.logger.Warn("page fetch failed, aborting year", "fips", fips, "year", year, "offset", offset, "error", err)
			a.metrics.PageErrors.Inc()
			if firstPage {
				return 0, false
			}
			// Later pages failed: whatever accumulated still counts.
			break
		}
		a.metrics.PagesFetched.Inc()

		if firstPage {
			// The resultset count is authoritative only on the first page.
			total = page.Total
			firstPage = false
		}
		if len(page.Records) == 0 {
			break
		}

		for _, rec := range page.Records {
			if rec.Value > a.cfg.WetThreshold {
				dates[rec.Date] = struct{}{}
			}
		}

		fetched += len(page.Records)
		offset += a.cfg.PageSize
		if fetched >= total {
			break
		}
	}

	return len(dates), true
}

// publish forwards the frame to the optional sink; failures are logged only.
func (a *Aggregator) publish(ctx context.Context, fips string, yc domain.YearCount) {
	if a.sink == nil {
		return
	}
	if err := a.sink.PublishYearCount(ctx, fips, yc); err != nil {
		a.logger.Warn("sink publish failed", "fips", fips, "year", yc.Year, "error", err)
		a.metrics.SinkErrors.Inc()
		return
	}
	a.metrics.SinkPublished.Inc()
}

func (a *Aggregator) writeErrorFrame(w domain.FrameWriter, msg string) error {
	line, err := domain.EncodeError(msg)
	if err != nil {
		return err
	}
	if err := w.WriteFrame(line); err != nil {
		return fmt.Errorf("write error frame: %w", err)
	}
	return nil
}

// sleep waits d on the injected clock, returning false if the context was
// cancelled first.
func (a *Aggregator) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-a.clock.After(d):
		return true
	}
}
