// Command fetch consumes rainfall streams from a running API instance,
// printing each year as it arrives and, optionally, derived facts once a
// stream completes. Extra "lat,lon" arguments fetch additional locations;
// repeated locations are served from the in-process result cache instead of
// hitting the API again.
//
// Usage:
//
//	go run ./cmd/fetch -url http://localhost:8080 -lat 30.2672 -lon -97.7431 -facts [lat,lon ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/couchcryptid/rainfall-trends/internal/facts"
	"github.com/couchcryptid/rainfall-trends/internal/stream"
)

type location struct {
	lat float64
	lon float64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the rainfall API")
	lat := flag.Float64("lat", math.NaN(), "latitude of the location")
	lon := flag.Float64("lon", math.NaN(), "longitude of the location")
	onError := flag.String("on-error", "failfast", "error frame handling: failfast or continue")
	showFacts := flag.Bool("facts", false, "print derived facts after each stream ends")
	flag.Parse()

	if math.IsNaN(*lat) || math.IsNaN(*lon) {
		flag.Usage()
		os.Exit(1)
	}

	locations := []location{{lat: *lat, lon: *lon}}
	for _, arg := range flag.Args() {
		loc, err := parseLocation(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid location %q: %v\n", arg, err)
			os.Exit(1)
		}
		locations = append(locations, loc)
	}

	var policy stream.ErrorFramePolicy
	switch *onError {
	case "failfast":
		policy = stream.FailFast
	case "continue":
		policy = stream.Continue
	default:
		fmt.Fprintf(os.Stderr, "invalid -on-error %q: want failfast or continue\n", *onError)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := run(ctx, *baseURL, locations, policy, *showFacts); code != 0 {
		os.Exit(code)
	}
}

// parseLocation parses a "lat,lon" argument.
func parseLocation(s string) (location, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return location{}, fmt.Errorf("want lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return location{}, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return location{}, fmt.Errorf("bad longitude: %w", err)
	}
	return location{lat: lat, lon: lon}, nil
}

func run(ctx context.Context, baseURL string, locations []location, policy stream.ErrorFramePolicy, showFacts bool) int {
	cache := stream.NewCache()
	code := 0

	for _, loc := range locations {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "interrupted")
			return 1
		}
		fmt.Printf("# %g,%g\n", loc.lat, loc.lon)

		key := stream.Key(loc.lat, loc.lon)
		cached := true
		res := cache.GetOrFetch(key, func() stream.Result {
			cached = false
			return fetchSeries(ctx, baseURL, loc, policy)
		})
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "stream failed: %v\n", res.Err)
			code = 1
			continue
		}
		if cached {
			// A live stream already printed year lines as they arrived;
			// replayed results print from the cached snapshot.
			for _, yc := range res.Counts {
				fmt.Printf("%d\t%d\n", yc.Year, yc.Count)
			}
		}

		fmt.Fprintf(os.Stderr, "received %d year(s)%s\n", len(res.Counts), cachedSuffix(cached))
		if showFacts {
			printFacts(res.Counts)
		}
	}
	return code
}

// fetchSeries streams one location, printing frames progressively, and
// returns the terminal result for caching.
func fetchSeries(ctx context.Context, baseURL string, loc location, policy stream.ErrorFramePolicy) stream.Result {
	u := fmt.Sprintf("%s/api/v1/rainfall/extreme?lat=%g&lon=%g", strings.TrimRight(baseURL, "/"), loc.lat, loc.lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return stream.Result{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return stream.Result{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return stream.Result{Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	series := stream.NewSeries()
	dec := stream.NewDecoder(resp.Body, stream.WithErrorFramePolicy(policy))
	err = dec.Decode(ctx, func(yc domain.YearCount) {
		series.Add(yc)
		fmt.Printf("%d\t%d\n", yc.Year, yc.Count)
	})
	if err != nil {
		return stream.Result{Err: err}
	}
	return stream.Result{Counts: series.Snapshot()}
}

func cachedSuffix(cached bool) string {
	if cached {
		return " (cached)"
	}
	return ""
}

func printFacts(counts []domain.YearCount) {
	f := facts.Rainfall(counts)
	if f.AverageWetDays != nil {
		fmt.Printf("average wet days per year: %.1f\n", *f.AverageWetDays)
	}
	if f.WettestYear != nil {
		fmt.Printf("wettest year: %d (%d wet days)\n", f.WettestYear.Year, f.WettestYear.Count)
	}
	if f.ChangePerYear != nil {
		fmt.Printf("trend: %+.2f wet days per year\n", *f.ChangePerYear)
	}
}
