package stream

import (
	"sort"
	"sync"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
)

// Series is a growable year→count collection. It is safe for one writer and
// any number of concurrent snapshot readers, which is how a progressive
// chart consumes it.
type Series struct {
	mu     sync.RWMutex
	counts map[int]int
}

// NewSeries creates an empty series.
func NewSeries() *Series {
	return &Series{counts: make(map[int]int)}
}

// Add records a year count. Duplicate years collapse, last value wins; the
// producer never emits duplicates under normal operation, so this only
// matters for replayed or merged streams.
func (s *Series) Add(yc domain.YearCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[yc.Year] = yc.Count
}

// Len returns the number of distinct years collected so far.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counts)
}

// Snapshot returns the collected counts sorted ascending by year.
func (s *Series) Snapshot() []domain.YearCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.YearCount, 0, len(s.counts))
	for year, count := range s.counts {
		out = append(out, domain.YearCount{Year: year, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}
