package stream

import (
	"errors"
	"sync"
	"testing"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_SnapshotSortedAscending(t *testing.T) {
	s := NewSeries()
	s.Add(domain.YearCount{Year: 2010, Count: 5})
	s.Add(domain.YearCount{Year: 2000, Count: 1})
	s.Add(domain.YearCount{Year: 2005, Count: 3})

	assert.Equal(t, []domain.YearCount{
		{Year: 2000, Count: 1},
		{Year: 2005, Count: 3},
		{Year: 2010, Count: 5},
	}, s.Snapshot())
}

func TestSeries_DuplicateYearLastWins(t *testing.T) {
	s := NewSeries()
	s.Add(domain.YearCount{Year: 2000, Count: 1})
	s.Add(domain.YearCount{Year: 2000, Count: 7})

	require.Equal(t, 1, s.Len())
	assert.Equal(t, 7, s.Snapshot()[0].Count)
}

func TestSeries_ConcurrentReadersDuringWrites(t *testing.T) {
	s := NewSeries()
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for year := 2000; year < 2100; year++ {
			s.Add(domain.YearCount{Year: year, Count: year % 10})
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				snap := s.Snapshot()
				for i := 1; i < len(snap); i++ {
					assert.Less(t, snap[i-1].Year, snap[i].Year)
				}
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, s.Len())
}

func TestCache_GetOrFetch(t *testing.T) {
	c := NewCache()
	calls := 0
	fetch := func() Result {
		calls++
		return Result{Counts: []domain.YearCount{{Year: 2000, Count: 3}}}
	}

	key := Key(30.2672, -97.7431)
	r1 := c.GetOrFetch(key, fetch)
	r2 := c.GetOrFetch(key, fetch)

	assert.Equal(t, 1, calls, "second lookup served from cache")
	assert.Equal(t, r1, r2)
}

func TestCache_ErrorsAreCachedToo(t *testing.T) {
	c := NewCache()
	failed := Result{Err: errors.New("could not find a valid county for this location")}
	c.Put(Key(0, 0), failed)

	got, ok := c.Get(Key(0, 0))
	require.True(t, ok)
	assert.Error(t, got.Err)
}

func TestCache_KeyDistinguishesLocations(t *testing.T) {
	assert.NotEqual(t, Key(30.1, -97.1), Key(30.1, -97.2))
	assert.Equal(t, Key(30.1, -97.1), Key(30.1, -97.1))
}
