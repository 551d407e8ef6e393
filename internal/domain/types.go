package domain

import "context"

// YearCount is the number of distinct wet days observed in one calendar year
// for one location. Immutable once emitted.
type YearCount struct {
	Year  int
	Count int
}

// YearlyTemp is the mean temperature for one calendar year, in °F.
type YearlyTemp struct {
	Year int     `json:"year"`
	Avg  float64 `json:"avg"`
}

// DailyRecord is one station-day precipitation observation from upstream.
// Value is in the upstream's standard units; Date keeps the upstream's
// timestamp string because dedup is by string identity, not by parsed time.
type DailyRecord struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// RecordPage is one page of daily records. Total carries the authoritative
// record count reported by upstream for the whole query; it is only
// meaningful on the first page of a year.
type RecordPage struct {
	Records []DailyRecord
	Total   int
}

// RegionLookup resolves a coordinate pair to a county FIPS identifier.
// An empty identifier with a nil error means the point is outside any county.
type RegionLookup interface {
	CountyFIPS(ctx context.Context, lat, lon float64) (string, error)
}

// RecordSource pages through daily precipitation records for a county-year.
type RecordSource interface {
	DailyPrecipitation(ctx context.Context, fips string, year, offset, limit int) (RecordPage, error)
}

// FrameWriter receives encoded wire frames, one full line per call.
type FrameWriter interface {
	WriteFrame(line []byte) error
}
