// Package domain models the rainfall-trends wire protocol and the upstream
// data it is derived from.
//
// # Data Source
//
// Daily precipitation observations come from the NOAA Climate Data Online
// (CDO) v2 API, dataset GHCND, datatype PRCP. Records are queried per county
// (FIPS code) and calendar year, paginated at up to 1000 records per page.
// A single date may appear in many records because every reporting station
// in the county contributes its own observation for that day.
//
// # Wire Protocol
//
// A stream is a sequence of newline-terminated UTF-8 lines, each holding one
// JSON object. Two frame shapes exist:
//
//	{"year":"2020","count":141}   one aggregated year
//	{"error":"..."}               a failure signal
//
// The year is serialized as a string for historical compatibility with the
// first dashboard consumer; decoders accept both string and numeric years.
// Frames are emitted in ascending year order. A year whose fetch failed
// outright is omitted rather than marked, so consumers must tolerate gaps.
// The producer always closes the stream, whether it ended cleanly, was
// cancelled, or died with an error frame.
package domain
