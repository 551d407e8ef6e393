package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Frame is one decoded wire line: either a YearCount or an error signal.
type Frame struct {
	YearCount *YearCount
	Err       string
}

// IsError reports whether the frame carries a stream-level failure signal.
func (f Frame) IsError() bool { return f.Err != "" }

// wireYearCount is the on-the-wire shape of a YearCount. The `,string`
// option keeps the year quoted, matching the original protocol.
type wireYearCount struct {
	Year  int `json:"year,string"`
	Count int `json:"count"`
}

// EncodeYearCount renders a YearCount as a single newline-terminated JSON line.
func EncodeYearCount(yc YearCount) ([]byte, error) {
	return encodeLine(wireYearCount{Year: yc.Year, Count: yc.Count})
}

// EncodeError renders a failure signal as a single newline-terminated JSON line.
func EncodeError(msg string) ([]byte, error) {
	return encodeLine(struct {
		Error string `json:"error"`
	}{Error: msg})
}

func encodeLine(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return append(data, '\n'), nil
}

// ParseFrame parses one complete line into a Frame. Callers are expected to
// skip blank lines; everything else must be a JSON object with either an
// error field or a well-formed year/count pair.
func ParseFrame(line []byte) (Frame, error) {
	var raw struct {
		Year  any      `json:"year"`
		Count *float64 `json:"count"`
		Error string   `json:"error"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Frame{}, fmt.Errorf("parse frame: %w", err)
	}

	if raw.Error != "" {
		return Frame{Err: raw.Error}, nil
	}

	year, err := parseYear(raw.Year)
	if err != nil {
		return Frame{}, err
	}
	if raw.Count == nil || math.IsNaN(*raw.Count) {
		return Frame{}, errors.New("parse frame: missing or non-numeric count")
	}

	return Frame{YearCount: &YearCount{Year: year, Count: int(*raw.Count)}}, nil
}

// parseYear accepts the year as either a JSON string or a JSON number,
// mirroring the tolerance of the original consumers.
func parseYear(v any) (int, error) {
	switch y := v.(type) {
	case string:
		n, err := strconv.Atoi(y)
		if err != nil {
			return 0, fmt.Errorf("parse frame: invalid year %q", y)
		}
		return n, nil
	case float64:
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return 0, errors.New("parse frame: non-finite year")
		}
		return int(y), nil
	default:
		return 0, errors.New("parse frame: missing year")
	}
}
