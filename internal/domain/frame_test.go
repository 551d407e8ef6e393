package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeYearCount_WireShape(t *testing.T) {
	line, err := EncodeYearCount(YearCount{Year: 2020, Count: 141})
	require.NoError(t, err)

	assert.Equal(t, `{"year":"2020","count":141}`+"\n", string(line))
}

func TestEncodeError_WireShape(t *testing.T) {
	line, err := EncodeError("could not find a valid county for this location")
	require.NoError(t, err)

	assert.Equal(t, `{"error":"could not find a valid county for this location"}`+"\n", string(line))
}

func TestParseFrame_RoundTrip(t *testing.T) {
	want := YearCount{Year: 2007, Count: 88}
	line, err := EncodeYearCount(want)
	require.NoError(t, err)

	frame, err := ParseFrame(line)
	require.NoError(t, err)
	require.NotNil(t, frame.YearCount)
	assert.Equal(t, want, *frame.YearCount)
	assert.False(t, frame.IsError())
}

func TestParseFrame_NumericYear(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"year":2015,"count":3}`))
	require.NoError(t, err)
	require.NotNil(t, frame.YearCount)
	assert.Equal(t, YearCount{Year: 2015, Count: 3}, *frame.YearCount)
}

func TestParseFrame_ErrorFrame(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"error":"NOAA API error for 2012"}`))
	require.NoError(t, err)
	assert.True(t, frame.IsError())
	assert.Equal(t, "NOAA API error for 2012", frame.Err)
	assert.Nil(t, frame.YearCount)
}

func TestParseFrame_Malformed(t *testing.T) {
	cases := map[string]string{
		"truncated json":   `{"year":"2020","cou`,
		"missing year":     `{"count":5}`,
		"missing count":    `{"year":"2020"}`,
		"non-numeric year": `{"year":"twenty","count":5}`,
		"string count":     `{"year":"2020","count":"5"}`,
		"bare array":       `[2020,5]`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFrame([]byte(line))
			assert.Error(t, err)
		})
	}
}

func TestWindow(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	start, end := Window(25)
	assert.Equal(t, 2000, start)
	assert.Equal(t, 2025, end)
	assert.Equal(t, 26, end-start+1, "window is lookback+1 years inclusive")
}
