// Package stream consumes a rainfall wire stream: it reassembles
// newline-delimited frames across arbitrary chunk boundaries and grows an
// ordered year-count series as data arrives.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
)

// ErrorFramePolicy controls what the decoder does when an error frame
// arrives mid-stream.
type ErrorFramePolicy int

const (
	// FailFast stops decoding and surfaces the error frame as a terminal
	// *FrameError. Frames decoded before it remain available.
	FailFast ErrorFramePolicy = iota
	// Continue logs the error frame and keeps decoding.
	Continue
)

// FrameError is the terminal failure carried by an error frame.
type FrameError struct {
	Msg string
}

func (e *FrameError) Error() string { return "stream error: " + e.Msg }

const defaultChunkSize = 4096

// Decoder incrementally decodes one wire stream. It is single-use: create a
// new Decoder per stream.
type Decoder struct {
	r      io.Reader
	policy ErrorFramePolicy
	logger *slog.Logger
	chunk  int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithErrorFramePolicy sets how mid-stream error frames are handled.
func WithErrorFramePolicy(p ErrorFramePolicy) Option {
	return func(d *Decoder) { d.policy = p }
}

// WithLogger sets the logger for dropped lines and ignored error frames.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) { d.logger = l }
}

// withChunkSize shrinks the read buffer; tests use it to force frame splits.
func withChunkSize(n int) Option {
	return func(d *Decoder) { d.chunk = n }
}

// NewDecoder wraps a byte stream, typically an HTTP response body.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		r:      r,
		policy: FailFast,
		logger: slog.Default(),
		chunk:  defaultChunkSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads the stream to completion, calling onFrame for every decoded
// YearCount in arrival order. It returns nil on a clean end of stream or on
// cancellation, and a *FrameError when an error frame terminates the stream
// under FailFast. Per the protocol, a trailing fragment without a final
// newline is discarded, and malformed lines are dropped with a log.
func (d *Decoder) Decode(ctx context.Context, onFrame func(domain.YearCount)) error {
	// pending holds the unconsumed tail carried between chunk arrivals: a
	// frame may be split at any byte offset, including mid-rune, so the
	// buffer is byte-oriented and only ever cut at newline positions.
	var pending []byte
	buf := make([]byte, d.chunk)

	for {
		if ctx.Err() != nil {
			// Cancellation is a clean finish, not a failure.
			return nil
		}

		n, readErr := d.r.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			lines := bytes.Split(pending, []byte{'\n'})
			for _, line := range lines[:len(lines)-1] {
				if err := d.processLine(line, onFrame); err != nil {
					return err
				}
			}
			// The final segment is incomplete (or empty); it becomes the new
			// pending tail. The copy must happen after the lines above are
			// processed because they alias the same backing array.
			pending = append(pending[:0], lines[len(lines)-1]...)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				// Whatever is left in pending lacks its newline; drop it.
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return readErr
		}
	}
}

func (d *Decoder) processLine(line []byte, onFrame func(domain.YearCount)) error {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil
	}

	frame, err := domain.ParseFrame(line)
	if err != nil {
		// Malformed lines never abort decoding.
		d.logger.Debug("dropping malformed stream line", "line", string(line), "error", err)
		return nil
	}

	if frame.IsError() {
		if d.policy == Continue {
			d.logger.Warn("ignoring stream error frame", "error", frame.Err)
			return nil
		}
		return &FrameError{Msg: frame.Err}
	}

	onFrame(*frame.YearCount)
	return nil
}

// DecodeAll drains the stream into a Series and returns its sorted snapshot.
func (d *Decoder) DecodeAll(ctx context.Context) ([]domain.YearCount, error) {
	series := NewSeries()
	err := d.Decode(ctx, series.Add)
	return series.Snapshot(), err
}
