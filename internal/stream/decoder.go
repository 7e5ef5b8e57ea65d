// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// readBufSize is the network read granularity. Chunks handed to callers
// are at most this large; they are usually much smaller.
const readBufSize = 4096

// DecodeError reports a malformed reply stream: bytes that are not valid
// UTF-8, or a stream that ended in the middle of a character.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return "stream decode failed"
	}
	return fmt.Sprintf("stream decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder reads a raw reply stream and yields validated UTF-8 text chunks.
// It is a pull-based iterator: call Next until io.EOF.
//
// A Decoder is not safe for concurrent use; one goroutine drives one
// stream.
type Decoder struct {
	r io.Reader
	t transform.Transformer

	readBuf []byte
	pending []byte // bytes read but not yet validated (possible partial rune)
	dst     []byte
	eof  bool  // underlying reader reached EOF
	term error // terminal result, repeated once reached
}

// NewDecoder wraps a reply body. The decoder does not close r; stream
// ownership stays with the caller.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		t:       encoding.UTF8Validator,
		readBuf: make([]byte, readBufSize),
		dst:     make([]byte, readBufSize),
	}
}

// Next returns the next non-empty text chunk.
//
// At a clean end of stream it returns ("", io.EOF); once a terminal
// result is reached every later call repeats it. Malformed bytes return a
// *DecodeError. Errors from the underlying reader and from ctx pass
// through unchanged.
func (d *Decoder) Next(ctx context.Context) (string, error) {
	if d.term != nil {
		return "", d.term
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// Validate what we have buffered before reading more.
		if len(d.pending) > 0 || d.eof {
			chunk, err := d.flushPending()
			if err != nil {
				// Deliver the valid prefix before surfacing the error.
				d.term = err
				if chunk != "" {
					return chunk, nil
				}
				return "", err
			}
			if chunk != "" {
				return chunk, nil
			}
			if d.eof && len(d.pending) == 0 {
				d.term = io.EOF
				return "", io.EOF
			}
		}

		n, err := d.r.Read(d.readBuf)
		if n > 0 {
			d.pending = append(d.pending, d.readBuf[:n]...)
		}
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil:
			d.term = err
			return "", err
		}
	}
}

// flushPending runs the validator over the pending bytes. It returns the
// longest complete prefix as a chunk and keeps any partial rune tail for
// the next read. At EOF a leftover tail is a decode error.
func (d *Decoder) flushPending() (string, error) {
	var out []byte
	for len(d.pending) > 0 {
		nDst, nSrc, err := d.t.Transform(d.dst, d.pending, d.eof)
		out = append(out, d.dst[:nDst]...)
		d.pending = d.pending[nSrc:]

		switch {
		case err == nil:
			// Everything pending validated.
		case errors.Is(err, transform.ErrShortDst):
			// dst filled, go around again.
			continue
		case errors.Is(err, transform.ErrShortSrc):
			// Partial rune at the end of the buffer; wait for more bytes.
			// Compact so the slice does not grow unboundedly.
			d.pending = append([]byte(nil), d.pending...)
			return string(out), nil
		default:
			return string(out), &DecodeError{Err: err}
		}
		break
	}
	return string(out), nil
}

// Drain pulls every remaining chunk, invoking onChunk for each, and
// returns nil exactly once at a clean end of stream.
func (d *Decoder) Drain(ctx context.Context, onChunk func(string)) error {
	for {
		chunk, err := d.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		onChunk(chunk)
	}
}
