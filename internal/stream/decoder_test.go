// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader yields one predetermined byte slice per Read call, so tests
// control exactly where network chunk boundaries fall.
type chunkReader struct {
	chunks [][]byte
	err    error // returned after all chunks, instead of io.EOF, when set
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func collect(t *testing.T, d *Decoder) (string, []string) {
	t.Helper()
	var all strings.Builder
	var chunks []string
	for {
		chunk, err := d.Next(context.Background())
		if err == io.EOF {
			return all.String(), chunks
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		all.WriteString(chunk)
		chunks = append(chunks, chunk)
	}
}

func TestDecodeSingleChunk(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: [][]byte{[]byte("Hi there!")}})
	got, chunks := collect(t, d)
	if got != "Hi there!" {
		t.Errorf("got %q", got)
	}
	if len(chunks) != 1 {
		t.Errorf("chunk count = %d, want 1", len(chunks))
	}
}

func TestDecodeMultibyteSplitAcrossChunks(t *testing.T) {
	// "é" is 0xC3 0xA9; the boundary falls between its two bytes.
	d := NewDecoder(&chunkReader{chunks: [][]byte{
		{'c', 'a', 'f', 0xC3},
		{0xA9, '!'},
	}})
	got, chunks := collect(t, d)
	if got != "café!" {
		t.Errorf("got %q, want %q", got, "café!")
	}
	// The first chunk must hold only complete characters.
	for i, c := range chunks {
		if !strings.HasPrefix("café!", strings.Join(chunks[:i+1], "")) {
			t.Errorf("chunk %d %q breaks prefix property", i, c)
		}
	}
	if chunks[0] != "caf" {
		t.Errorf("first chunk = %q, want %q (partial rune withheld)", chunks[0], "caf")
	}
}

func TestDecodeFourByteRuneSplitThreeWays(t *testing.T) {
	// U+1F600 is F0 9F 98 80, spread over three reads.
	d := NewDecoder(&chunkReader{chunks: [][]byte{
		{0xF0},
		{0x9F, 0x98},
		{0x80, 'o', 'k'},
	}})
	got, _ := collect(t, d)
	if got != "\U0001F600ok" {
		t.Errorf("got %q", got)
	}
}

func TestDecodeOneBytePerRead(t *testing.T) {
	text := "日本語 mixed テキスト ok"
	raw := []byte(text)
	var chunks [][]byte
	for _, b := range raw {
		chunks = append(chunks, []byte{b})
	}
	d := NewDecoder(&chunkReader{chunks: chunks})
	got, _ := collect(t, d)
	if got != text {
		t.Errorf("got %q, want %q", got, text)
	}
}

func TestDecodeInvalidByte(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: [][]byte{
		{'o', 'k', 0xFF, 'x'},
	}})
	ctx := context.Background()

	chunk, err := d.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if chunk != "ok" {
		t.Errorf("valid prefix = %q, want %q", chunk, "ok")
	}

	_, err = d.Next(ctx)
	if !IsDecodeError(err) {
		t.Fatalf("err = %v, want DecodeError", err)
	}

	// Terminal result repeats.
	_, err2 := d.Next(ctx)
	if !IsDecodeError(err2) {
		t.Errorf("second call err = %v, want DecodeError", err2)
	}
}

func TestDecodeTruncatedRuneAtEOF(t *testing.T) {
	// Stream ends after the first byte of a two-byte rune.
	d := NewDecoder(&chunkReader{chunks: [][]byte{{'a', 0xC3}}})
	ctx := context.Background()

	chunk, err := d.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if chunk != "a" {
		t.Errorf("chunk = %q, want %q", chunk, "a")
	}

	_, err = d.Next(ctx)
	if !IsDecodeError(err) {
		t.Errorf("err = %v, want DecodeError", err)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	d := NewDecoder(&chunkReader{})
	_, err := d.Next(context.Background())
	if err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestReaderErrorPassesThrough(t *testing.T) {
	transportErr := errors.New("connection reset")
	d := NewDecoder(&chunkReader{
		chunks: [][]byte{[]byte("partial ")},
		err:    transportErr,
	})
	ctx := context.Background()

	chunk, err := d.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if chunk != "partial " {
		t.Errorf("chunk = %q", chunk)
	}

	_, err = d.Next(ctx)
	if !errors.Is(err, transportErr) {
		t.Errorf("err = %v, want %v", err, transportErr)
	}
	if IsDecodeError(err) {
		t.Error("transport error misclassified as decode error")
	}
}

func TestNextRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDecoder(&chunkReader{chunks: [][]byte{[]byte("data")}})
	if _, err := d.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDrain(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: [][]byte{
		[]byte("Hel"), []byte("lo "), []byte("wor"), []byte("ld"),
	}})
	var got strings.Builder
	if err := d.Drain(context.Background(), func(c string) {
		got.WriteString(c)
	}); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got.String() != "Hello world" {
		t.Errorf("got %q", got.String())
	}
}

func TestDrainReportsDecodeError(t *testing.T) {
	d := NewDecoder(&chunkReader{chunks: [][]byte{{0x80}}})
	err := d.Drain(context.Background(), func(string) {})
	if !IsDecodeError(err) {
		t.Errorf("err = %v, want DecodeError", err)
	}
}
