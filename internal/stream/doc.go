// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns the raw byte stream of a reply into text chunks.
//
// The dialog service streams assistant replies as plain UTF-8 bytes with
// arbitrary chunk boundaries: a multi-byte character can be split across
// two network reads. The Decoder buffers the undecodable tail of each read
// and carries it into the next one, so callers always receive complete
// characters and the concatenation of all chunks equals the full reply
// byte for byte.
//
// Invalid UTF-8, including a stream that ends in the middle of a
// character, surfaces as *DecodeError. Transport failures from the
// underlying reader pass through unwrapped for the caller to classify.
package stream
