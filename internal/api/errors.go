// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the common failure classes. The typed errors below
// wrap these so callers can branch with errors.Is without giving up the
// detail carried in the type.
var (
	// ErrNoCredential means no bearer token is configured. Requests fail
	// with this before any network traffic.
	ErrNoCredential = errors.New("no credential configured")

	// ErrUnauthorized means the service rejected the credential.
	ErrUnauthorized = errors.New("credential rejected by service")

	// ErrNotFound means the addressed resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrRateLimited means the service returned 429.
	ErrRateLimited = errors.New("rate limited by service")
)

// =============================================================================
// AUTH ERROR
// =============================================================================

// AuthError reports a missing or rejected credential.
type AuthError struct {
	Reason string
	Err    error // ErrNoCredential or ErrUnauthorized
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "authentication failed"
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// =============================================================================
// TRANSPORT ERROR
// =============================================================================

// TransportError reports a network failure or a non-success HTTP status.
// Status is 0 when the request never produced a response.
type TransportError struct {
	Op     string // short description of the attempted operation
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": transport failure"
}

func (e *TransportError) Unwrap() error { return e.Err }

// =============================================================================
// VALIDATION ERROR
// =============================================================================

// ValidationError reports input rejected before or by the service without
// any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// =============================================================================
// CLASSIFIERS
// =============================================================================

// IsAuth reports whether err is (or wraps) an AuthError.
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusOf returns the HTTP status attached to err, or 0.
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
