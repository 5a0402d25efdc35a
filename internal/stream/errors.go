// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"fmt"
)

// Sentinel errors for attempt failures.
var (
	// ErrProtocolShape indicates a frame that does not have the expected shape.
	ErrProtocolShape = errors.New("unexpected stream format")

	// ErrInvalidEncoding indicates bytes that are not valid UTF-8.
	ErrInvalidEncoding = errors.New("invalid utf-8 in stream")

	// ErrNotConfigured indicates the client has no credential.
	ErrNotConfigured = errors.New("API key not configured")

	errFrameTooLarge = fmt.Errorf("frame exceeds %d bytes", MaxFrameSize)
)

// ConnectionError is returned when the request could not be dispatched
// (DNS, TLS, connect or timeout failure before any data arrived).
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ProviderError is a structured error reported by the provider inside the stream.
type ProviderError struct {
	Type    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("provider error [%s]: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

// ProtocolError carries the raw offending content of a non-conforming frame.
type ProtocolError struct {
	Raw string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %s", ErrProtocolShape, e.Raw)
}

func (e *ProtocolError) Unwrap() error {
	return ErrProtocolShape
}

// DecodeError is returned when a frame expected to be text or JSON cannot be decoded.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HTTPStatusError is returned when a non-2xx response carried nothing to classify.
type HTTPStatusError struct {
	Status     string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %s", e.Status)
}

// DisplayMessage returns the text shown to the user after the error label.
// Provider errors show only the provider's message and protocol errors show
// the raw content for diagnosis.
func DisplayMessage(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Message
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr.Raw
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Err.Error()
	}
	return err.Error()
}
