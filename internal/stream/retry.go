// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// MaxAttempts is the number of attempts made for one prompt, the first included.
	MaxAttempts = 3

	// RetryDelay is the fixed back-off between attempts.
	RetryDelay = 500 * time.Millisecond

	// TransientErrorType is the provider error kind that is worth retrying.
	TransientErrorType = "server_error"
)

// RetryDecision is the outcome of evaluating an unstructured first frame.
type RetryDecision struct {
	// Retry is true when the prompt should be sent again.
	Retry bool

	// Message is what to show when the attempt fails instead: the provider's
	// message when the line decoded to an error object, else the raw line.
	Message string

	// ErrorType is the provider error kind, if any.
	ErrorType string
}

// ShouldRetry evaluates an unstructured line received before any content was
// shown. Only a JSON error object of TransientErrorType is retried, and only
// while attempt is below MaxAttempts.
func ShouldRetry(line string, attempt int) RetryDecision {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &body); err != nil || !isPresent(body.Error) {
		return RetryDecision{Message: line}
	}

	ev := decodeError(body.Error, line)
	decision := RetryDecision{Message: ev.Text, ErrorType: ev.ErrorType}
	if ev.ErrorType == TransientErrorType && attempt < MaxAttempts {
		decision.Retry = true
	}
	return decision
}

// RetryNotice is the informational line printed before a retry.
func RetryNotice(attempt int) string {
	return fmt.Sprintf("Server responded with a `%s`. Trying again... (%d/%d)",
		TransientErrorType, attempt, MaxAttempts)
}
