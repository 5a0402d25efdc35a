// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const serverErrorLine = `{"error":{"type":"server_error","message":"The server had an error while processing your request."}}`

func TestShouldRetry_TransientBelowCeiling(t *testing.T) {
	for _, attempt := range []int{1, 2} {
		d := ShouldRetry(serverErrorLine, attempt)
		assert.True(t, d.Retry, "attempt %d", attempt)
		assert.Equal(t, TransientErrorType, d.ErrorType)
	}
}

func TestShouldRetry_CeilingReached(t *testing.T) {
	d := ShouldRetry(serverErrorLine, MaxAttempts)
	assert.False(t, d.Retry)
	assert.Equal(t, "The server had an error while processing your request.", d.Message)
}

func TestShouldRetry_OtherErrorType(t *testing.T) {
	d := ShouldRetry(`{"error":{"type":"invalid_request_error","message":"bad key"}}`, 1)
	assert.False(t, d.Retry)
	assert.Equal(t, "bad key", d.Message)
	assert.Equal(t, "invalid_request_error", d.ErrorType)
}

func TestShouldRetry_NeverRetriesNonJSON(t *testing.T) {
	lines := []string{
		"<html>502 Bad Gateway</html>",
		"server_error",
		`{"error":`,
		`{"message":"no error field"}`,
		`{"error":null}`,
	}
	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			for attempt := 1; attempt <= MaxAttempts; attempt++ {
				d := ShouldRetry(line, attempt)
				assert.False(t, d.Retry)
				assert.Equal(t, line, d.Message)
				assert.Empty(t, d.ErrorType)
			}
		})
	}
}

func TestRetryNotice(t *testing.T) {
	assert.Equal(t, "Server responded with a `server_error`. Trying again... (1/3)", RetryNotice(1))
	assert.Equal(t, "Server responded with a `server_error`. Trying again... (2/3)", RetryNotice(2))
}
