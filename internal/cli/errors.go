// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and command-line errors.
//
// Run returns an exit code rather than calling os.Exit so that it can be
// tested; main passes it straight to os.Exit.

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/ata/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a missing or invalid configuration file
	ExitConfigError = 3
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is an invalid command line.
type UsageError struct {
	Flag   string // Offending flag or argument
	Reason string // Why it was rejected
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Flag, e.Reason)
}

// ExitCodeFor maps an error to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	switch {
	case errors.Is(err, config.ErrNotFound),
		errors.Is(err, config.ErrMalformed),
		errors.As(err, &validateErrs):
		return ExitConfigError
	}

	return ExitGeneralError
}
