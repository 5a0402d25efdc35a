// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logging environment variables.
const (
	EnvLogLevel  = "ATA_LOG"        // debug|info|warn|error
	EnvLogFormat = "ATA_LOG_FORMAT" // text|json
)

// InitLogger configures the process-wide logrus logger.
// Diagnostics go to out (stderr in production) so they never interleave
// with streamed response text on stdout. verbose forces debug level.
func InitLogger(out io.Writer, verbose bool) {
	logrus.SetOutput(out)

	switch strings.ToLower(os.Getenv(EnvLogFormat)) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}

	level := logrus.WarnLevel
	if value := os.Getenv(EnvLogLevel); value != "" {
		parsed, err := logrus.ParseLevel(value)
		if err != nil {
			logrus.Warnf("Invalid log level '%s', using 'warn' instead. Error: %v", value, err)
		} else {
			level = parsed
		}
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
}
