// ata - Ask the Terminal Anything. Streams chat completions into the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/jeranaias/ata/internal/cli"
	"github.com/jeranaias/ata/internal/stream"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
	stream.UserAgent = "ata/" + Version
}

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
