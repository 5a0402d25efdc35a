// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// help.go - Usage, keyboard shortcut and missing-config help text.

package cli

import (
	"fmt"
	"io"
	"strings"
)

// Version information (set by main)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Shortcut is one line-editing key binding.
type Shortcut struct {
	Keys   string
	Action string
}

// Shortcuts lists the line-editing bindings of the prompt.
var Shortcuts = []Shortcut{
	{"Ctrl-A, Home", "Move cursor to the beginning of line"},
	{"Ctrl-E, End", "Move cursor to end of line"},
	{"Ctrl-B, Left", "Move cursor one character left"},
	{"Ctrl-F, Right", "Move cursor one character right"},
	{"Alt-B", "Move cursor to previous word"},
	{"Alt-F", "Move cursor to next word"},
	{"Ctrl-H, Bksp", "Delete character before cursor"},
	{"Ctrl-D, Del", "Delete character under cursor (exit on empty line)"},
	{"Ctrl-W", "Delete word before cursor"},
	{"Alt-D", "Delete word after cursor"},
	{"Ctrl-K", "Delete from cursor to end of line"},
	{"Ctrl-U", "Delete from start of line to cursor"},
	{"Ctrl-Y", "Paste from yank buffer"},
	{"Ctrl-T", "Transpose characters"},
	{"Ctrl-L", "Clear screen"},
	{"Ctrl-P, Up", "Previous entry in history"},
	{"Ctrl-N, Down", "Next entry in history"},
	{"Ctrl-R", "Reverse search history"},
	{"Enter", "Send prompt (aborts a running response first)"},
	{"Ctrl-C", "Abort running response, or exit when idle"},
}

// PrintShortcuts writes the key binding table.
func PrintShortcuts(w io.Writer) {
	fmt.Fprintln(w)
	for _, s := range Shortcuts {
		fmt.Fprintf(w, "%s%s\n", KeyStyle.Render(s.Keys), s.Action)
	}
	fmt.Fprintln(w)
}

// PrintUsage writes the --help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, `ata %s - Ask the Terminal Anything

Usage:
  ata [flags]

Flags:
  -c, --config VALUE   Config file path, or profile name in the config dir
      --hide-config    Do not print the configuration at start-up
      --print-shortcuts
                       Print the keyboard shortcuts and exit
  -v, --verbose        Debug logging to stderr
      --version        Print version and exit
  -h, --help           Print this help and exit

Environment:
  ATA_API_KEY          Overrides api_key (falls back to OPENAI_API_KEY)
  ATA_MODEL            Overrides model
  ATA_BASE_URL         Overrides base_url
  ATA_LOG              Log level: debug, info, warn, error
  ATA_LOG_FORMAT       Log format: text, json
`, Version)
}

// PrintVersion writes the version line.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "ata %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// MissingConfigHelp explains how to create the config file at path.
func MissingConfigHelp(path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Could not find a configuration file at %s.\n\n", path)
	b.WriteString(`Create it with the following contents:

    api_key = "<YOUR SECRET API KEY>"
    model = "gpt-4o-mini"
    max_tokens = 500
    temperature = 0.8

Optional keys:

    base_url = "https://api.openai.com/v1"
    top_p = 1.0
    presence_penalty = 0.0
    frequency_penalty = 0.0
    request_timeout_secs = 0

Keys are created at https://platform.openai.com/account/api-keys.
A different file can be given with --config PATH, and --config NAME reads
NAME.toml from the ata config directory.
`)
	return b.String()
}
