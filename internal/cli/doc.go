// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ata command line: flag parsing, the start-up
// banner, help text, and the interactive prompt loop.
//
// # Foreground Loop
//
// RunChat reads lines with liner and hands them to a session.Worker. The
// worker streams each response through a Terminal, which implements
// stream.Display. While a response is streaming:
//
//   - Enter on a non-empty line aborts it and queues the new line
//   - Ctrl-C aborts it
//
// When idle, Ctrl-C or Ctrl-D exits.
//
// # Styling
//
// Labels are rendered bold with lipgloss. Colours follow the terminal's
// termenv profile and are disabled for non-TTY output or when NO_COLOR is set.
package cli
