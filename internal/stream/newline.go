// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

const (
	escapeChar    = '\\'
	escapeNewline = `\n`
)

// NewlineFixer repairs newline escapes that the model splits across two
// deltas, e.g. ["\", "n"] instead of ["\n"].
//
// Pending holds text only while the last processed delta ended in a single
// unpaired backslash.
type NewlineFixer struct {
	pending []string
}

// Process returns the display-ready form of delta.
//
// A delta ending in a lone backslash is held back and "" is returned. The next
// delta is joined with everything held back and every `\n` escape in the
// joined text becomes a line break. Deltas that arrive with nothing held back
// are returned unchanged.
func (n *NewlineFixer) Process(delta string) string {
	if endsWithLoneEscape(delta) {
		n.pending = append(n.pending, delta)
		return ""
	}
	if len(n.pending) == 0 {
		return delta
	}
	joined := strings.Join(n.pending, "") + delta
	n.pending = n.pending[:0]
	return strings.ReplaceAll(joined, escapeNewline, "\n")
}

// Pending reports whether text is being held back.
func (n *NewlineFixer) Pending() bool {
	return len(n.pending) > 0
}

// Flush returns held-back text verbatim and clears it. Called when the
// stream ends so a trailing backslash is not lost.
func (n *NewlineFixer) Flush() string {
	if len(n.pending) == 0 {
		return ""
	}
	out := strings.Join(n.pending, "")
	n.pending = n.pending[:0]
	return out
}

// endsWithLoneEscape reports whether s ends in an odd run of backslashes.
func endsWithLoneEscape(s string) bool {
	count := 0
	for i := len(s) - 1; i >= 0 && s[i] == escapeChar; i-- {
		count++
	}
	return count%2 == 1
}
