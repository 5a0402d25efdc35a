// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jeranaias/ata/internal/config"
	"github.com/jeranaias/ata/internal/stream"
	"github.com/jeranaias/ata/internal/util"
)

// MaxErrorRunes caps the diagnostic text printed after the error label.
// Protocol errors echo raw server output, which can be an entire HTML page.
const MaxErrorRunes = 4000

// BannerTitle is printed once at start-up.
const BannerTitle = "Ask the Terminal Anything"

// Terminal writes engine output to a pair of streams. Response text goes
// to out unbuffered; errors go to errOut.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

var _ stream.Display = (*Terminal)(nil)

// NewTerminal creates a Terminal writing to out and errOut.
func NewTerminal(out, errOut io.Writer) *Terminal {
	return &Terminal{out: out, errOut: errOut}
}

// Begin moves off the line the prompt was typed on.
func (t *Terminal) Begin() {
	t.write(t.out, "\n")
}

// ResponseLabel prints the bold "Response:" line.
func (t *Terminal) ResponseLabel() {
	t.write(t.out, renderLabel(ResponseLabel)+"\n")
}

// Text prints a response fragment as-is.
func (t *Terminal) Text(s string) {
	t.write(t.out, s)
}

// Error prints the bold "Error:" label and msg on the next line.
func (t *Terminal) Error(msg string) {
	t.write(t.errOut, renderLabel(ErrorLabel)+"\n"+util.TruncateRunes(msg, MaxErrorRunes)+"\n")
}

// Notice prints an informational line.
func (t *Terminal) Notice(msg string) {
	t.write(t.out, msg+"\n")
}

// Idle ends a request with a blank line and the prompt label.
func (t *Terminal) Idle() {
	t.write(t.out, "\n\n")
	t.Prompt()
}

// Prompt prints the bold "Prompt:" line. Input is read on the line below.
func (t *Terminal) Prompt() {
	t.write(t.out, renderLabel(PromptLabel)+"\n")
}

// Banner prints the title and, unless hidden, the masked config with each
// line cut to width columns.
func (t *Terminal) Banner(cfg *config.Config, showConfig bool, width int) {
	var b strings.Builder
	b.WriteString(BannerStyle.Render(BannerTitle))
	b.WriteString("\n")
	if showConfig {
		for _, line := range strings.Split(cfg.String(), "\n") {
			b.WriteString(DimStyle.Render(util.TruncateWidth(line, width)))
			b.WriteString("\n")
		}
	}
	t.write(t.out, b.String())
}

func (t *Terminal) write(w io.Writer, s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprint(w, s)
}
