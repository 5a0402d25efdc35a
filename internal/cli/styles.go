// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared lipgloss styles for ata output.

package cli

import (
	"github.com/charmbracelet/lipgloss"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// LabelStyle renders the Prompt/Response/Error labels.
	LabelStyle = lipgloss.NewStyle().Bold(true)

	// BannerStyle renders the start-up title.
	// Color: Cyan (#39)
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// DimStyle renders the config listing under the banner.
	// Color: Gray (#245)
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// KeyStyle renders key names in the shortcut table.
	// Color: Yellow/Orange (#214)
	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Width(14)
)

// Label text. The trailing space is appended outside the style.
const (
	PromptLabel   = "Prompt:"
	ResponseLabel = "Response:"
	ErrorLabel    = "Error:"
)

func renderLabel(label string) string {
	return LabelStyle.Render(label) + " "
}
