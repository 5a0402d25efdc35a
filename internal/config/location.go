// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// AppName names the per-user config directory.
	AppName = "ata"

	// DefaultFileName is the config file looked up in auto mode.
	DefaultFileName = "ata.toml"

	// historyFileName stores readline history next to the config.
	historyFileName = "history"
)

// LocationKind selects how a Location is resolved.
type LocationKind int

const (
	// LocationAuto uses ./ata.toml when present, else the user config dir.
	LocationAuto LocationKind = iota
	// LocationPath is an explicit file path.
	LocationPath
	// LocationNamed is a profile name inside the user config dir.
	LocationNamed
)

// Location is the parsed value of the --config flag.
type Location struct {
	Kind  LocationKind
	Value string
}

// ParseLocation interprets a --config value. A value without '.' is a named
// profile, any other non-blank value is a path, and blank means auto.
func ParseLocation(value string) Location {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return Location{Kind: LocationAuto}
	case !strings.Contains(value, "."):
		return Location{Kind: LocationNamed, Value: value}
	default:
		return Location{Kind: LocationPath, Value: value}
	}
}

// Resolve returns the file path for the location.
func (l Location) Resolve() (string, error) {
	switch l.Kind {
	case LocationPath:
		return l.Value, nil
	case LocationNamed:
		if l.Value != "default" {
			return ProfilePath(l.Value)
		}
		return autoPath()
	default:
		return autoPath()
	}
}

func (l Location) String() string {
	switch l.Kind {
	case LocationPath:
		return l.Value
	case LocationNamed:
		return "profile " + l.Value
	default:
		return "auto"
	}
}

// autoPath prefers ata.toml in the working directory.
func autoPath() (string, error) {
	if _, err := os.Stat(DefaultFileName); err == nil {
		return DefaultFileName, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// ConfigDir returns the per-user ata configuration directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// ProfilePath returns the file for a named profile.
func ProfilePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".toml"), nil
}

// HistoryPath returns the readline history file path.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFileName), nil
}
