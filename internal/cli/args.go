// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Argument parsing for the ata command.

package cli

import (
	"fmt"
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser splits raw arguments into flags and positionals.
// It handles:
//   - Long flags: --flag value or --flag=value
//   - Short flags: -f value
//   - Boolean flags: --flag (no value needed)
//
// Only flags registered as taking a value consume the following argument,
// so "--verbose prompt" never swallows "prompt".
type ArgParser struct {
	valueFlags map[string]bool
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw. valueFlags names the flags that take a value,
// without leading dashes.
//
// Example:
//
//	p, _ := NewArgParser([]string{"-c", "work", "--verbose"}, "c", "config")
//	p.Flag("c")          // "work"
//	p.BoolFlag("verbose") // true
func NewArgParser(raw []string, valueFlags ...string) (*ArgParser, error) {
	parser := &ArgParser{
		valueFlags: make(map[string]bool, len(valueFlags)),
		flags:      make(map[string]string),
		boolFlags:  make(map[string]bool),
	}
	for _, name := range valueFlags {
		parser.valueFlags[name] = true
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			parser.positional = append(parser.positional, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			parser.positional = append(parser.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if before, after, ok := strings.Cut(name, "="); ok {
			if parser.valueFlags[before] {
				parser.flags[before] = after
			} else {
				parser.boolFlags[before] = after == "true"
			}
			continue
		}

		if !parser.valueFlags[name] {
			parser.boolFlags[name] = true
			continue
		}
		if i+1 >= len(raw) {
			return nil, &UsageError{Flag: arg, Reason: "requires a value"}
		}
		parser.flags[name] = raw[i+1]
		i++
	}

	return parser, nil
}

// Flag returns the value of the first of names that was given.
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if val, ok := p.flags[strings.TrimLeft(name, "-")]; ok {
			return val
		}
	}
	return ""
}

// HasFlag reports whether any of names was given as a value flag.
func (p *ArgParser) HasFlag(names ...string) bool {
	for _, name := range names {
		if _, ok := p.flags[strings.TrimLeft(name, "-")]; ok {
			return true
		}
	}
	return false
}

// BoolFlag reports whether any of names was set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[strings.TrimLeft(name, "-")] {
			return true
		}
	}
	return false
}

// BoolFlagNames returns every boolean flag that was given.
func (p *ArgParser) BoolFlagNames() []string {
	names := make([]string, 0, len(p.boolFlags))
	for name := range p.boolFlags {
		names = append(names, name)
	}
	return names
}

// Positional returns all positional arguments.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// =============================================================================
// ATA ARGUMENTS
// =============================================================================

// Args holds the parsed command line.
type Args struct {
	Config         string // -c/--config: path, profile name, or empty for auto
	HideConfig     bool   // --hide-config
	PrintShortcuts bool   // --print-shortcuts
	Verbose        bool   // -v/--verbose
	Version        bool   // --version
	Help           bool   // -h/--help
}

var knownBoolFlags = map[string]bool{
	"hide-config":     true,
	"print-shortcuts": true,
	"v":               true,
	"verbose":         true,
	"version":         true,
	"h":               true,
	"help":            true,
}

// ParseArgs parses argv (without the program name).
// Unknown flags and positional arguments are usage errors.
func ParseArgs(argv []string) (Args, error) {
	p, err := NewArgParser(argv, "c", "config")
	if err != nil {
		return Args{}, err
	}

	for _, name := range p.BoolFlagNames() {
		if !knownBoolFlags[name] {
			return Args{}, &UsageError{Flag: flagDisplay(name), Reason: "unknown flag"}
		}
	}
	if pos := p.Positional(); len(pos) > 0 {
		return Args{}, &UsageError{Flag: pos[0], Reason: "unexpected argument"}
	}

	return Args{
		Config:         p.Flag("c", "config"),
		HideConfig:     p.BoolFlag("hide-config"),
		PrintShortcuts: p.BoolFlag("print-shortcuts"),
		Verbose:        p.BoolFlag("v", "verbose"),
		Version:        p.BoolFlag("version"),
		Help:           p.BoolFlag("h", "help"),
	}, nil
}

func flagDisplay(name string) string {
	if len(name) == 1 {
		return "-" + name
	}
	return fmt.Sprintf("--%s", name)
}
