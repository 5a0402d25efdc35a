// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ata/internal/config"
)

// Run executes ata with argv (without the program name) and returns the
// process exit code.
func Run(argv []string) int {
	return run(context.Background(), argv, os.Stdout, os.Stderr, RunChat)
}

// chatFunc is the interactive phase; replaced in tests.
type chatFunc func(ctx context.Context, cfg *config.Config, args Args) error

func run(ctx context.Context, argv []string, stdout, stderr io.Writer, chat chatFunc) int {
	args, err := ParseArgs(argv)
	if err != nil {
		fmt.Fprintf(stderr, "ata: %v\n\n", err)
		PrintUsage(stderr)
		return ExitCodeFor(err)
	}

	InitLogger(stderr, args.Verbose)

	switch {
	case args.Help:
		PrintUsage(stdout)
		return ExitSuccess
	case args.Version:
		PrintVersion(stdout)
		return ExitSuccess
	case args.PrintShortcuts:
		PrintShortcuts(stdout)
		return ExitSuccess
	}

	loc := config.ParseLocation(args.Config)
	logrus.WithField("location", loc.String()).Debug("resolving config")

	cfg, err := config.Load(loc)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			path, _ := loc.Resolve()
			fmt.Fprint(stderr, MissingConfigHelp(path))
		} else {
			fmt.Fprintf(stderr, "%s\n%v\n", renderLabel(ErrorLabel), err)
		}
		return ExitCodeFor(err)
	}
	logrus.WithFields(logrus.Fields{
		"path":  cfg.Path(),
		"model": cfg.Model,
		"key":   cfg.KeyFingerprint(),
	}).Info("config loaded")

	if err := chat(ctx, cfg, args); err != nil {
		fmt.Fprintf(stderr, "%s\n%v\n", renderLabel(ErrorLabel), err)
		return ExitCodeFor(err)
	}
	return ExitSuccess
}
