// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - The interactive prompt loop.

package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ata/internal/config"
	"github.com/jeranaias/ata/internal/session"
	"github.com/jeranaias/ata/internal/stream"
	"github.com/jeranaias/ata/internal/util"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader is the line-editing surface of the prompt loop.
// *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
	Close() error
}

var _ LineReader = (*liner.State)(nil)

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession wires the foreground loop to the streaming worker.
type ChatSession struct {
	Config   *config.Config
	Terminal *Terminal
	Run      *session.RunState
	Worker   *session.Worker

	line        LineReader
	historyFile string
}

// NewChatSession creates a session reading from line and printing to term.
// historyFile may be empty to disable history persistence.
func NewChatSession(cfg *config.Config, term *Terminal, line LineReader, historyFile string) *ChatSession {
	run := session.NewRunState()
	client := stream.NewClient(cfg, term, run)
	return &ChatSession{
		Config:      cfg,
		Terminal:    term,
		Run:         run,
		Worker:      session.NewWorker(client),
		line:        line,
		historyFile: historyFile,
	}
}

// LoadHistory reads the history file if present.
func (s *ChatSession) LoadHistory() {
	if s.historyFile == "" {
		return
	}
	f, err := os.Open(s.historyFile)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Warn("could not read history")
		}
		return
	}
	defer f.Close()
	if _, err := s.line.ReadHistory(f); err != nil {
		logrus.WithError(err).Warn("could not read history")
	}
}

// SaveHistory writes the history file with owner-only permissions.
func (s *ChatSession) SaveHistory() error {
	if s.historyFile == "" {
		return nil
	}
	var buf bytes.Buffer
	if _, err := s.line.WriteHistory(&buf); err != nil {
		return fmt.Errorf("failed to serialize history: %w", err)
	}
	if err := util.AtomicWriteFile(s.historyFile, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Close saves history and releases the terminal.
func (s *ChatSession) Close() {
	if err := s.SaveHistory(); err != nil {
		logrus.WithError(err).Warn("history not saved")
	}
	if err := s.line.Close(); err != nil {
		logrus.WithError(err).Debug("closing line editor")
	}
}

// Loop reads prompts until the user exits or ctx is cancelled. The worker
// must be running for queued prompts to be sent.
//
// Input is read with an empty prompt; the "Prompt:" label is printed by the
// Terminal on its own line so typing is never mixed into the label while a
// response is streaming.
func (s *ChatSession) Loop(ctx context.Context) error {
	for ctx.Err() == nil {
		input, err := s.line.Prompt("")
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			if s.Run.RequestAbort() {
				logrus.Debug("abort requested from keyboard")
				continue
			}
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		// Any submitted line interrupts the running response.
		s.Run.RequestAbort()

		if strings.TrimSpace(input) == "" {
			continue
		}
		s.line.AppendHistory(input)
		s.Worker.Enqueue(input)
	}
	return nil
}

// RunChat starts the worker and runs the prompt loop on the real terminal.
func RunChat(ctx context.Context, cfg *config.Config, args Args) error {
	term := NewTerminal(os.Stdout, os.Stderr)
	term.Banner(cfg, !args.HideConfig, GetTerminalWidth())

	if !IsTTY() {
		logrus.Debug("stdin is not a terminal, line editing disabled")
	}
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile, err := config.HistoryPath()
	if err != nil {
		logrus.WithError(err).Warn("history disabled")
		historyFile = ""
	}

	s := NewChatSession(cfg, term, line, historyFile)
	s.LoadHistory()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// SIGTERM/SIGHUP cannot interrupt a blocked read, so restore the
	// terminal and save history from here before exiting.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logrus.WithField("signal", sig.String()).Info("shutting down")
			cancel()
			s.Close()
			os.Exit(ExitSuccess)
		case <-ctx.Done():
		}
	}()

	go func() {
		if err := s.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.WithError(err).Error("worker stopped")
		}
	}()

	term.Prompt()
	err = s.Loop(ctx)
	cancel()
	s.Close()
	return err
}
