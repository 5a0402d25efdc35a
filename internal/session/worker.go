// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ata/internal/stream"
)

// Sender performs one attempt for a prompt.
type Sender interface {
	Send(ctx context.Context, prompt string, attempt int) (stream.Outcome, error)
}

// =============================================================================
// WORKER
// =============================================================================

// Worker is the single serialized consumer of the prompt queue. Prompts are
// sent strictly in submission order and at most one is in flight.
type Worker struct {
	sender     Sender
	retryDelay time.Duration

	mu     sync.Mutex
	queue  []string
	notify chan struct{}

	// onDone, if set, is called after each prompt has been fully handled.
	onDone func(prompt string, outcome stream.Outcome)
}

// NewWorker creates a worker that sends prompts through sender.
func NewWorker(sender Sender) *Worker {
	return &Worker{
		sender:     sender,
		retryDelay: stream.RetryDelay,
		notify:     make(chan struct{}, 1),
	}
}

// WithRetryDelay overrides the back-off between attempts.
func (w *Worker) WithRetryDelay(d time.Duration) *Worker {
	w.retryDelay = d
	return w
}

// OnDone registers a callback invoked after each prompt completes.
// It must be set before Run.
func (w *Worker) OnDone(fn func(prompt string, outcome stream.Outcome)) *Worker {
	w.onDone = fn
	return w
}

// Enqueue appends a prompt. It never blocks.
func (w *Worker) Enqueue(prompt string) {
	w.mu.Lock()
	w.queue = append(w.queue, prompt)
	w.mu.Unlock()

	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Pending returns the number of prompts waiting to be sent.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// dequeue pops the oldest prompt.
func (w *Worker) dequeue() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return "", false
	}
	prompt := w.queue[0]
	w.queue[0] = ""
	w.queue = w.queue[1:]
	return prompt, true
}

// Run consumes the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		prompt, ok := w.dequeue()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-w.notify:
			}
			continue
		}

		outcome := w.process(ctx, prompt)
		if w.onDone != nil {
			w.onDone(prompt, outcome)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// process sends prompt, re-dispatching it while the engine asks for a retry.
func (w *Worker) process(ctx context.Context, prompt string) stream.Outcome {
	for attempt := 1; ; attempt++ {
		outcome, err := w.sender.Send(ctx, prompt, attempt)
		entry := logrus.WithFields(logrus.Fields{"attempt": attempt, "outcome": outcome.String()})
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Debug("attempt finished")

		if outcome != stream.Retry {
			return outcome
		}

		timer := time.NewTimer(w.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return stream.Aborted
		case <-timer.C:
		}
	}
}
