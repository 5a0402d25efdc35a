// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/ata/internal/config"
)

// UserAgent is sent with every request.
var UserAgent = "ata/dev"

// readBufferSize is the size of a single body read.
const readBufferSize = 32 * 1024

// sharedStreamingClient has no timeout; attempts are bounded by their context.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// =============================================================================
// COLLABORATORS
// =============================================================================

// Display receives everything an attempt prints. Implementations write
// through to the terminal without buffering.
type Display interface {
	// Begin is called once the request has been dispatched, before any output.
	Begin()
	// ResponseLabel is called before the first piece of content.
	ResponseLabel()
	// Text writes a display-ready fragment.
	Text(s string)
	// Error writes the error label followed by msg.
	Error(msg string)
	// Notice writes an informational line (retry notices).
	Notice(msg string)
	// Idle writes the blank line and idle indicator ending a request.
	Idle()
}

// RunSignal is the run-state pair as seen by the engine.
type RunSignal interface {
	// Begin marks a new prompt as running and drops any stale abort request.
	Begin()
	// Finish marks the engine idle.
	Finish()
	// TakeAbort reports and clears a pending abort request.
	TakeAbort() bool
}

// =============================================================================
// OUTCOMES
// =============================================================================

// Outcome is how one attempt ended.
type Outcome int

const (
	// Completed means the stream ended normally.
	Completed Outcome = iota
	// Retry means the same prompt should be sent again after RetryDelay.
	Retry
	// Failed means a fatal error was shown for this prompt.
	Failed
	// Aborted means the user cancelled the request.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Retry:
		return "retry"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// State is the engine's position in the request lifecycle, used in logs.
type State string

const (
	StateIdle       State = "idle"
	StateDispatched State = "dispatched"
	StateStreaming  State = "streaming"
	StateCompleted  State = "completed"
	StateRetrying   State = "retrying"
	StateFailed     State = "failed"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client sends prompts and streams the responses to a Display.
// It owns at most one in-flight request; callers serialize Send.
type Client struct {
	cfg        *config.Config
	baseURL    string
	httpClient *http.Client
	display    Display
	run        RunSignal
}

// NewClient creates a client for cfg that prints to display and
// coordinates through run.
func NewClient(cfg *config.Config, display Display, run RunSignal) *Client {
	return &Client{
		cfg:        cfg,
		baseURL:    cfg.BaseURL,
		httpClient: sharedStreamingClient,
		display:    display,
		run:        run,
	}
}

// WithBaseURL overrides the configured API root.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// WithHTTPClient sets the HTTP client used for requests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpClient = h
	return c
}

// attempt holds the per-attempt streaming state.
type attempt struct {
	number  int
	id      string
	log     *logrus.Entry
	fixer   NewlineFixer
	shown   bool
	events  int
	state   State
	outcome Outcome
	err     error
}

// Send performs one attempt for prompt. attempt starts at 1 for a new prompt.
//
// Every fatal condition is printed and returned as (Failed, err); the error
// is informational only. Retry leaves the run state marked as running so the
// foreground can still raise an abort during the back-off.
func (c *Client) Send(ctx context.Context, prompt string, attemptNum int) (Outcome, error) {
	id := uuid.NewString()
	a := &attempt{
		number: attemptNum,
		id:     id,
		state:  StateIdle,
		log: logrus.WithFields(logrus.Fields{
			"request_id": id,
			"attempt":    attemptNum,
		}),
	}

	if attemptNum <= 1 {
		c.run.Begin()
	} else if c.run.TakeAbort() {
		a.log.Info("abort requested before retry")
		c.finish(a)
		return Aborted, nil
	}

	if c.cfg.APIKey == "" {
		c.display.Begin()
		return c.fail(a, ErrNotConfigured)
	}

	if timeout := c.cfg.RequestTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.dispatch(ctx, a, prompt)
	// Printed after the call returns so the cursor does not move while waiting.
	c.display.Begin()
	if err != nil {
		return c.fail(a, err)
	}
	defer resp.Body.Close()

	a.state = StateStreaming
	c.consume(ctx, a, resp)
	return a.outcome, a.err
}

// dispatch builds and sends the request.
func (c *Client) dispatch(ctx context.Context, a *attempt, prompt string) (*http.Response, error) {
	body, err := json.Marshal(NewChatRequest(c.cfg, prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + ChatCompletionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, a)

	a.state = StateDispatched
	a.log.WithFields(logrus.Fields{
		"method": req.Method,
		"path":   req.URL.Path,
	}).Debug("API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	a.log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("API response")
	return resp, nil
}

// setHeaders never logs; the Authorization header carries the credential.
func (c *Client) setHeaders(req *http.Request, a *attempt) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Request-ID", a.id)
}

// consume drives the reassemble/decode/print loop until the attempt ends.
func (c *Client) consume(ctx context.Context, a *attempt, resp *http.Response) {
	frames := NewFrameBuffer()
	buf := make([]byte, readBufferSize)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			complete, pushErr := frames.Push(buf[:n])
			for _, frame := range complete {
				if c.handleFrame(a, frame) {
					return
				}
			}
			if pushErr != nil {
				c.fail(a, pushErr)
				return
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				readErr = ctxErr
			}
			c.fail(a, fmt.Errorf("stream interrupted: %w", readErr))
			return
		}
	}

	// The body may end without a trailing delimiter, e.g. a plain JSON error body.
	rest, err := frames.Remainder()
	if err != nil {
		c.fail(a, err)
		return
	}
	if rest != "" && c.handleFrame(a, rest) {
		return
	}

	if a.events == 0 && resp.StatusCode >= http.StatusMultipleChoices {
		c.fail(a, &HTTPStatusError{Status: resp.Status, StatusCode: resp.StatusCode})
		return
	}
	c.complete(a)
}

// handleFrame processes one frame and reports whether the attempt is over.
// The abort checkpoint runs after every decoded event.
func (c *Client) handleFrame(a *attempt, frame string) bool {
	ev, err := DecodeEvent(frame)
	if err != nil {
		c.fail(a, err)
		return true
	}
	if ev.Kind != EventIgnored || ev.Raw != "" {
		a.events++
	}

	switch ev.Kind {
	case EventDone:
		c.complete(a)
		return true

	case EventContent:
		text := a.fixer.Process(ev.Text)
		if !a.shown {
			a.shown = true
			c.display.ResponseLabel()
		}
		if text != "" {
			c.display.Text(text)
		}

	case EventProviderError:
		c.fail(a, &ProviderError{Type: ev.ErrorType, Message: ev.Text})
		return true

	case EventUnstructured:
		if a.shown {
			c.fail(a, &ProtocolError{Raw: ev.Raw})
			return true
		}
		decision := ShouldRetry(ev.Raw, a.number)
		if decision.Retry {
			a.state = StateRetrying
			a.outcome = Retry
			a.log.WithField("error_type", decision.ErrorType).Warn("transient server error, retrying")
			c.display.Notice(RetryNotice(a.number))
			return true
		}
		if decision.ErrorType != "" {
			c.fail(a, &ProviderError{Type: decision.ErrorType, Message: decision.Message})
		} else {
			c.fail(a, &ProtocolError{Raw: decision.Message})
		}
		return true
	}

	if c.run.TakeAbort() {
		a.log.Info("request aborted by user")
		c.finish(a)
		a.outcome = Aborted
		return true
	}
	return false
}

// flushPending prints any text the newline fixer is still holding.
func (c *Client) flushPending(a *attempt) {
	if rest := a.fixer.Flush(); rest != "" {
		c.display.Text(rest)
	}
}

func (c *Client) complete(a *attempt) {
	c.flushPending(a)
	a.state = StateCompleted
	a.outcome = Completed
	a.log.WithField("events", a.events).Debug("stream completed")
	c.finish(a)
}

// fail prints err, clears the run state and records the failure.
func (c *Client) fail(a *attempt, err error) (Outcome, error) {
	a.state = StateFailed
	a.outcome = Failed
	a.err = err
	a.log.WithError(err).Warn("attempt failed")
	c.display.Error(DisplayMessage(err))
	c.finish(a)
	return Failed, err
}

func (c *Client) finish(a *attempt) {
	a.log.WithField("state", a.state).Debug("run state cleared")
	c.run.Finish()
	c.display.Idle()
}
