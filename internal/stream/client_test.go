// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type recordingDisplay struct {
	mu      sync.Mutex
	calls   []string
	text    strings.Builder
	errors  []string
	notices []string
	onText  func()
}

func (d *recordingDisplay) record(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, call)
}

func (d *recordingDisplay) Begin()         { d.record("begin") }
func (d *recordingDisplay) ResponseLabel() { d.record("response") }
func (d *recordingDisplay) Idle()          { d.record("idle") }

func (d *recordingDisplay) Text(s string) {
	d.mu.Lock()
	d.calls = append(d.calls, "text")
	d.text.WriteString(s)
	hook := d.onText
	d.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (d *recordingDisplay) Error(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "error")
	d.errors = append(d.errors, msg)
}

func (d *recordingDisplay) Notice(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "notice")
	d.notices = append(d.notices, msg)
}

func (d *recordingDisplay) Output() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text.String()
}

type fakeRun struct {
	running atomic.Bool
	abort   atomic.Bool
	begins  atomic.Int32
}

func (r *fakeRun) Begin() {
	r.begins.Add(1)
	r.abort.Store(false)
	r.running.Store(true)
}
func (r *fakeRun) Finish()         { r.running.Store(false) }
func (r *fakeRun) TakeAbort() bool { return r.abort.CompareAndSwap(true, false) }

// sseServer streams body chunks, flushing after each one.
func sseServer(t *testing.T, status int, chunks ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(status)
		flusher := w.(http.Flusher)
		for _, c := range chunks {
			if _, err := io.WriteString(w, c); err != nil {
				return
			}
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func contentFrame(text string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": text}}},
	})
	return fmt.Sprintf("data: %s\n\n", b)
}

func newTestClient(baseURL string) (*Client, *recordingDisplay, *fakeRun) {
	display := &recordingDisplay{}
	run := &fakeRun{}
	client := NewClient(testConfig(baseURL), display, run).WithHTTPClient(http.DefaultClient)
	return client, display, run
}

// =============================================================================
// END-TO-END SCENARIOS
// =============================================================================

func TestClient_StreamsContent(t *testing.T) {
	type captured struct {
		method string
		path   string
		header http.Header
		body   ChatRequest
	}
	requests := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{method: r.Method, path: r.URL.Path, header: r.Header.Clone()}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		requests <- c
		flusher := w.(http.Flusher)
		for _, f := range []string{
			"data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n",
			contentFrame("Hi"),
			contentFrame(" there"),
			"data: [DONE]\n\n",
		} {
			io.WriteString(w, f)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client, display, run := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "Hello", 1)

	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, "Hi there", display.Output())
	assert.Equal(t, []string{"begin", "response", "text", "text", "idle"}, display.calls)
	assert.Empty(t, display.errors)
	assert.Empty(t, display.notices)
	assert.False(t, run.running.Load())

	got := <-requests
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, ChatCompletionsPath, got.path)
	assert.Equal(t, "Bearer sk-test", got.header.Get("Authorization"))
	assert.Equal(t, "application/json", got.header.Get("Content-Type"))
	assert.Equal(t, "text/event-stream", got.header.Get("Accept"))
	assert.NotEmpty(t, got.header.Get("X-Request-ID"))
	assert.True(t, got.body.Stream)
	require.Len(t, got.body.Messages, 1)
	assert.Equal(t, `Hello\n\n`, got.body.Messages[0].Content)
}

func TestClient_FragmentedDelivery(t *testing.T) {
	full := contentFrame("Hi") + contentFrame(" th") + contentFrame("ere") + "data: [DONE]\n\n"
	var chunks []string
	for i := 0; i < len(full); i += 3 {
		end := min(i+3, len(full))
		chunks = append(chunks, full[i:end])
	}
	srv, _ := sseServer(t, http.StatusOK, chunks...)

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "Hello", 1)

	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, "Hi there", display.Output())
}

func TestClient_SplitNewlineEscape(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK,
		contentFrame(`one\`), contentFrame(`ntwo`), "data: [DONE]\n\n")

	client, display, _ := newTestClient(srv.URL)
	_, err := client.Send(context.Background(), "x", 1)

	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", display.Output())
}

func TestClient_FlushesPendingAtEnd(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK, contentFrame(`path C:\`))

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, `path C:\`, display.Output())
}

func TestClient_BadKeyErrorBody(t *testing.T) {
	srv, hits := sseServer(t, http.StatusUnauthorized,
		`{"error":{"type":"invalid_request_error","message":"bad key"}}`)

	client, display, run := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "Hello", 1)

	assert.Equal(t, Failed, outcome)
	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "invalid_request_error", provErr.Type)
	assert.Equal(t, []string{"bad key"}, display.errors)
	assert.Empty(t, display.notices)
	assert.Equal(t, int32(1), hits.Load())
	assert.False(t, run.running.Load())
	assert.Equal(t, "idle", display.calls[len(display.calls)-1])
}

func TestClient_StructuredErrorEvent(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK,
		contentFrame("partial"),
		"data: {\"error\":{\"type\":\"server_error\",\"message\":\"overloaded\"}}\n\n")

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	require.Error(t, err)
	assert.Equal(t, "partial", display.Output())
	assert.Equal(t, []string{"overloaded"}, display.errors)
}

func TestClient_TransientErrorRetries(t *testing.T) {
	srv, _ := sseServer(t, http.StatusInternalServerError, serverErrorLine+"\n\n")

	client, display, run := newTestClient(srv.URL)

	for attempt := 1; attempt < MaxAttempts; attempt++ {
		outcome, err := client.Send(context.Background(), "x", attempt)
		require.NoError(t, err)
		assert.Equal(t, Retry, outcome)
		assert.True(t, run.running.Load(), "run stays active between attempts")
	}
	assert.Equal(t, []string{RetryNotice(1), RetryNotice(2)}, display.notices)

	outcome, err := client.Send(context.Background(), "x", MaxAttempts)
	assert.Equal(t, Failed, outcome)
	require.Error(t, err)
	assert.False(t, run.running.Load())
	assert.Equal(t, int32(1), run.begins.Load())
	assert.Len(t, display.errors, 1)
}

func TestClient_UnstructuredAfterContent(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK, contentFrame("Hi"), "garbage line\n\n")

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	assert.True(t, errors.Is(err, ErrProtocolShape))
	assert.Equal(t, []string{"garbage line"}, display.errors)
	assert.Empty(t, display.notices)
}

func TestClient_NonJSONFirstLine(t *testing.T) {
	srv, hits := sseServer(t, http.StatusBadGateway, "<html>502 Bad Gateway</html>")

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	assert.True(t, errors.Is(err, ErrProtocolShape))
	assert.Equal(t, []string{"<html>502 Bad Gateway</html>"}, display.errors)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_MalformedJSON(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK, "data: {\"choices\":[\n\n")

	client, _, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
}

func TestClient_EmptyErrorResponse(t *testing.T) {
	srv, _ := sseServer(t, http.StatusServiceUnavailable)

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	require.Len(t, display.errors, 1)
	assert.Contains(t, display.errors[0], "503")
}

func TestClient_EmptyOKResponseCompletes(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK)

	client, display, _ := newTestClient(srv.URL)
	outcome, err := client.Send(context.Background(), "x", 1)

	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, []string{"begin", "idle"}, display.calls)
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, display, run := newTestClient(url)
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Len(t, display.errors, 1)
	assert.False(t, run.running.Load())
}

func TestClient_NotConfigured(t *testing.T) {
	srv, hits := sseServer(t, http.StatusOK, "data: [DONE]\n\n")

	client, display, _ := newTestClient(srv.URL)
	client.cfg.APIKey = ""
	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Len(t, display.errors, 1)
	assert.Zero(t, hits.Load())
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestClient_AbortMidStream(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		io.WriteString(w, contentFrame("first"))
		flusher.Flush()
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		io.WriteString(w, contentFrame("second")+"data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()
	defer close(release)

	client, display, run := newTestClient(srv.URL)
	display.onText = func() { run.abort.Store(true) }

	outcome, err := client.Send(context.Background(), "x", 1)

	require.NoError(t, err)
	assert.Equal(t, Aborted, outcome)
	assert.Equal(t, "first", display.Output())
	assert.Empty(t, display.errors)
	assert.False(t, run.running.Load())
	assert.False(t, run.abort.Load(), "abort is consumed")
	assert.Equal(t, "idle", display.calls[len(display.calls)-1])
}

func TestClient_AbortBeforeRetry(t *testing.T) {
	srv, hits := sseServer(t, http.StatusOK, "data: [DONE]\n\n")

	client, display, run := newTestClient(srv.URL)
	run.running.Store(true)
	run.abort.Store(true)

	outcome, err := client.Send(context.Background(), "x", 2)

	require.NoError(t, err)
	assert.Equal(t, Aborted, outcome)
	assert.Zero(t, hits.Load())
	assert.False(t, run.running.Load())
	assert.Equal(t, []string{"idle"}, display.calls)
}

func TestClient_BeginDropsStaleAbort(t *testing.T) {
	srv, _ := sseServer(t, http.StatusOK, contentFrame("ok"), "data: [DONE]\n\n")

	client, display, run := newTestClient(srv.URL)
	run.abort.Store(true)

	outcome, err := client.Send(context.Background(), "x", 1)

	require.NoError(t, err)
	assert.Equal(t, Completed, outcome)
	assert.Equal(t, "ok", display.Output())
}

func TestClient_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, contentFrame("slow"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, display, _ := newTestClient(srv.URL)
	client.cfg.RequestTimeoutSecs = 1

	outcome, err := client.Send(context.Background(), "x", 1)

	assert.Equal(t, Failed, outcome)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "slow", display.Output())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "retry", Retry.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "aborted", Aborted.String())
}
