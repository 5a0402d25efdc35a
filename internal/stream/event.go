// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EventMarker prefixes every well-formed frame.
const EventMarker = "data:"

// EventKind classifies a decoded frame.
type EventKind int

const (
	// EventIgnored is a frame without printable text (role switch, empty delta, keep-alive).
	EventIgnored EventKind = iota
	// EventContent carries a text delta.
	EventContent
	// EventProviderError carries a structured error reported by the provider.
	EventProviderError
	// EventDone is the end-of-stream signal.
	EventDone
	// EventUnstructured is a frame without the event marker.
	EventUnstructured
)

// String returns a short name for the kind, used in logs.
func (k EventKind) String() string {
	switch k {
	case EventIgnored:
		return "ignored"
	case EventContent:
		return "content"
	case EventProviderError:
		return "provider_error"
	case EventDone:
		return "done"
	case EventUnstructured:
		return "unstructured"
	default:
		return "unknown"
	}
}

// Event is one classified frame.
type Event struct {
	Kind EventKind

	// Text is the content delta for EventContent and the message for EventProviderError.
	Text string

	// ErrorType is the provider's error kind for EventProviderError.
	ErrorType string

	// Raw is the trimmed frame, kept for diagnostics and retry evaluation.
	Raw string
}

// payload is the subset of a frame's JSON object the decoder looks at.
type payload struct {
	Choices json.RawMessage `json:"choices"`
	Error   json.RawMessage `json:"error"`
}

type choice struct {
	Delta *struct {
		Content json.RawMessage `json:"content"`
		Role    string          `json:"role,omitempty"`
	} `json:"delta"`
}

// errorBody is the provider's error object.
type errorBody struct {
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
	Message string `json:"message"`
}

// DecodeEvent classifies one complete frame.
//
// A frame starting with EventMarker is decoded from the first '{' of its
// payload; when there is none the frame is the end-of-stream signal. Frames
// without the marker are returned as EventUnstructured and never fail here.
// A marked frame whose JSON cannot be parsed yields a *DecodeError, and one
// with neither "choices" nor "error" yields a *ProtocolError.
func DecodeEvent(frame string) (Event, error) {
	raw := strings.TrimSpace(frame)
	if raw == "" {
		return Event{Kind: EventIgnored}, nil
	}
	if !strings.HasPrefix(raw, EventMarker) {
		return Event{Kind: EventUnstructured, Raw: raw}, nil
	}

	data := strings.TrimSpace(raw[len(EventMarker):])
	start := strings.IndexByte(data, '{')
	if start < 0 {
		return Event{Kind: EventDone, Raw: raw}, nil
	}

	var p payload
	dec := json.NewDecoder(strings.NewReader(data[start:]))
	if err := dec.Decode(&p); err != nil {
		return Event{Raw: raw}, &DecodeError{Raw: data, Err: err}
	}

	switch {
	case isPresent(p.Choices):
		return decodeChoices(p.Choices, raw, data)
	case isPresent(p.Error):
		return decodeError(p.Error, raw), nil
	default:
		return Event{Raw: raw}, &ProtocolError{Raw: data}
	}
}

func decodeChoices(msg json.RawMessage, raw, data string) (Event, error) {
	var choices []choice
	if err := json.Unmarshal(msg, &choices); err != nil {
		return Event{Raw: raw}, &ProtocolError{Raw: data}
	}
	// A missing delta or content is a role switch or a finish frame.
	if len(choices) == 0 || choices[0].Delta == nil || !isPresent(choices[0].Delta.Content) {
		return Event{Kind: EventIgnored, Raw: raw}, nil
	}

	var text string
	if err := json.Unmarshal(choices[0].Delta.Content, &text); err != nil {
		return Event{Raw: raw}, &ProtocolError{Raw: data}
	}
	if text == "" {
		return Event{Kind: EventIgnored, Raw: raw}, nil
	}
	return Event{Kind: EventContent, Text: text, Raw: raw}, nil
}

func decodeError(msg json.RawMessage, raw string) Event {
	ev := Event{Kind: EventProviderError, Raw: raw}

	var body errorBody
	if err := json.Unmarshal(msg, &body); err == nil {
		ev.ErrorType = body.Type
		ev.Text = body.Message
	} else {
		// Some gateways send the error as a bare string.
		var s string
		if json.Unmarshal(msg, &s) == nil {
			ev.Text = s
		}
	}
	if ev.Text == "" {
		ev.Text = string(msg)
	}
	return ev
}

// isPresent reports whether a raw JSON field was set to something other than null.
func isPresent(msg json.RawMessage) bool {
	trimmed := bytes.TrimSpace(msg)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
