// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the streaming request engine used by ata.
//
// One prompt is sent as a chat-completion request with stream enabled and the
// server-sent response is consumed incrementally:
//
//	bytes -> FrameBuffer -> DecodeEvent -> NewlineFixer -> Display
//
// # Key Types
//
//   - FrameBuffer: accumulates network reads and splits them into frames
//   - Event: one classified frame (content, ignored, provider error, done, unstructured)
//   - NewlineFixer: repairs "\" + "n" escapes split across two deltas
//   - RetryDecision: result of evaluating a failed first frame
//   - Client: drives a single attempt and reports an Outcome
//
// # Frame Classification
//
// A frame that starts with the "data:" marker carries a payload. The payload
// is decoded from its first '{' onwards, which tolerates leading noise in front
// of the JSON object. A payload with no '{' at all (for example "[DONE]") is the
// end-of-stream signal. Frames without the marker are unstructured; one that
// arrives before any content was shown is handed to the retry policy. The set of non-conforming lines the provider may emit is not
// documented upstream, so classification is best-effort.
// An unstructured frame after content has been shown is a protocol error.
//
// # Cancellation
//
// Cancellation is cooperative. The Client checks its RunSignal after every
// decoded event and abandons the body when the signal is raised. Nothing is
// sent to the remote end.
package stream
