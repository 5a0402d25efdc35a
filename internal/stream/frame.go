// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"unicode/utf8"
)

// frameDelimiter separates server-sent frames.
var frameDelimiter = []byte("\n\n")

// MaxFrameSize bounds a single undelimited frame (1MB).
const MaxFrameSize = 1024 * 1024

// FrameBuffer accumulates raw bytes from the response body and splits them
// into complete frames. After every Push it holds at most one partial frame.
type FrameBuffer struct {
	buf []byte
}

// NewFrameBuffer creates an empty frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Push appends a chunk and returns every frame completed by it, in order.
// The undelimited tail stays buffered for the next chunk. CRLF line endings
// are normalized so "\r\n\r\n" also delimits a frame.
func (f *FrameBuffer) Push(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)
	if bytes.Contains(f.buf, []byte("\r\n")) {
		f.buf = bytes.ReplaceAll(f.buf, []byte("\r\n"), []byte("\n"))
	}

	var frames []string
	for {
		idx := bytes.Index(f.buf, frameDelimiter)
		if idx < 0 {
			break
		}
		frame := f.buf[:idx]
		if !utf8.Valid(frame) {
			f.Reset()
			return frames, &DecodeError{Err: ErrInvalidEncoding}
		}
		frames = append(frames, string(frame))
		f.buf = f.buf[idx+len(frameDelimiter):]
	}

	if len(f.buf) > MaxFrameSize {
		f.Reset()
		return frames, &DecodeError{Err: errFrameTooLarge}
	}

	// Drop the consumed prefix so the backing array does not grow without bound.
	if len(frames) > 0 {
		f.buf = append([]byte(nil), f.buf...)
	}
	return frames, nil
}

// Remainder returns the buffered partial frame, if any, and clears it.
// It is called once the body is exhausted.
func (f *FrameBuffer) Remainder() (string, error) {
	rest := f.buf
	f.Reset()
	if len(bytes.TrimSpace(rest)) == 0 {
		return "", nil
	}
	if !utf8.Valid(rest) {
		return "", &DecodeError{Err: ErrInvalidEncoding}
	}
	return string(rest), nil
}

// Len returns the number of buffered bytes.
func (f *FrameBuffer) Len() int {
	return len(f.buf)
}

// Reset discards any buffered data.
func (f *FrameBuffer) Reset() {
	f.buf = nil
}
