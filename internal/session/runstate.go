// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "sync/atomic"

// RunState is the running/abort flag pair shared by the foreground loop and
// the worker. All access is atomic; it carries no other data.
type RunState struct {
	running atomic.Bool
	abort   atomic.Bool
}

// NewRunState returns an idle run state.
func NewRunState() *RunState {
	return &RunState{}
}

// Begin marks a new prompt as running. An abort raised after the previous
// request finished is dropped so it cannot cancel this one.
func (r *RunState) Begin() {
	r.abort.Store(false)
	r.running.Store(true)
}

// Finish marks the worker idle.
func (r *RunState) Finish() {
	r.running.Store(false)
}

// Running reports whether a request is streaming.
func (r *RunState) Running() bool {
	return r.running.Load()
}

// RequestAbort raises the abort flag if, and only if, a request is running.
// It reports whether the flag was raised.
func (r *RunState) RequestAbort() bool {
	if !r.running.Load() {
		return false
	}
	r.abort.Store(true)
	return true
}

// AbortRequested reports the abort flag without clearing it.
func (r *RunState) AbortRequested() bool {
	return r.abort.Load()
}

// TakeAbort reports and clears the abort flag.
func (r *RunState) TakeAbort() bool {
	return r.abort.CompareAndSwap(true, false)
}
