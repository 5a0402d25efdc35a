// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session coordinates the foreground input loop and the single
// background worker that sends prompts.
//
// The two contexts share exactly two things: a FIFO prompt queue that the
// foreground appends to without blocking, and a RunState holding the
// running/abort flag pair. Both are created once and handed to each side at
// construction time.
//
// # Usage
//
//	run := session.NewRunState()
//	client := stream.NewClient(cfg, display, run)
//	worker := session.NewWorker(client)
//	go worker.Run(ctx)
//
//	worker.Enqueue(line)          // foreground
//	run.RequestAbort()            // foreground, on Ctrl+C
package session
