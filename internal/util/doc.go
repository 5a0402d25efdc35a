// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the ata packages.
//
// # Key Functions
//
//   - TruncateRunes: UTF-8 safe truncation with ellipsis, used to cap raw
//     diagnostic text printed after an error
//   - TruncateWidth: display-width aware truncation for terminal lines
//   - AtomicWriteFile: crash-safe file writing, used for the history file
package util
