// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates the ata configuration file.
//
// The configuration is a small TOML record holding the provider credential,
// the model identifier and the generation parameters embedded in every
// request. It is loaded once at start-up and never modified afterwards.
//
// # Location
//
// The -c/--config flag value selects the file:
//   - "" (auto): ./ata.toml if present, else <user config dir>/ata/ata.toml
//   - a value without '.': named profile <user config dir>/ata/<name>.toml
//     ("default" behaves like auto)
//   - anything else: a path
//
// # Environment Overrides
//
//   - ATA_API_KEY (falls back to OPENAI_API_KEY): overrides api_key
//   - ATA_MODEL: overrides model
//   - ATA_BASE_URL: overrides base_url
//
// # Usage
//
//	cfg, err := config.Load(config.ParseLocation(flagValue))
//	if errors.Is(err, config.ErrNotFound) {
//	    // print setup help
//	}
package config
