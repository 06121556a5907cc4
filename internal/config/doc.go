// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for sentinel.
//
// Supports TOML (and JSON) configuration files, with sensible defaults,
// environment variable overrides, and validation. API keys are not part of
// the configuration; they live in the credential store.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags
//   - Environment variables (SENTINEL_*)
//   - ~/.sentinel/config.toml (SENTINEL_HOME relocates the directory)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Completion.Model)
//
//	_ = cfg.Set("assistant.tone", "friendly")
//	if err := cfg.Validate(); err == nil {
//	    _ = config.Save(cfg)
//	}
package config
