// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localstore provides a small persistent string key/value store.
//
// The default backend is a single SQLite file (pure Go driver, no cgo)
// holding one table of key/value pairs. A bbolt file with one bucket can
// be selected instead. The store is the only state sentinel keeps between
// runs; by default it lives at ~/.sentinel/localstore.db.
package localstore
