// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credentials persists the two vendor API keys.
//
// Keys are read once at startup and written only through an explicit save.
// A save never overwrites a stored key with an empty value, so a user can
// update one key without retyping the other.
package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jeranaias/sentinel-syx/internal/model"
)

// Storage keys. These names are shared with existing installs; do not rename.
const (
	CompletionKeyName = "deepseekApiKey"
	SearchKeyName     = "serperApiKey"
)

// KV is the subset of the local store the credential manager needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Load reads both keys from kv. Absent keys come back empty.
func Load(ctx context.Context, kv KV) (model.Credentials, error) {
	var creds model.Credentials

	v, _, err := kv.Get(ctx, CompletionKeyName)
	if err != nil {
		return creds, fmt.Errorf("failed to load completion key: %w", err)
	}
	creds.CompletionKey = v

	v, _, err = kv.Get(ctx, SearchKeyName)
	if err != nil {
		return creds, fmt.Errorf("failed to load search key: %w", err)
	}
	creds.SearchKey = v

	return creds, nil
}

// Save writes each non-empty key of creds to kv. Surrounding whitespace is
// trimmed before the emptiness check.
func Save(ctx context.Context, kv KV, creds model.Credentials) error {
	if key := strings.TrimSpace(creds.CompletionKey); key != "" {
		if err := kv.Set(ctx, CompletionKeyName, key); err != nil {
			return fmt.Errorf("failed to save completion key: %w", err)
		}
	}
	if key := strings.TrimSpace(creds.SearchKey); key != "" {
		if err := kv.Set(ctx, SearchKeyName, key); err != nil {
			return fmt.Errorf("failed to save search key: %w", err)
		}
	}
	return nil
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager holds the in-memory copy of the credentials for a running
// process. It is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	kv    KV
	creds model.Credentials
}

// NewManager loads the stored credentials from kv.
func NewManager(ctx context.Context, kv KV) (*Manager, error) {
	creds, err := Load(ctx, kv)
	if err != nil {
		return nil, err
	}
	return &Manager{kv: kv, creds: creds}, nil
}

// Credentials returns the current in-memory credentials.
func (m *Manager) Credentials() model.Credentials {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds
}

// Save persists the non-empty keys of creds and updates the in-memory copy.
func (m *Manager) Save(ctx context.Context, creds model.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := Save(ctx, m.kv, creds); err != nil {
		return err
	}
	if key := strings.TrimSpace(creds.CompletionKey); key != "" {
		m.creds.CompletionKey = key
	}
	if key := strings.TrimSpace(creds.SearchKey); key != "" {
		m.creds.SearchKey = key
	}
	return nil
}

// Forget removes both keys from storage and memory.
func (m *Manager) Forget(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range []string{CompletionKeyName, SearchKeyName} {
		if err := m.kv.Remove(ctx, name); err != nil {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	m.creds = model.Credentials{}
	return nil
}

// Static is a fixed credential source, for one-shot commands and tests.
type Static model.Credentials

// Credentials returns the fixed credentials.
func (s Static) Credentials() model.Credentials {
	return model.Credentials(s)
}
