// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package credentials

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/sentinel-syx/internal/localstore"
	"github.com/jeranaias/sentinel-syx/internal/model"
)

func openStore(t *testing.T) *localstore.Store {
	t.Helper()
	s, err := localstore.Open(filepath.Join(t.TempDir(), "localstore.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoad_Empty(t *testing.T) {
	creds, err := Load(context.Background(), openStore(t))
	require.NoError(t, err)
	assert.False(t, creds.HasCompletionKey())
	assert.False(t, creds.HasSearchKey())
}

func TestSave_UsesFixedKeys(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, Save(ctx, store, model.Credentials{CompletionKey: "sk-ds", SearchKey: "serp"}))

	v, ok, err := store.Get(ctx, "deepseekApiKey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sk-ds", v)

	v, ok, err = store.Get(ctx, "serperApiKey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "serp", v)
}

func TestSave_EmptyValueDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, Save(ctx, store, model.Credentials{CompletionKey: "sk-ds", SearchKey: "serp"}))
	require.NoError(t, Save(ctx, store, model.Credentials{CompletionKey: "sk-new", SearchKey: "   "}))

	creds, err := Load(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "sk-new", creds.CompletionKey)
	assert.Equal(t, "serp", creds.SearchKey)
}

func TestSave_NothingWritten(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	require.NoError(t, Save(ctx, store, model.Credentials{}))
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	require.NoError(t, store.Set(ctx, SearchKeyName, "serp"))

	m, err := NewManager(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, model.Credentials{SearchKey: "serp"}, m.Credentials())

	require.NoError(t, m.Save(ctx, model.Credentials{CompletionKey: " sk-ds "}))
	assert.Equal(t, model.Credentials{CompletionKey: "sk-ds", SearchKey: "serp"}, m.Credentials())

	reloaded, err := NewManager(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, m.Credentials(), reloaded.Credentials())

	require.NoError(t, m.Forget(ctx))
	assert.Equal(t, model.Credentials{}, m.Credentials())
	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}
func (failingKV) Set(context.Context, string, string) error { return errors.New("disk gone") }
func (failingKV) Remove(context.Context, string) error      { return errors.New("disk gone") }

func TestManager_StorageErrors(t *testing.T) {
	_, err := NewManager(context.Background(), failingKV{})
	assert.ErrorContains(t, err, "completion key")

	m := &Manager{kv: failingKV{}, creds: model.Credentials{CompletionKey: "keep"}}
	err = m.Save(context.Background(), model.Credentials{CompletionKey: "new"})
	assert.Error(t, err)
	assert.Equal(t, "keep", m.Credentials().CompletionKey)
}

func TestStatic(t *testing.T) {
	s := Static{CompletionKey: "a"}
	assert.Equal(t, model.Credentials{CompletionKey: "a"}, s.Credentials())
}
