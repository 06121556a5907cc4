// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package localstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backends = []string{BackendSQLite, BackendBolt}

func openTemp(t *testing.T, backend string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "localstore.db")
	s, err := OpenBackend(path, backend)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

// eachBackend runs fn once per storage engine.
func eachBackend(t *testing.T, fn func(t *testing.T, backend string)) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) { fn(t, b) })
	}
}

func TestStore_SetGet(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend string) {
		s, _ := openTemp(t, backend)
		ctx := context.Background()

		_, ok, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Set(ctx, "deepseekApiKey", "sk-1"))
		v, ok, err := s.Get(ctx, "deepseekApiKey")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "sk-1", v)

		require.NoError(t, s.Set(ctx, "deepseekApiKey", "sk-2"))
		v, _, _ = s.Get(ctx, "deepseekApiKey")
		assert.Equal(t, "sk-2", v)
	})
}

func TestStore_EmptyValueIsStored(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend string) {
		s, _ := openTemp(t, backend)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "k", ""))
		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, v)
	})
}

func TestStore_RemoveAndKeys(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend string) {
		s, _ := openTemp(t, backend)
		ctx := context.Background()

		require.NoError(t, s.Set(ctx, "b", "2"))
		require.NoError(t, s.Set(ctx, "a", "1"))
		require.NoError(t, s.Set(ctx, "c", "3"))

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, keys)

		require.NoError(t, s.Remove(ctx, "b"))
		require.NoError(t, s.Remove(ctx, "never-set"))

		keys, err = s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, keys)
	})
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend string) {
		s, path := openTemp(t, backend)
		ctx := context.Background()
		require.NoError(t, s.Set(ctx, "serperApiKey", "serp"))
		require.NoError(t, s.Close())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

		reopened, err := OpenBackend(path, backend)
		require.NoError(t, err)
		defer reopened.Close()
		assert.Equal(t, backend, reopened.Backend())

		v, ok, err := reopened.Get(ctx, "serperApiKey")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "serp", v)
	})
}

func TestStore_EmptyKey(t *testing.T) {
	s, _ := openTemp(t, BackendSQLite)
	ctx := context.Background()

	assert.ErrorIs(t, s.Set(ctx, "", "x"), ErrEmptyKey)
	_, _, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, s.Remove(ctx, ""), ErrEmptyKey)
}

func TestStore_Closed(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrClosed)
	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Keys(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenBackend_Errors(t *testing.T) {
	_, err := OpenBackend("", BackendSQLite)
	assert.Error(t, err)

	_, err = OpenBackend(filepath.Join(t.TempDir(), "x.db"), "redis")
	assert.ErrorIs(t, err, ErrUnknownBackend)

	_, err = OpenBackend(":memory:", BackendBolt)
	assert.Error(t, err)
}

func TestStore_ConcurrentWrites(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend string) {
		s, _ := openTemp(t, backend)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Set(ctx, "shared", string(rune('a'+i))))
			}(i)
		}
		wg.Wait()

		keys, err := s.Keys(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"shared"}, keys)
	})
}
