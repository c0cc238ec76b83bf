package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T, opts ...Option) map[string]KV {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "data.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]KV{
		"sqlite": sqlite,
		"memory": NewMemory(opts...),
	}
}

func TestKV_SetGetDelete(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("a", []byte("1")))
			require.NoError(t, kv.Set("a", []byte("2")))

			value, err := kv.Get("a")
			require.NoError(t, err)
			assert.Equal(t, []byte("2"), value)

			require.NoError(t, kv.Delete("a"))
			_, err = kv.Get("a")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, kv.Delete("missing"))
		})
	}
}

func TestKV_Keys(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set(Prefix+"offline:b", []byte("x")))
			require.NoError(t, kv.Set(Prefix+"offline:a", []byte("x")))
			require.NoError(t, kv.Set(SessionKey, []byte("token")))
			require.NoError(t, kv.Set("other", []byte("x")))

			keys, err := kv.Keys(Prefix + "offline:")
			require.NoError(t, err)
			assert.Equal(t, []string{Prefix + "offline:a", Prefix + "offline:b"}, keys)
		})
	}
}

func TestKV_Quota(t *testing.T) {
	for name, kv := range backends(t, WithQuota(20)) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("k1", []byte("0123456789")))

			err := kv.Set("k2", []byte("0123456789"))
			assert.ErrorIs(t, err, ErrQuotaExceeded)

			// перезапись того же ключа не должна учитывать старое значение
			require.NoError(t, kv.Set("k1", []byte("abcdefghijklmnop")))

			_, err = kv.Get("k2")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")

	kv, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set("key", []byte("value")))
	require.NoError(t, kv.Close())

	kv, err = NewSQLite(path)
	require.NoError(t, err)
	defer kv.Close()

	value, err := kv.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)
}

func TestMemory_Closed(t *testing.T) {
	kv := NewMemory()
	require.NoError(t, kv.Close())

	assert.ErrorIs(t, kv.Set("a", nil), ErrClosed)
	_, err := kv.Get("a")
	assert.ErrorIs(t, err, ErrClosed)
}
