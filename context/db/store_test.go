package db

import (
	"path/filepath"
	"testing"

	"github.com/govm-net/corevm/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corevm.db")
	s, err := Open(path)
	require.NoError(t, err)
	return s
}

func TestStoreGetSetDelete(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", []byte("v")))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(v))

	require.NoError(t, s.Set("k", []byte("v2")))
	v, ok, err = s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(v))

	require.NoError(t, s.Delete("k"))
	_, ok, err = s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendAndLoadOracleEntry(t *testing.T) {
	s := openTemp(t)

	_, ok, err := s.LoadOracleEntry("price://BTC")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.CacheOracleEntry("price://BTC", []byte("65000")))
	content, ok, err := s.LoadOracleEntry("price://BTC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "65000", string(content))
}

func TestAppendEvent(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.AppendEvent(1, "0xabc", "contract1", 3, "0xdef", []byte("payload")))

	var rows []DBEvent
	require.NoError(t, s.db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(1), rows[0].BlockHeight)
	assert.Equal(t, "contract1", rows[0].Contract)
}

func TestRegisteredUnderDBStoreType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registered.db")
	store, err := context.Get(context.DBStoreType, map[string]any{"db_path": path})
	require.NoError(t, err)
	require.NoError(t, store.Set("a", []byte("1")))
	v, ok, err := store.Get("a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", string(v))
}
