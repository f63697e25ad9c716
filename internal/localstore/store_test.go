package localstore_test

import (
	"testing"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRemove(t *testing.T) {
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	settings := kegel.DefaultSettings()
	require.True(t, store.Set(localstore.KeySettings, settings))

	var loaded kegel.Settings
	found, err := store.Get(localstore.KeySettings, &loaded)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, settings, loaded)

	store.Remove(localstore.KeySettings)
	found, err = store.Get(localstore.KeySettings, &loaded)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_GetMissingLeavesDefault(t *testing.T) {
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	records := []kegel.Session{{Date: "2025-03-15"}}
	found, err := store.Get(localstore.KeyRecords, &records)
	require.NoError(t, err)
	assert.False(t, found)
	// caller's default untouched
	assert.Len(t, records, 1)
}

func TestStore_OverwriteReplacesValue(t *testing.T) {
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	require.True(t, store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2025-03-14"}, {Date: "2025-03-15"}}))
	require.True(t, store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2025-03-15"}}))

	var records []kegel.Session
	found, err := store.Get(localstore.KeyRecords, &records)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, records, 1)
}

func TestStore_RemoveMissingIsNoop(t *testing.T) {
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)
	store.Remove("never_set")
}
