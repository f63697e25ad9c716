package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, api *apiMock) (*Manager, *localstore.Store) {
	t.Helper()
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewManager(ManagerParams{Store: store, Api: api}), store
}

func localRecords(t *testing.T, store *localstore.Store) []kegel.Session {
	t.Helper()
	var records []kegel.Session
	_, err := store.Get(localstore.KeyRecords, &records)
	require.NoError(t, err)
	return records
}

func TestSaveSession_OnlineSyncsToCloud(t *testing.T) {
	api := newApiMock()
	manager, store := newTestManager(t, api)

	session := kegel.Session{Date: "2025-03-15", Sets: 3, Reps: 10, Duration: 5.3}
	manager.SaveSession(context.Background(), session)

	require.Len(t, localRecords(t, store), 1)
	require.Len(t, api.remote, 1)
	assert.Equal(t, "2025-03-15", api.remote[0].Date)
}

func TestSaveSession_OfflineStillStoresLocally(t *testing.T) {
	api := newApiMock()
	api.online = false
	manager, store := newTestManager(t, api)

	manager.SaveSession(context.Background(), kegel.Session{Date: "2025-03-15"})

	require.Len(t, localRecords(t, store), 1)
	assert.Empty(t, api.remote)
}

func TestSaveSession_RemoteFailureSwallowed(t *testing.T) {
	api := newApiMock()
	api.failSaves = true
	manager, store := newTestManager(t, api)

	manager.SaveSession(context.Background(), kegel.Session{Date: "2025-03-15"})

	// local write survives, failure not surfaced
	require.Len(t, localRecords(t, store), 1)
	assert.Empty(t, api.remote)
}

func TestSaveSession_SyncDisabledSkipsRemote(t *testing.T) {
	api := newApiMock()
	manager, store := newTestManager(t, api)
	manager.ToggleSync(false)

	manager.SaveSession(context.Background(), kegel.Session{Date: "2025-03-15"})

	require.Len(t, localRecords(t, store), 1)
	assert.Empty(t, api.remote)
	assert.Zero(t, api.saveCalls)
}

func TestLoadSessions_OnlineOverwritesLocalCache(t *testing.T) {
	api := newApiMock()
	api.remote = []kegel.Session{{Date: "2025-03-14"}, {Date: "2025-03-15"}}
	manager, store := newTestManager(t, api)
	store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2020-01-01"}})

	sessions := manager.LoadSessions(context.Background())
	require.Len(t, sessions, 2)
	assert.Equal(t, sessions, localRecords(t, store))
}

func TestLoadSessions_OfflineReturnsLocalCacheUnchanged(t *testing.T) {
	api := newApiMock()
	api.online = false
	manager, store := newTestManager(t, api)
	store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2020-01-01"}})

	sessions := manager.LoadSessions(context.Background())
	require.Len(t, sessions, 1)
	assert.Equal(t, "2020-01-01", sessions[0].Date)
}

func TestLoadSessions_StaleRemoteResponseDoesNotClobberNewerWrite(t *testing.T) {
	api := newApiMock()
	api.remote = []kegel.Session{{Date: "2025-03-14"}}
	manager, store := newTestManager(t, api)

	// simulate a local mutation landing between the connectivity check and
	// the cache overwrite
	seqBefore := manager.currentSeq()
	manager.SaveSession(context.Background(), kegel.Session{Date: "2025-03-15"})

	assert.False(t, manager.setRecordsIfUnchanged([]kegel.Session{{Date: "2025-03-14"}}, seqBefore))

	records := localRecords(t, store)
	require.NotEmpty(t, records)
	assert.Equal(t, "2025-03-15", records[len(records)-1].Date)
}

func TestLoadStats(t *testing.T) {
	api := newApiMock()
	api.stats = &kegel.Stats{TotalDays: 3, TotalSessions: 5, TotalTime: 27, Streak: 2}
	manager, _ := newTestManager(t, api)

	stats := manager.LoadStats(context.Background())
	require.NotNil(t, stats)
	assert.Equal(t, 2, stats.Streak)

	// offline -> nil, caller computes locally
	offline := newApiMock()
	offline.online = false
	manager, _ = newTestManager(t, offline)
	assert.Nil(t, manager.LoadStats(context.Background()))
}

func TestSyncToCloud(t *testing.T) {
	api := newApiMock()
	manager, store := newTestManager(t, api)
	store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2025-03-14"}, {Date: "2025-03-15"}})

	result, err := manager.SyncToCloud(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.FailCount)
	assert.Equal(t, 2, result.Total)
	assert.Empty(t, result.Failed)
}

func TestSyncToCloud_PartialFailure(t *testing.T) {
	api := newApiMock()
	api.failSaves = true
	manager, store := newTestManager(t, api)
	store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2025-03-14"}, {Date: "2025-03-15"}})

	result, err := manager.SyncToCloud(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 2, result.FailCount)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, "2025-03-14", result.Failed[0].Date)
}

func TestSyncToCloud_OfflineFailsFast(t *testing.T) {
	api := newApiMock()
	api.online = false
	manager, _ := newTestManager(t, api)

	_, err := manager.SyncToCloud(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestPullFromCloud(t *testing.T) {
	api := newApiMock()
	api.remote = []kegel.Session{{Date: "2025-03-14"}, {Date: "2025-03-15"}}
	manager, store := newTestManager(t, api)
	store.Set(localstore.KeyRecords, []kegel.Session{{Date: "2020-01-01"}})

	count, err := manager.PullFromCloud(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, localRecords(t, store), 2)
}

func TestPullFromCloud_OfflineFailsFast(t *testing.T) {
	api := newApiMock()
	api.online = false
	manager, _ := newTestManager(t, api)

	_, err := manager.PullFromCloud(context.Background())
	assert.ErrorIs(t, err, ErrOffline)
}

func TestToggleSync(t *testing.T) {
	manager, _ := newTestManager(t, newApiMock())
	assert.True(t, manager.Enabled())
	assert.False(t, manager.ToggleSync(false))
	assert.False(t, manager.Enabled())
	assert.True(t, manager.ToggleSync(true))
	assert.True(t, manager.Enabled())
}

func TestCheckConnection_CachedWithinTTL(t *testing.T) {
	api := newApiMock()
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)
	manager := NewManager(ManagerParams{
		Store:              store,
		Api:                api,
		ConnectionCacheTTL: 30 * time.Second,
	})

	assert.True(t, manager.CheckConnection(context.Background()))
	assert.True(t, manager.CheckConnection(context.Background()))
	assert.Equal(t, 1, api.checkCalls)
}
