// Package syncer orchestrates reads and writes across the local store and the
// remote session API: local writes are authoritative and unconditional, remote
// calls are opportunistic and never block or fail a local operation.
package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var ErrOffline = errors.New("server not reachable")

const (
	defaultConnCacheTTL = 30 * time.Second
	sessionsFetchLimit  = 100
)

var connCacheKey = []byte("online")

type apiClient interface {
	GetSessions(ctx context.Context, limit, offset int) ([]kegel.Session, error)
	SaveSession(ctx context.Context, session kegel.Session) (int, error)
	GetStats(ctx context.Context) (*kegel.Stats, error)
	CheckConnection(ctx context.Context) bool
}

// SyncResult reports a (possibly partial) push of local records to the cloud.
// Partial success is a normal outcome, not an error.
type SyncResult struct {
	SuccessCount int             `json:"successCount"`
	FailCount    int             `json:"failCount"`
	Total        int             `json:"total"`
	Failed       []kegel.Session `json:"failed,omitempty"`
}

type Manager struct {
	store *localstore.Store
	api   apiClient

	connCache    *freecache.Cache
	connCacheTTL time.Duration

	// opSeq guards cache overwrites against remote responses that arrive
	// after a newer local mutation
	mu    sync.Mutex
	opSeq uint64
}

type ManagerParams struct {
	Store *localstore.Store
	Api   apiClient
	// ConnectionCacheTTL bounds connectivity answer staleness; 0 means the
	// 30s default
	ConnectionCacheTTL time.Duration
}

func NewManager(params ManagerParams) *Manager {
	ttl := params.ConnectionCacheTTL
	if ttl <= 0 {
		ttl = defaultConnCacheTTL
	}
	return &Manager{
		store:        params.Store,
		api:          params.Api,
		connCache:    freecache.NewCache(512 * 1024),
		connCacheTTL: ttl,
	}
}

// Enabled reports the persisted sync flag; sync is on by default.
func (m *Manager) Enabled() bool {
	enabled := true
	if _, err := m.store.Get(localstore.KeySyncEnabled, &enabled); err != nil {
		log.Errorf("read sync flag: %s", err)
	}
	return enabled
}

// ToggleSync persists the flag gating all opportunistic remote calls. When
// off, the manager behaves as pure local storage.
func (m *Manager) ToggleSync(enabled bool) bool {
	m.store.Set(localstore.KeySyncEnabled, enabled)
	return enabled
}

// CheckConnection probes the remote API, reusing a cached answer no older
// than the connection cache TTL.
func (m *Manager) CheckConnection(ctx context.Context) bool {
	if cached, err := m.connCache.Get(connCacheKey); err == nil {
		return cached[0] == '1'
	}

	online := m.api.CheckConnection(ctx)
	val := []byte("0")
	if online {
		val = []byte("1")
	}
	if err := m.connCache.Set(connCacheKey, val, int(m.connCacheTTL.Seconds())); err != nil {
		log.Errorf("cache connection state: %s", err)
	}
	return online
}

func (m *Manager) localSessions() []kegel.Session {
	var records []kegel.Session
	if _, err := m.store.Get(localstore.KeyRecords, &records); err != nil {
		log.Errorf("read local records: %s", err)
	}
	return records
}

func (m *Manager) bumpSeq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opSeq++
	return m.opSeq
}

func (m *Manager) currentSeq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opSeq
}

// setRecordsIfUnchanged overwrites the local cache with remote data, unless a
// newer local mutation happened after the remote call started.
func (m *Manager) setRecordsIfUnchanged(records []kegel.Session, seqBefore uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opSeq != seqBefore {
		log.Debugf("skipping cache overwrite, local records changed mid-flight")
		return false
	}
	m.opSeq++
	return m.store.Set(localstore.KeyRecords, records)
}

// SaveSession appends the record to the local store unconditionally, then
// attempts a best-effort remote save. Remote failures are logged and
// swallowed; the local write is never rolled back.
func (m *Manager) SaveSession(ctx context.Context, session kegel.Session) {
	records := append(m.localSessions(), session)
	m.bumpSeq()
	if ok := m.store.Set(localstore.KeyRecords, records); !ok {
		log.Errorf("failed to store session locally, date: %s", session.Date)
	}

	if !m.Enabled() || !m.CheckConnection(ctx) {
		return
	}

	if _, err := m.api.SaveSession(ctx, session); err != nil {
		log.Warnf("cloud sync failed, session kept locally: %s", err)
		return
	}
	log.Debugf("session synced to cloud, date: %s", session.Date)
}

// LoadSessions prefers the remote records, overwriting the local cache on
// success; on any failure or offline it returns the local cache unchanged.
func (m *Manager) LoadSessions(ctx context.Context) []kegel.Session {
	if !m.Enabled() || !m.CheckConnection(ctx) {
		return m.localSessions()
	}

	seqBefore := m.currentSeq()
	remote, err := m.api.GetSessions(ctx, sessionsFetchLimit, 0)
	if err != nil {
		log.Warnf("cloud fetch failed, using local records: %s", err)
		return m.localSessions()
	}

	if !m.setRecordsIfUnchanged(remote, seqBefore) {
		return m.localSessions()
	}
	return remote
}

// LoadStats returns remote aggregate stats, or nil when offline, sync is
// disabled or the remote call fails - the caller must then compute stats
// locally.
func (m *Manager) LoadStats(ctx context.Context) *kegel.Stats {
	if !m.Enabled() || !m.CheckConnection(ctx) {
		return nil
	}

	stats, err := m.api.GetStats(ctx)
	if err != nil {
		log.Warnf("cloud stats fetch failed, falling back to local: %s", err)
		return nil
	}
	return stats
}

// SyncToCloud pushes every local record individually, tolerating per-record
// failures. Fails fast when offline.
func (m *Manager) SyncToCloud(ctx context.Context) (*SyncResult, error) {
	if !m.api.CheckConnection(ctx) {
		return nil, ErrOffline
	}

	records := m.localSessions()
	result := &SyncResult{Total: len(records)}
	for _, record := range records {
		if _, err := m.api.SaveSession(ctx, record); err != nil {
			log.Errorf("failed to sync record [%s]: %s", record.Date, err)
			result.FailCount++
			result.Failed = append(result.Failed, record)
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// PullFromCloud replaces the local cache entirely with the remote records and
// returns the count pulled. Fails fast when offline.
func (m *Manager) PullFromCloud(ctx context.Context) (int, error) {
	if !m.api.CheckConnection(ctx) {
		return 0, ErrOffline
	}

	seqBefore := m.currentSeq()
	remote, err := m.api.GetSessions(ctx, sessionsFetchLimit, 0)
	if err != nil {
		return 0, err
	}

	m.setRecordsIfUnchanged(remote, seqBefore)
	return len(remote), nil
}
