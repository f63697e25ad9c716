package syncer

import (
	"context"
	"errors"

	"github.com/2beens/kegeltrainer/internal/kegel"
)

// apiMock is an in-memory stand-in for the remote API client, used in tests.
type apiMock struct {
	online     bool
	remote     []kegel.Session
	stats      *kegel.Stats
	failSaves  bool
	saveCalls  int
	checkCalls int
	nextID     int
}

func newApiMock() *apiMock {
	return &apiMock{online: true}
}

func (a *apiMock) GetSessions(_ context.Context, limit, offset int) ([]kegel.Session, error) {
	if !a.online {
		return nil, errors.New("connection refused")
	}
	if offset >= len(a.remote) {
		return []kegel.Session{}, nil
	}
	end := offset + limit
	if end > len(a.remote) {
		end = len(a.remote)
	}
	return a.remote[offset:end], nil
}

func (a *apiMock) SaveSession(_ context.Context, session kegel.Session) (int, error) {
	a.saveCalls++
	if !a.online || a.failSaves {
		return 0, errors.New("connection refused")
	}
	a.nextID++
	session.ID = a.nextID
	a.remote = append(a.remote, session)
	return session.ID, nil
}

func (a *apiMock) GetStats(_ context.Context) (*kegel.Stats, error) {
	if !a.online || a.stats == nil {
		return nil, errors.New("connection refused")
	}
	return a.stats, nil
}

func (a *apiMock) CheckConnection(_ context.Context) bool {
	a.checkCalls++
	return a.online
}
