package sessions

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
)

type repoMock struct {
	sessions map[int]*kegel.Session
	nextID   int
	err      error
}

func NewMockSessionsRepo() *repoMock {
	return &repoMock{
		sessions: make(map[int]*kegel.Session),
		nextID:   1,
	}
}

func (r *repoMock) Add(_ context.Context, session *kegel.Session) (*kegel.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	session.ID = r.nextID
	session.CreatedAt = time.Now()
	r.nextID++
	r.sessions[session.ID] = session
	return session, nil
}

func (r *repoMock) List(_ context.Context, userID string, limit, offset int) ([]kegel.Session, error) {
	if r.err != nil {
		return nil, r.err
	}
	var sessions []kegel.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			sessions = append(sessions, *s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	if offset >= len(sessions) {
		return nil, nil
	}
	sessions = sessions[offset:]
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

func (r *repoMock) Delete(_ context.Context, id int, userID string) error {
	if r.err != nil {
		return r.err
	}
	session, ok := r.sessions[id]
	if !ok || session.UserID != userID {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *repoMock) Stats(_ context.Context, userID string) (*kegel.Stats, error) {
	if r.err != nil {
		return nil, r.err
	}
	var records []kegel.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			records = append(records, *s)
		}
	}

	days := make(map[string]bool)
	var dates []time.Time
	var totalMinutes float64
	for _, rec := range records {
		totalMinutes += rec.Duration
		if !days[rec.Date] {
			days[rec.Date] = true
			date, err := kegel.ParseDate(rec.Date)
			if err != nil {
				return nil, errors.New("invalid stored date: " + rec.Date)
			}
			dates = append(dates, date)
		}
	}

	return &kegel.Stats{
		TotalDays:     len(days),
		TotalSessions: len(records),
		TotalTime:     int(math.Round(totalMinutes)),
		Streak:        kegel.ComputeStreak(dates, time.Now()),
	}, nil
}
