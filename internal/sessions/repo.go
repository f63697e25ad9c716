package sessions

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("session not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, session *kegel.Session) (*kegel.Session, error) {
	rows, err := r.db.Query(
		ctx,
		`INSERT INTO kegel_sessions (user_id, date, sets, reps, duration, contract_time, relax_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at;`,
		session.UserID, session.Date, session.Sets, session.Reps,
		session.Duration, session.ContractTime, session.RelaxTime,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, errors.New("unexpected error [no rows next]")
	}

	var id int
	var createdAt time.Time
	if err := rows.Scan(&id, &createdAt); err != nil {
		return nil, fmt.Errorf("rows scan: %w", err)
	}

	session.ID = id
	session.CreatedAt = createdAt
	return session, nil
}

func (r *Repo) List(ctx context.Context, userID string, limit, offset int) ([]kegel.Session, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				id, user_id, date, sets, reps, duration, contract_time, relax_time, created_at
			FROM kegel_sessions
			WHERE user_id = $1
			ORDER BY date DESC, created_at DESC
			LIMIT $2 OFFSET $3;`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var sessions []kegel.Session
	for rows.Next() {
		var s kegel.Session
		var date time.Time
		if err := rows.Scan(
			&s.ID, &s.UserID, &date, &s.Sets, &s.Reps,
			&s.Duration, &s.ContractTime, &s.RelaxTime, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		// date-only column, formatted as scanned to avoid timezone shifts
		s.Date = date.Format(kegel.DateLayout)
		sessions = append(sessions, s)
	}

	return sessions, nil
}

func (r *Repo) Delete(ctx context.Context, id int, userID string) error {
	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM kegel_sessions WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Stats aggregates the numbers for the stats board. The streak is computed
// from the distinct training dates, in the server's local timezone.
func (r *Repo) Stats(ctx context.Context, userID string) (*kegel.Stats, error) {
	var totalSessions, totalDays int
	var totalMinutes float64
	err := r.db.QueryRow(
		ctx,
		`
			SELECT
				COUNT(*),
				COUNT(DISTINCT date),
				COALESCE(SUM(duration), 0)
			FROM kegel_sessions
			WHERE user_id = $1;`,
		userID,
	).Scan(&totalSessions, &totalDays, &totalMinutes)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	dates, err := r.trainingDates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats dates: %w", err)
	}

	return &kegel.Stats{
		TotalDays:     totalDays,
		TotalSessions: totalSessions,
		TotalTime:     int(math.Round(totalMinutes)),
		Streak:        kegel.ComputeStreak(dates, time.Now()),
	}, nil
}

func (r *Repo) trainingDates(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.db.Query(
		ctx,
		`SELECT DISTINCT date FROM kegel_sessions WHERE user_id = $1 ORDER BY date DESC;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		// re-anchor the date-only value in local time for the streak walk
		dates = append(dates, time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local))
	}
	return dates, nil
}
