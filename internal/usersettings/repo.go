package usersettings

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSettingsNotFound = errors.New("settings not found")

// UserSettings are the trainer settings of a single user, one row per user.
type UserSettings struct {
	kegel.Settings
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID string) (*UserSettings, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT
				user_id, reps_per_set, total_sets, contract_time, relax_time, rest_time,
				sound_enabled, reminder_enabled, reminder_time, updated_at
			FROM kegel_settings
			WHERE user_id = $1;`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if !rows.Next() {
		return nil, ErrSettingsNotFound
	}

	var settings UserSettings
	if err := rows.Scan(
		&settings.UserID, &settings.RepsPerSet, &settings.TotalSets,
		&settings.ContractTime, &settings.RelaxTime, &settings.RestTime,
		&settings.SoundEnabled, &settings.ReminderEnabled, &settings.ReminderTime,
		&settings.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert inserts the settings row for the user, or overwrites it when one
// already exists.
func (r *Repo) Upsert(ctx context.Context, settings *UserSettings) error {
	_, err := r.db.Exec(
		ctx,
		`
			INSERT INTO kegel_settings (
				user_id, reps_per_set, total_sets, contract_time, relax_time, rest_time,
				sound_enabled, reminder_enabled, reminder_time, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
			ON CONFLICT (user_id) DO UPDATE SET
				reps_per_set = EXCLUDED.reps_per_set,
				total_sets = EXCLUDED.total_sets,
				contract_time = EXCLUDED.contract_time,
				relax_time = EXCLUDED.relax_time,
				rest_time = EXCLUDED.rest_time,
				sound_enabled = EXCLUDED.sound_enabled,
				reminder_enabled = EXCLUDED.reminder_enabled,
				reminder_time = EXCLUDED.reminder_time,
				updated_at = NOW();`,
		settings.UserID, settings.RepsPerSet, settings.TotalSets,
		settings.ContractTime, settings.RelaxTime, settings.RestTime,
		settings.SoundEnabled, settings.ReminderEnabled, settings.ReminderTime,
	)
	return err
}
