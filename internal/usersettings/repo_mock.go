package usersettings

import (
	"context"
	"time"
)

type repoMock struct {
	settings map[string]*UserSettings
	err      error
}

func NewMockSettingsRepo() *repoMock {
	return &repoMock{
		settings: make(map[string]*UserSettings),
	}
}

func (r *repoMock) Get(_ context.Context, userID string) (*UserSettings, error) {
	if r.err != nil {
		return nil, r.err
	}
	settings, ok := r.settings[userID]
	if !ok {
		return nil, ErrSettingsNotFound
	}
	return settings, nil
}

func (r *repoMock) Upsert(_ context.Context, settings *UserSettings) error {
	if r.err != nil {
		return r.err
	}
	settings.UpdatedAt = time.Now()
	r.settings[settings.UserID] = settings
	return nil
}
