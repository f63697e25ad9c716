package usersettings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/kegeltrainer/internal/telemetry/metrics"
	"github.com/2beens/kegeltrainer/pkg"

	log "github.com/sirupsen/logrus"
)

type settingsRepo interface {
	Get(ctx context.Context, userID string) (*UserSettings, error)
	Upsert(ctx context.Context, settings *UserSettings) error
}

type Handler struct {
	repo    settingsRepo
	metrics *metrics.Manager
}

func NewHandler(repo settingsRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}

	settings, err := handler.repo.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			pkg.WriteApiError(w, http.StatusNotFound, "not found", "no settings for this user")
			return
		}
		log.Errorf("failed to get settings for [%s]: %s", userID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to get settings")
		return
	}

	pkg.WriteApiData(w, settings, -1)
}

func (handler *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var settings UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		log.Tracef("save settings, decode body: %s", err)
		pkg.WriteApiError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if settings.UserID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}
	if err := settings.Validate(); err != nil {
		pkg.WriteApiError(w, http.StatusBadRequest, "invalid settings", err.Error())
		return
	}

	if err := handler.repo.Upsert(r.Context(), &settings); err != nil {
		log.Errorf("failed to save settings for [%s]: %s", settings.UserID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to save settings")
		return
	}

	handler.metrics.CounterSettingsUpdates.Inc()

	log.Printf("settings saved for [%s]", settings.UserID)
	pkg.WriteApiData(w, &settings, -1)
}
