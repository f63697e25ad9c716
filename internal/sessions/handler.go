package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/telemetry/metrics"
	"github.com/2beens/kegeltrainer/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type sessionsRepo interface {
	Add(ctx context.Context, session *kegel.Session) (*kegel.Session, error)
	List(ctx context.Context, userID string, limit, offset int) ([]kegel.Session, error)
	Delete(ctx context.Context, id int, userID string) error
	Stats(ctx context.Context, userID string) (*kegel.Stats, error)
}

type Handler struct {
	repo    sessionsRepo
	metrics *metrics.Manager
}

func NewHandler(repo sessionsRepo, metrics *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metrics,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var session kegel.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		log.Tracef("add session, decode body: %s", err)
		pkg.WriteApiError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if session.UserID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}
	if session.Date == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "date is required")
		return
	}
	if _, err := kegel.ParseDate(session.Date); err != nil {
		pkg.WriteApiError(w, http.StatusBadRequest, "invalid date", "date must be formatted as YYYY-MM-DD")
		return
	}
	if session.Sets <= 0 || session.Reps <= 0 {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "sets and reps are required")
		return
	}

	added, err := handler.repo.Add(r.Context(), &session)
	if err != nil {
		log.Errorf("failed to add session for [%s]: %s", session.UserID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to save session")
		return
	}

	handler.metrics.CounterSessionsSaved.Inc()

	log.Printf("new session added: [%s] on [%s]: %d", added.UserID, added.Date, added.ID)
	pkg.WriteApiData(w, added, -1)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}

	limit := defaultListLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			pkg.WriteApiError(w, http.StatusBadRequest, "invalid limit", "limit must be a positive number")
			return
		}
		limit = parsed
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset := 0
	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		parsed, err := strconv.Atoi(offsetParam)
		if err != nil || parsed < 0 {
			pkg.WriteApiError(w, http.StatusBadRequest, "invalid offset", "offset must be a non-negative number")
			return
		}
		offset = parsed
	}

	sessions, err := handler.repo.List(r.Context(), userID, limit, offset)
	if err != nil {
		log.Errorf("failed to list sessions for [%s]: %s", userID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to get sessions")
		return
	}

	if sessions == nil {
		sessions = []kegel.Session{}
	}
	pkg.WriteApiData(w, sessions, len(sessions))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.Atoi(idStr)
	if err != nil {
		pkg.WriteApiError(w, http.StatusBadRequest, "invalid id", "session id must be a number")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}

	if err := handler.repo.Delete(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			pkg.WriteApiError(w, http.StatusNotFound, "not found", "session not found")
			return
		}
		log.Errorf("failed to delete session %d for [%s]: %s", id, userID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to delete session")
		return
	}

	handler.metrics.CounterSessionsDeleted.Inc()
	pkg.WriteApiData(w, map[string]int{"id": id}, -1)
}

func (handler *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		pkg.WriteApiError(w, http.StatusBadRequest, "missing required field", "user_id is required")
		return
	}

	stats, err := handler.repo.Stats(r.Context(), userID)
	if err != nil {
		log.Errorf("failed to get stats for [%s]: %s", userID, err)
		pkg.WriteApiError(w, http.StatusInternalServerError, "internal server error", "failed to get stats")
		return
	}

	pkg.WriteApiData(w, stats, -1)
}
