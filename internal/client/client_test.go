package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/kegeltrainer/internal/client"
	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetSessions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "user_1_abc", r.URL.Query().Get("user_id"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"success":true,"data":[{"date":"2025-03-15","sets":3,"reps":10,"duration":5.3,"contract_time":5,"relax_time":5}],"count":1}`))
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	sessions, err := c.GetSessions(context.Background(), 100, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2025-03-15", sessions[0].Date)
	assert.Equal(t, 5.3, sessions[0].Duration)
}

func TestClient_SaveSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)

		var session kegel.Session
		require.NoError(t, json.NewDecoder(r.Body).Decode(&session))
		// client injects the user identity
		assert.Equal(t, "user_1_abc", session.UserID)
		assert.Equal(t, 3, session.Sets)

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":42}}`))
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	id, err := c.SaveSession(context.Background(), kegel.Session{
		Date: "2025-03-15", Sets: 3, Reps: 10, Duration: 5.3, ContractTime: 5, RelaxTime: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}

func TestClient_DeleteSession_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"session not found"}`))
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	err := c.DeleteSession(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Contains(t, err.Error(), "session not found")
}

func TestClient_ErrorWithoutBodyGetsDefaultMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	_, err := c.GetStats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}

func TestClient_GetStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stats", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{"totalDays":4,"totalSessions":7,"totalTime":38,"streak":2}}`))
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	stats, err := c.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &kegel.Stats{TotalDays: 4, TotalSessions: 7, TotalTime: 38, Streak: 2}, stats)
}

func TestClient_SaveAndGetSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user_1_abc", body["user_id"])
			assert.EqualValues(t, 10, body["repsPerSet"])
			_, _ = w.Write([]byte(`{"success":true}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"success":true,"data":{"repsPerSet":15,"totalSets":4,"contractTime":8,"relaxTime":5,"restTime":15,"soundEnabled":true}}`))
		}
	}))
	defer server.Close()

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	require.NoError(t, c.SaveSettings(context.Background(), kegel.DefaultSettings()))

	settings, err := c.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, settings.RepsPerSet)
	assert.True(t, settings.SoundEnabled)
}

func TestClient_CheckConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok","timestamp":"2025-03-15T10:00:00Z"}`))
	}))

	c := client.NewClient(server.URL, "user_1_abc", server.Client())
	assert.True(t, c.CheckConnection(context.Background()))

	// server gone -> offline, no error
	server.Close()
	assert.False(t, c.CheckConnection(context.Background()))
}

func TestLoadOrCreateUserID(t *testing.T) {
	store, err := localstore.NewStore(t.TempDir())
	require.NoError(t, err)

	userID := client.LoadOrCreateUserID(store)
	require.NotEmpty(t, userID)
	assert.Contains(t, userID, "user_")

	// stable across calls
	assert.Equal(t, userID, client.LoadOrCreateUserID(store))
}
