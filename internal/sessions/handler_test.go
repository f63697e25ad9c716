package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/telemetry/metrics"
	"github.com/2beens/kegeltrainer/pkg"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain will run goleak after all tests have been run in the package
// to detect any goroutine leaks
func TestMain(m *testing.M) {
	m.Run()
	goleak.VerifyTestMain(m)
}

const testUserID = "user_1700000000000_abc123"

func newTestRouter(repo sessionsRepo, metricsManager *metrics.Manager) *mux.Router {
	handler := NewHandler(repo, metricsManager)
	r := mux.NewRouter()
	r.HandleFunc("/sessions", handler.HandleAdd).Methods("POST")
	r.HandleFunc("/sessions", handler.HandleList).Methods("GET")
	r.HandleFunc("/sessions/{id}", handler.HandleDelete).Methods("DELETE")
	r.HandleFunc("/stats", handler.HandleStats).Methods("GET")
	return r
}

func addTestSession(t *testing.T, repo *repoMock, userID, date string) *kegel.Session {
	t.Helper()
	added, err := repo.Add(nil, &kegel.Session{
		UserID: userID, Date: date,
		Sets: 3, Reps: 10, Duration: 5.3,
		ContractTime: 5, RelaxTime: 5,
	})
	require.NoError(t, err)
	return added
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) pkg.ApiEnvelope {
	t.Helper()
	var envelope pkg.ApiEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope))
	return envelope
}

func TestHandler_Add(t *testing.T) {
	repo := NewMockSessionsRepo()
	metricsManager := metrics.NewTestManager()
	router := newTestRouter(repo, metricsManager)

	body := fmt.Sprintf(
		`{"user_id":%q,"date":"2024-06-10","sets":3,"reps":10,"duration":5.3,"contract_time":5,"relax_time":5}`,
		testUserID,
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	assert.True(t, envelope.Success)

	var saved kegel.Session
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, 1, saved.ID)
	assert.Equal(t, testUserID, saved.UserID)

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSessionsSaved))
}

func TestHandler_Add_Validation(t *testing.T) {
	router := newTestRouter(NewMockSessionsRepo(), metrics.NewTestManager())

	testCases := []struct {
		name string
		body string
	}{
		{name: "garbage body", body: `not json`},
		{name: "missing user id", body: `{"date":"2024-06-10","sets":3,"reps":10}`},
		{name: "missing date", body: fmt.Sprintf(`{"user_id":%q,"sets":3,"reps":10}`, testUserID)},
		{name: "bad date format", body: fmt.Sprintf(`{"user_id":%q,"date":"10.06.2024","sets":3,"reps":10}`, testUserID)},
		{name: "missing sets and reps", body: fmt.Sprintf(`{"user_id":%q,"date":"2024-06-10"}`, testUserID)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest("POST", "/sessions", strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, decodeEnvelope(t, rr).Success)
		})
	}
}

func TestHandler_List(t *testing.T) {
	repo := NewMockSessionsRepo()
	addTestSession(t, repo, testUserID, "2024-06-09")
	addTestSession(t, repo, testUserID, "2024-06-10")
	addTestSession(t, repo, "user_other", "2024-06-10")

	router := newTestRouter(repo, metrics.NewTestManager())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/sessions?user_id="+testUserID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	assert.True(t, envelope.Success)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 2, *envelope.Count)

	var listed []kegel.Session
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &listed))
	require.Len(t, listed, 2)
	// newest first
	assert.Equal(t, "2024-06-10", listed[0].Date)
	assert.Equal(t, "2024-06-09", listed[1].Date)
}

func TestHandler_List_EmptyAndPaging(t *testing.T) {
	repo := NewMockSessionsRepo()
	for day := 1; day <= 5; day++ {
		addTestSession(t, repo, testUserID, fmt.Sprintf("2024-06-0%d", day))
	}
	router := newTestRouter(repo, metrics.NewTestManager())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/sessions?user_id=user_unknown", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Count)
	assert.Zero(t, *envelope.Count)
	assert.Equal(t, []interface{}{}, envelope.Data)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/sessions?user_id="+testUserID+"&limit=2&offset=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	envelope = decodeEnvelope(t, rr)
	require.NotNil(t, envelope.Count)
	assert.Equal(t, 2, *envelope.Count)
}

func TestHandler_List_Validation(t *testing.T) {
	router := newTestRouter(NewMockSessionsRepo(), metrics.NewTestManager())

	for _, target := range []string{
		"/sessions",
		"/sessions?user_id=" + testUserID + "&limit=abc",
		"/sessions?user_id=" + testUserID + "&limit=0",
		"/sessions?user_id=" + testUserID + "&offset=-1",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestHandler_Delete(t *testing.T) {
	repo := NewMockSessionsRepo()
	added := addTestSession(t, repo, testUserID, "2024-06-10")

	metricsManager := metrics.NewTestManager()
	router := newTestRouter(repo, metricsManager)

	// wrong owner cannot delete
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(
		"DELETE", fmt.Sprintf("/sessions/%d?user_id=user_other", added.ID), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(
		"DELETE", fmt.Sprintf("/sessions/%d?user_id=%s", added.ID, testUserID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeEnvelope(t, rr).Success)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterSessionsDeleted))

	// gone now
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(
		"DELETE", fmt.Sprintf("/sessions/%d?user_id=%s", added.ID, testUserID), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Delete_InvalidID(t *testing.T) {
	router := newTestRouter(NewMockSessionsRepo(), metrics.NewTestManager())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", "/sessions/abc?user_id="+testUserID, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Stats(t *testing.T) {
	repo := NewMockSessionsRepo()
	today := time.Now()
	addTestSession(t, repo, testUserID, kegel.FormatDate(today))
	addTestSession(t, repo, testUserID, kegel.FormatDate(today))
	addTestSession(t, repo, testUserID, kegel.FormatDate(today.AddDate(0, 0, -1)))

	router := newTestRouter(repo, metrics.NewTestManager())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/stats?user_id="+testUserID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	envelope := decodeEnvelope(t, rr)
	require.True(t, envelope.Success)

	var stats kegel.Stats
	data, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 2, stats.TotalDays)
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 16, stats.TotalTime)
	assert.Equal(t, 2, stats.Streak)
}

func TestHandler_RepoFailure(t *testing.T) {
	repo := NewMockSessionsRepo()
	repo.err = errors.New("db gone")
	router := newTestRouter(repo, metrics.NewTestManager())

	for _, req := range []*http.Request{
		httptest.NewRequest("GET", "/sessions?user_id="+testUserID, nil),
		httptest.NewRequest("GET", "/stats?user_id="+testUserID, nil),
		httptest.NewRequest("DELETE", "/sessions/1?user_id="+testUserID, nil),
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code, req.URL.Path)
		assert.False(t, decodeEnvelope(t, rr).Success)
	}
}
