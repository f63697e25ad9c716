// Package client is a thin typed wrapper around the remote session API. Every
// call is scoped by the locally generated anonymous user identity.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"
	"github.com/2beens/kegeltrainer/pkg"

	log "github.com/sirupsen/logrus"
)

// ApiError is a non-2xx response from the remote API, carrying the
// server-supplied message when there is one.
type ApiError struct {
	StatusCode int
	Message    string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error [%d]: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *ApiError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Count   int             `json:"count,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

func NewClient(baseURL, userID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		userID:     userID,
		httpClient: httpClient,
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// LoadOrCreateUserID returns the persisted anonymous user identity, generating
// and persisting a fresh one on first run. The identity is never rotated.
func LoadOrCreateUserID(store *localstore.Store) string {
	var userID string
	if found, err := store.Get(localstore.KeyUserID, &userID); err != nil {
		log.Errorf("load user id: %s", err)
	} else if found && userID != "" {
		return userID
	}

	suffix, err := pkg.GenerateRandomString(6)
	if err != nil {
		// fall back to timestamp-only identity, still unique enough for one device
		log.Errorf("generate user id suffix: %s", err)
		suffix = strconv.FormatInt(time.Now().UnixNano()%100000, 10)
	}
	userID = fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), suffix)
	if ok := store.Set(localstore.KeyUserID, userID); !ok {
		log.Errorf("failed to persist user id %s", userID)
	}
	return userID
}

func (c *Client) request(ctx context.Context, method, path string, body interface{}) (*apiResponse, error) {
	var reqBody io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response bytes: %w", err)
	}

	apiResp := &apiResponse{}
	if err := json.Unmarshal(respBytes, apiResp); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("unmarshal response bytes: %w", err)
	}

	if resp.StatusCode >= 300 {
		msg := apiResp.Error
		if msg == "" {
			msg = apiResp.Message
		}
		if msg == "" {
			msg = "request failed"
		}
		return nil, &ApiError{StatusCode: resp.StatusCode, Message: msg}
	}

	return apiResp, nil
}

func (c *Client) GetSessions(ctx context.Context, limit, offset int) ([]kegel.Session, error) {
	path := fmt.Sprintf(
		"/sessions?user_id=%s&limit=%d&offset=%d",
		url.QueryEscape(c.userID), limit, offset,
	)
	resp, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var sessions []kegel.Session
	if err := json.Unmarshal(resp.Data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	return sessions, nil
}

// SaveSession stores a session remotely and returns the server-assigned id.
func (c *Client) SaveSession(ctx context.Context, session kegel.Session) (int, error) {
	session.UserID = c.userID
	resp, err := c.request(ctx, http.MethodPost, "/sessions", session)
	if err != nil {
		return 0, err
	}

	var created struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		return 0, fmt.Errorf("unmarshal created session: %w", err)
	}
	return created.ID, nil
}

func (c *Client) DeleteSession(ctx context.Context, id int) error {
	path := fmt.Sprintf("/sessions/%d?user_id=%s", id, url.QueryEscape(c.userID))
	_, err := c.request(ctx, http.MethodDelete, path, nil)
	return err
}

func (c *Client) GetStats(ctx context.Context) (*kegel.Stats, error) {
	resp, err := c.request(ctx, http.MethodGet, "/stats?user_id="+url.QueryEscape(c.userID), nil)
	if err != nil {
		return nil, err
	}

	stats := &kegel.Stats{}
	if err := json.Unmarshal(resp.Data, stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return stats, nil
}

func (c *Client) GetSettings(ctx context.Context) (*kegel.Settings, error) {
	resp, err := c.request(ctx, http.MethodGet, "/settings?user_id="+url.QueryEscape(c.userID), nil)
	if err != nil {
		return nil, err
	}

	settings := &kegel.Settings{}
	if err := json.Unmarshal(resp.Data, settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}

func (c *Client) SaveSettings(ctx context.Context, settings kegel.Settings) error {
	body := struct {
		kegel.Settings
		UserID string `json:"user_id"`
	}{Settings: settings, UserID: c.userID}

	_, err := c.request(ctx, http.MethodPost, "/settings", body)
	return err
}

// CheckConnection probes the liveness endpoint. It never returns an error:
// any failure means offline.
func (c *Client) CheckConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Tracef("connection check failed: %s", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode == http.StatusOK
}
