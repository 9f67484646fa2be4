package glpi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/config"
	"github.com/spec-kit/glpi-bridge/internal/events"
	"github.com/spec-kit/glpi-bridge/internal/observability"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// SessionManager owns the upstream session-token lifecycle: acquisition,
// caching, expiry-triggered renewal and teardown. The cached token is
// shared across concurrent requests; all read-and-possibly-refresh access
// is serialized behind a mutex.
type SessionManager struct {
	cfg        config.GLPIConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

// NewSessionManager constructs a session manager. The metrics argument may
// be nil.
func NewSessionManager(cfg config.GLPIConfig, logger *zap.Logger, metrics *observability.Metrics) *SessionManager {
	return &SessionManager{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout()},
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// SetDispatcher enables session lifecycle events. Optional; a nil
// dispatcher keeps renewals log-only.
func (s *SessionManager) SetDispatcher(dispatcher events.Dispatcher) {
	s.dispatcher = dispatcher
}

// Acquire returns a valid session token, reusing the cached one while it
// has not expired and performing the upstream init exchange otherwise.
func (s *SessionManager) Acquire(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, nil
	}
	return s.initSessionLocked(ctx)
}

// Headers returns the authentication headers for an upstream call,
// acquiring a session token first when needed.
func (s *SessionManager) Headers(ctx context.Context) (map[string]string, error) {
	token, err := s.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"App-Token":     s.cfg.AppToken,
		"Session-Token": token,
	}, nil
}

// Invalidate drops the cached token so the next Acquire re-initializes
// the session. No upstream call is made.
func (s *SessionManager) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiry = time.Time{}
}

// Close terminates the upstream session on shutdown. Best effort: an
// upstream failure is logged but never blocks or fails the shutdown path.
func (s *SessionManager) Close(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()

	if token == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/killSession", nil)
	if err != nil {
		s.logger.Warn("kill session request", zap.Error(err))
		return
	}
	req.Header.Set("App-Token", s.cfg.AppToken)
	req.Header.Set("Session-Token", token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("kill session failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	s.logger.Info("session terminated", zap.Int("status", resp.StatusCode))
}

func (s *SessionManager) initSessionLocked(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/initSession", nil)
	if err != nil {
		return "", util.NewAuthenticationError("failed to build session request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", s.cfg.AppToken)
	req.Header.Set("Authorization", "user_token "+s.cfg.UserToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", util.NewAuthenticationError("failed to initialize upstream session", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", util.NewUpstreamError(resp.StatusCode, string(body))
	}

	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", util.NewAuthenticationError("malformed session response", err)
	}
	if payload.SessionToken == "" {
		return "", util.NewAuthenticationError("upstream returned an empty session token", nil)
	}

	s.token = payload.SessionToken
	s.expiry = s.now().Add(s.cfg.SessionTTL())
	s.metrics.RecordSessionInit()
	s.logger.Info("upstream session initialized")
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSessionRenewed,
			Timestamp: s.now(),
		})
	}
	return s.token, nil
}
