package glpi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/config"
	"github.com/spec-kit/glpi-bridge/internal/observability"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// Client executes authenticated requests against the upstream REST API.
// On a not-authenticated response it invalidates the cached session and
// retries the request exactly once with a fresh token; a second failure
// surfaces as an authentication error.
type Client struct {
	cfg        config.GLPIConfig
	session    *SessionManager
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewClient constructs an upstream client. The metrics argument may be nil.
func NewClient(cfg config.GLPIConfig, session *SessionManager, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		cfg:        cfg,
		session:    session,
		httpClient: &http.Client{Timeout: cfg.UpstreamTimeout()},
		logger:     logger,
		metrics:    metrics,
	}
}

// Get issues a GET request against the upstream API.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, query, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, endpoint, nil, payload)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPut, endpoint, nil, payload)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, util.NewInternalError(fmt.Errorf("encode %s %s: %w", method, endpoint, err))
		}
	}

	for attempt := 0; ; attempt++ {
		headers, err := c.session.Headers(ctx)
		if err != nil {
			return nil, err
		}

		reqURL := c.cfg.BaseURL + "/" + endpoint
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
		if err != nil {
			return nil, util.NewInternalError(fmt.Errorf("build %s %s: %w", method, endpoint, err))
		}
		req.Header.Set("Content-Type", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Timeouts and transport failures are upstream errors, not
			// retried beyond the authentication path.
			return nil, util.NewUpstreamError(0, err.Error())
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.metrics.RecordUpstreamCall(endpoint, method, resp.StatusCode)

		if resp.StatusCode == http.StatusUnauthorized {
			c.session.Invalidate()
			if attempt == 0 {
				c.logger.Warn("upstream rejected session token, retrying once",
					zap.String("endpoint", endpoint))
				continue
			}
			return nil, util.NewAuthenticationError("upstream rejected credentials after session renewal", nil)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, util.NewUpstreamError(resp.StatusCode, string(respBody))
		}
		if readErr != nil {
			return nil, util.NewUpstreamError(resp.StatusCode, readErr.Error())
		}
		return respBody, nil
	}
}
