package glpi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/pkg/util"
)

func newTestClient(t *testing.T, fixture *upstreamFixture, next http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(fixture.wrap(next))
	t.Cleanup(srv.Close)
	cfg := testConfig(srv.URL)
	session := NewSessionManager(cfg, zap.NewNop(), nil)
	return NewClient(cfg, session, zap.NewNop(), nil)
}

func TestClientRetriesOnceOnStaleSession(t *testing.T) {
	fixture := &upstreamFixture{}
	var calls int
	client := newTestClient(t, fixture, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("Session-Token") == "tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `[]`)
	})

	body, err := client.Get(context.Background(), "Ticket", nil)

	require.NoError(t, err)
	assert.Equal(t, `[]`, string(body))
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 2, fixture.inits)
}

func TestClientFailsAfterSecondRejection(t *testing.T) {
	fixture := &upstreamFixture{}
	var calls int
	client := newTestClient(t, fixture, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Get(context.Background(), "Ticket", nil)

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "AUTHENTICATION_FAILED"))
	assert.Equal(t, 2, calls)
}

func TestClientWrapsUpstreamFailure(t *testing.T) {
	fixture := &upstreamFixture{}
	client := newTestClient(t, fixture, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, "maintenance window")
	})

	_, err := client.Get(context.Background(), "Ticket", nil)

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "UPSTREAM_ERROR"))
	assert.Equal(t, http.StatusServiceUnavailable, util.UpstreamStatus(err))
}

func TestClientEncodesJSONPayload(t *testing.T) {
	fixture := &upstreamFixture{}
	var got map[string]any
	client := newTestClient(t, fixture, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"id":1}`)
	})

	_, err := client.Post(context.Background(), "Ticket", map[string]any{"name": "printer down"})

	require.NoError(t, err)
	assert.Equal(t, "printer down", got["name"])
}
