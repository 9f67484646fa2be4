package glpi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/persistence"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

// newTestDirectory serves each listing from responses in order, repeating
// the last one once the queue is exhausted.
func newTestDirectory(t *testing.T, ttl time.Duration, responses ...string) (*CategoryDirectory, *int) {
	t.Helper()
	fetches := new(int)
	fixture := &upstreamFixture{}
	srv := httptest.NewServer(fixture.wrap(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ITILCategory", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("expand_dropdowns"))
		idx := *fetches
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		*fetches++
		io.WriteString(w, responses[idx])
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	session := NewSessionManager(cfg, zap.NewNop(), nil)
	client := NewClient(cfg, session, zap.NewNop(), nil)
	return NewCategoryDirectory(client, persistence.NewMemoryStore(), ttl, zap.NewNop()), fetches
}

func TestDirectoryLoadsLazilyAndCaches(t *testing.T) {
	directory, fetches := newTestDirectory(t, time.Minute,
		`[{"id":1,"name":"Hardware","completename":"Hardware"},
		  {"id":"2","name":"Software","completename":"Software"}]`)

	assert.Zero(t, *fetches)

	categories, err := directory.All(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Hardware", categories[1].Name)

	_, err = directory.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *fetches)
}

func TestDirectoryGetRefreshesOnMiss(t *testing.T) {
	directory, fetches := newTestDirectory(t, time.Minute,
		`[{"id":1,"name":"Hardware","completename":"Hardware"}]`,
		`[{"id":1,"name":"Hardware","completename":"Hardware"},
		  {"id":2,"name":"Redes","completename":"Infra > Redes"}]`)

	_, err := directory.All(context.Background())
	require.NoError(t, err)

	// The category appeared upstream after the snapshot was taken; the
	// miss forces one refresh before giving up.
	category, err := directory.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Redes", category.Name)
	assert.Equal(t, "Infra > Redes", category.CompleteName)
	assert.Equal(t, 2, *fetches)
}

func TestDirectoryGetNotFoundAfterRefresh(t *testing.T) {
	directory, fetches := newTestDirectory(t, time.Minute,
		`[{"id":1,"name":"Hardware","completename":"Hardware"}]`)

	_, err := directory.Get(context.Background(), 9)

	require.Error(t, err)
	assert.True(t, util.HasCode(err, "NOT_FOUND"))
	assert.Equal(t, 2, *fetches)
}

func TestDirectorySnapshotExpires(t *testing.T) {
	directory, fetches := newTestDirectory(t, 10*time.Millisecond,
		`[{"id":1,"name":"Hardware","completename":"Hardware"}]`)

	_, err := directory.All(context.Background())
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, err = directory.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *fetches)
}

func TestDirectoryKeepsNumericParents(t *testing.T) {
	directory, _ := newTestDirectory(t, time.Minute,
		`[{"id":1,"name":"Infra","completename":"Infra","itilcategories_id":0},
		  {"id":2,"name":"Redes","completename":"Infra > Redes","itilcategories_id":1},
		  {"id":3,"name":"Impressoras","completename":"Infra > Impressoras","itilcategories_id":"Infra"}]`)

	categories, err := directory.All(context.Background())
	require.NoError(t, err)

	assert.Nil(t, categories[1].ParentID)
	require.NotNil(t, categories[2].ParentID)
	assert.Equal(t, 1, *categories[2].ParentID)
	// Expanded dropdowns replace the parent id with a label; those are
	// not resolvable to an id and stay unset.
	assert.Nil(t, categories[3].ParentID)
}
