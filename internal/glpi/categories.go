package glpi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/domain"
	"github.com/spec-kit/glpi-bridge/internal/persistence"
	"github.com/spec-kit/glpi-bridge/pkg/util"
)

const categoryCacheKey = "glpi:categories"

// CategoryDirectory fetches and caches the upstream category taxonomy.
// The snapshot lives behind a persistence.Store and is refreshed when its
// TTL elapses; concurrent refreshes are serialized so only the first
// caller fetches while the others wait for the fresh snapshot.
type CategoryDirectory struct {
	client *Client
	store  persistence.Store
	ttl    time.Duration
	logger *zap.Logger

	refreshMu sync.Mutex
}

// NewCategoryDirectory constructs the directory.
func NewCategoryDirectory(client *Client, store persistence.Store, ttl time.Duration, logger *zap.Logger) *CategoryDirectory {
	return &CategoryDirectory{client: client, store: store, ttl: ttl, logger: logger}
}

// All returns the id-to-category mapping, loading it lazily on first use
// and after TTL expiry.
func (d *CategoryDirectory) All(ctx context.Context) (map[int]domain.Category, error) {
	if cached, ok, err := d.store.Get(ctx, categoryCacheKey); err == nil && ok {
		if categories, err := decodeSnapshot(cached); err == nil {
			return categories, nil
		}
	}
	return d.refresh(ctx, false)
}

// Get returns one category. A miss on the current snapshot forces one
// refresh before the category is reported as not found.
func (d *CategoryDirectory) Get(ctx context.Context, id int) (*domain.Category, error) {
	categories, err := d.All(ctx)
	if err != nil {
		return nil, err
	}
	if category, ok := categories[id]; ok {
		return &category, nil
	}

	categories, err = d.refresh(ctx, true)
	if err != nil {
		return nil, err
	}
	if category, ok := categories[id]; ok {
		return &category, nil
	}
	return nil, util.NewNotFound("category", map[string]any{"category_id": id})
}

func (d *CategoryDirectory) refresh(ctx context.Context, force bool) (map[int]domain.Category, error) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	// Another caller may have refreshed while this one waited. A forced
	// refresh skips the snapshot and always refetches.
	if !force {
		if cached, ok, err := d.store.Get(ctx, categoryCacheKey); err == nil && ok {
			if categories, err := decodeSnapshot(cached); err == nil {
				return categories, nil
			}
		}
	}

	query := url.Values{}
	query.Set("expand_dropdowns", "true")
	query.Set("range", "0-1000")
	body, err := d.client.Get(ctx, "ITILCategory", query)
	if err != nil {
		return nil, err
	}

	var wire []wireCategory
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, util.NewUpstreamError(http.StatusOK, "malformed category list payload")
	}

	categories := make(map[int]domain.Category, len(wire))
	for _, w := range wire {
		category := w.toDomain()
		categories[category.ID] = category
	}

	if encoded, err := encodeSnapshot(categories); err == nil {
		if err := d.store.Set(ctx, categoryCacheKey, encoded, d.ttl); err != nil {
			d.logger.Warn("category cache write failed", zap.Error(err))
		}
	}
	d.logger.Info("category directory refreshed", zap.Int("count", len(categories)))
	return categories, nil
}

type wireCategory struct {
	ID           flexInt         `json:"id"`
	Name         string          `json:"name"`
	CompleteName string          `json:"completename"`
	ParentID     json.RawMessage `json:"itilcategories_id"`
}

func (w wireCategory) toDomain() domain.Category {
	category := domain.Category{
		ID:           int(w.ID),
		Name:         w.Name,
		CompleteName: w.CompleteName,
	}
	// With dropdowns expanded the parent arrives as a name, not an id;
	// only numeric parents are kept.
	if raw := strings.Trim(string(w.ParentID), `"`); raw != "" && raw != "null" {
		if parent, err := strconv.Atoi(raw); err == nil && parent > 0 {
			category.ParentID = &parent
		}
	}
	return category
}

type snapshotEntry struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	CompleteName string `json:"completename"`
	ParentID     *int   `json:"parent_id,omitempty"`
}

func encodeSnapshot(categories map[int]domain.Category) ([]byte, error) {
	entries := make([]snapshotEntry, 0, len(categories))
	for _, category := range categories {
		entries = append(entries, snapshotEntry{
			ID:           category.ID,
			Name:         category.Name,
			CompleteName: category.CompleteName,
			ParentID:     category.ParentID,
		})
	}
	return json.Marshal(entries)
}

func decodeSnapshot(data []byte) (map[int]domain.Category, error) {
	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	categories := make(map[int]domain.Category, len(entries))
	for _, entry := range entries {
		categories[entry.ID] = domain.Category{
			ID:           entry.ID,
			Name:         entry.Name,
			CompleteName: entry.CompleteName,
			ParentID:     entry.ParentID,
		}
	}
	return categories, nil
}
