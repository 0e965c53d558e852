package embed

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/cobaltash/vectorize/core"
)

const (
	defaultCacheTTL     = 10 * time.Minute
	defaultCacheCleanup = 5 * time.Minute
)

// CachedBackend decorates a Backend with a content-hash-keyed result cache,
// so re-indexing unchanged content skips the backend call.
type CachedBackend struct {
	backend Backend
	cache   *gocache.Cache
}

var _ Backend = (*CachedBackend)(nil)

// NewCachedBackend wraps backend with a TTL cache. A non-positive ttl uses
// the default of ten minutes.
func NewCachedBackend(backend Backend, ttl time.Duration) (*CachedBackend, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedBackend{
		backend: backend,
		cache:   gocache.New(ttl, defaultCacheCleanup),
	}, nil
}

// Modality delegates to the wrapped backend.
func (c *CachedBackend) Modality() core.Modality {
	return c.backend.Modality()
}

// Dimension delegates to the wrapped backend.
func (c *CachedBackend) Dimension() int {
	return c.backend.Dimension()
}

// Embed returns the cached vector for identical content when present.
func (c *CachedBackend) Embed(ctx context.Context, content []byte) ([]float32, error) {
	key := string(core.IDFromContent(content))
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]float32), nil
	}

	vector, err := c.backend.Embed(ctx, content)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, vector)
	return vector, nil
}

// EmbedBatch serves cached entries and forwards only the misses.
func (c *CachedBackend) EmbedBatch(ctx context.Context, contents [][]byte) ([][]float32, error) {
	vectors := make([][]float32, len(contents))
	var missed [][]byte
	var missedAt []int

	for i, content := range contents {
		key := string(core.IDFromContent(content))
		if cached, ok := c.cache.Get(key); ok {
			vectors[i] = cached.([]float32)
			continue
		}
		missed = append(missed, content)
		missedAt = append(missedAt, i)
	}

	if len(missed) == 0 {
		return vectors, nil
	}

	fresh, err := c.backend.EmbedBatch(ctx, missed)
	if err != nil {
		return nil, err
	}

	for i, vector := range fresh {
		at := missedAt[i]
		vectors[at] = vector
		c.cache.SetDefault(string(core.IDFromContent(contents[at])), vector)
	}
	return vectors, nil
}
