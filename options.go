package vectorize

import (
	"log/slog"
	"time"

	"github.com/cobaltash/vectorize/chunk"
	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
	"github.com/cobaltash/vectorize/resource"
)

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	dimension      int
	inMemory       bool
	thresholds     core.QuotaThresholds
	storageLimitMB float64
	memoryLimitMB  float64
	sampleInterval time.Duration
	chunking       chunk.Options
	embedConfig    *embed.Config
	embedCacheTTL  time.Duration
	registry       *embed.Registry
	accelerator    string
	logger         *slog.Logger
}

func defaultOptions() *engineOptions {
	config := embed.DefaultConfig()
	return &engineOptions{
		dimension:      config.Dimension,
		thresholds:     core.DefaultQuotaThresholds(),
		sampleInterval: resource.DefaultSampleInterval,
		chunking:       chunk.DefaultOptions(),
		embedConfig:    config,
		accelerator:    "cpu",
		logger:         slog.Default(),
	}
}

// WithEmbeddingConfig sets the embedding service configuration. The store
// dimension follows the config unless WithDimension overrides it.
func WithEmbeddingConfig(config *embed.Config) Option {
	return func(o *engineOptions) {
		if config != nil {
			o.embedConfig = config
			o.dimension = config.Dimension
		}
	}
}

// WithDimension overrides the vector dimension of the store.
func WithDimension(dim int) Option {
	return func(o *engineOptions) {
		if dim > 0 {
			o.dimension = dim
		}
	}
}

// WithRegistry installs a pre-built embedding registry instead of the
// default OpenAI-compatible text backend. Used by tests and by callers
// bringing their own backends for binary modalities.
func WithRegistry(registry *embed.Registry) Option {
	return func(o *engineOptions) {
		o.registry = registry
	}
}

// WithInMemoryStore keeps the whole index in memory. Used by tests.
func WithInMemoryStore() Option {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithQuotaThresholds sets the warn/high/critical usage fractions.
func WithQuotaThresholds(thresholds core.QuotaThresholds) Option {
	return func(o *engineOptions) {
		o.thresholds = thresholds
	}
}

// WithStorageLimit sets the storage quota in MB. Zero means unlimited.
func WithStorageLimit(limitMB float64) Option {
	return func(o *engineOptions) {
		o.storageLimitMB = limitMB
	}
}

// WithMemoryLimit sets the memory quota in MB. Zero means unlimited.
func WithMemoryLimit(limitMB float64) Option {
	return func(o *engineOptions) {
		o.memoryLimitMB = limitMB
	}
}

// WithSampleInterval sets the resource sampling tick.
func WithSampleInterval(interval time.Duration) Option {
	return func(o *engineOptions) {
		if interval > 0 {
			o.sampleInterval = interval
		}
	}
}

// WithChunkingDefaults sets the chunking options applied when a call passes none.
func WithChunkingDefaults(opts chunk.Options) Option {
	return func(o *engineOptions) {
		o.chunking = opts
	}
}

// WithEmbeddingCacheTTL sets how long embedding results are cached.
func WithEmbeddingCacheTTL(ttl time.Duration) Option {
	return func(o *engineOptions) {
		o.embedCacheTTL = ttl
	}
}

// WithAccelerator records the compute backend identity reported in snapshots.
func WithAccelerator(backend string) Option {
	return func(o *engineOptions) {
		if backend != "" {
			o.accelerator = backend
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
