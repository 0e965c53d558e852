// Copyright 2026 Cobalt Ash
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package engine

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"

	"github.com/cobaltash/vectorize/chunk"
	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
	"github.com/cobaltash/vectorize/event"
	"github.com/cobaltash/vectorize/extract"
	"github.com/cobaltash/vectorize/resource"
	"github.com/cobaltash/vectorize/storage"
	"github.com/cobaltash/vectorize/track"
)

// Orchestrator sequences jobs through the stage state machine, calling the
// extraction, chunking, and embedding collaborators and writing results into
// the vector store. One orchestrator serves all jobs; per-job state lives in
// the tracker's arena.
type Orchestrator struct {
	store     storage.VectorStore
	registry  *embed.Registry
	extractor *extract.Extractor
	tracker   *track.Tracker
	estimator *resource.Estimator
	bus       *event.Bus
	chunking  chunk.Options
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithChunkingDefaults sets the chunking options applied when a call passes none.
func WithChunkingDefaults(opts chunk.Options) Option {
	return func(o *Orchestrator) error {
		o.chunking = opts
		return nil
	}
}

// WithPoolSize sets the worker pool size for the batch indexing path.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}
		if o.pool != nil {
			o.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithExtractor overrides the input extractor.
func WithExtractor(extractor *extract.Extractor) Option {
	return func(o *Orchestrator) error {
		if extractor != nil {
			o.extractor = extractor
		}
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger != nil {
			o.logger = logger
		}
		return nil
	}
}

// NewOrchestrator creates the pipeline orchestrator.
func NewOrchestrator(
	store storage.VectorStore,
	registry *embed.Registry,
	tracker *track.Tracker,
	estimator *resource.Estimator,
	bus *event.Bus,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if tracker == nil {
		return nil, ErrTrackerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		store:     store,
		registry:  registry,
		extractor: extract.NewExtractor(),
		tracker:   tracker,
		estimator: estimator,
		bus:       bus,
		chunking:  chunk.DefaultOptions(),
		pool:      pool,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}
	o.logger = o.logger.With("component", "orchestrator")

	return o, nil
}

// detectModality resolves the modality used for stage weights and backend
// selection before extraction runs. Explicit override wins, then the MIME
// hint; remote references without hints default to text and extraction
// raises a warning if the fetched content disagrees.
func detectModality(input core.Input) (core.Modality, error) {
	if input.Modality != "" {
		return input.Modality, nil
	}
	if input.MIME != "" {
		return core.ModalityFromMIME(input.MIME)
	}
	if input.Text != "" || input.URL != "" {
		return core.ModalityText, nil
	}
	return "", core.ErrUnsupportedModality
}

// Delete removes documents by id and publishes vector:deleted.
func (o *Orchestrator) Delete(ctx context.Context, ids ...core.ID) error {
	if err := o.store.Delete(ctx, ids...); err != nil {
		o.publishVectorError("delete", err)
		return err
	}
	if o.bus != nil {
		o.bus.Publish(event.VectorDeleted, event.VectorEvent{Ids: ids, Count: len(ids)})
	}
	return nil
}

// publishVectorError reports a store-level failure on the error topic.
func (o *Orchestrator) publishVectorError(label string, err error) {
	if o.bus == nil {
		return
	}
	o.bus.Publish(event.VectorError, event.VectorEvent{Label: label, Error: err.Error()})
}

// Release frees the worker pool. The orchestrator must not be used after.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
