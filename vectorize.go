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


package vectorize

import (
	"context"
	"log/slog"
	"time"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
	"github.com/cobaltash/vectorize/embed/openai"
	"github.com/cobaltash/vectorize/engine"
	"github.com/cobaltash/vectorize/event"
	"github.com/cobaltash/vectorize/resource"
	"github.com/cobaltash/vectorize/storage/badger"
	"github.com/cobaltash/vectorize/track"
)

// Engine is the public facade: it wires the vector store, embedding
// registry, tracker, estimator, and orchestrator into one surface.
type Engine struct {
	store        *badger.Store
	registry     *embed.Registry
	bus          *event.Bus
	tracker      *track.Tracker
	estimator    *resource.Estimator
	orchestrator *engine.Orchestrator
	logger       *slog.Logger
}

// New creates an engine rooted at the given storage path.
func New(path string, opts ...Option) (*Engine, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	bus := event.NewBus(logger)

	storeOpts := []badger.Option{badger.WithLogger(logger)}
	if options.inMemory {
		storeOpts = append(storeOpts, badger.WithInMemory())
	}
	store, err := badger.NewStore(path, options.dimension, storeOpts...)
	if err != nil {
		bus.Close()
		return nil, err
	}

	registry := options.registry
	if registry == nil {
		registry = embed.NewRegistry()
		textBackend, err := openai.NewBackend(options.embedConfig)
		if err != nil {
			bus.Close()
			return nil, err
		}
		cached, err := embed.NewCachedBackend(textBackend, options.embedCacheTTL)
		if err != nil {
			bus.Close()
			return nil, err
		}
		if err := registry.Register(cached); err != nil {
			bus.Close()
			return nil, err
		}
	}

	tracker := track.NewTracker(bus, track.WithLogger(logger))

	estimatorOpts := []resource.Option{
		resource.WithLogger(logger),
		resource.WithSampleInterval(options.sampleInterval),
		resource.WithStorageLimit(options.storageLimitMB),
		resource.WithMemoryLimit(options.memoryLimitMB),
		resource.WithAccelerator(options.accelerator),
		// The sampling tick doubles as the registry sweep scheduler.
		resource.WithTickHook(func(now time.Time) {
			tracker.Sweep(now)
		}),
	}
	estimator, err := resource.NewEstimator(bus, store, options.thresholds, estimatorOpts...)
	if err != nil {
		bus.Close()
		return nil, err
	}

	orchestrator, err := engine.NewOrchestrator(store, registry, tracker, estimator, bus,
		engine.WithChunkingDefaults(options.chunking),
		engine.WithLogger(logger),
	)
	if err != nil {
		bus.Close()
		return nil, err
	}

	e := &Engine{
		store:        store,
		registry:     registry,
		bus:          bus,
		tracker:      tracker,
		estimator:    estimator,
		orchestrator: orchestrator,
		logger:       logger,
	}

	if err := e.forwardEvents(); err != nil {
		e.Close()
		return nil, err
	}

	estimator.Initialize()
	return e, nil
}

// forwardEvents republishes internal tracker topics under the public event
// names, decoupling component naming from the external surface.
func (e *Engine) forwardEvents() error {
	forwards := [][2]string{
		{event.StageStart, event.VectorizationStageStart},
		{event.StageEnd, event.VectorizationStageEnd},
		{event.StageProgress, event.VectorizationProgress},
		{event.JobStart, event.VectorizationProgress},
		{event.JobComplete, event.VectorizationProgress},
		{event.JobCancelled, event.VectorizationProgress},
		{event.JobWarning, event.VectorizationWarning},
		{event.JobError, event.VectorizationError},
	}
	for _, fw := range forwards {
		if err := e.bus.Forward(fw[0], fw[1]); err != nil {
			return err
		}
	}
	return nil
}

// Vectorize indexes content and blocks until the job completes, returning
// the final result. Use VectorizeWithProgress to observe progress instead.
func (e *Engine) Vectorize(ctx context.Context, input core.Input, opts engine.VectorizeOptions) (*core.VectorizationResult, error) {
	run, err := e.orchestrator.VectorizeWithProgress(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	if err := run.Drain(); err != nil {
		return nil, err
	}
	return run.Result()
}

// VectorizeWithProgress submits content and returns a lazy progress run.
func (e *Engine) VectorizeWithProgress(ctx context.Context, input core.Input, opts engine.VectorizeOptions) (*engine.Run, error) {
	return e.orchestrator.VectorizeWithProgress(ctx, input, opts)
}

// QueryWithProgress runs a similarity query as a progress-tracked job.
func (e *Engine) QueryWithProgress(ctx context.Context, input core.Input, opts engine.QueryOptions) (*engine.Run, error) {
	return e.orchestrator.QueryWithProgress(ctx, input, opts)
}

// IndexFiles vectorizes a batch of inputs with per-file failure isolation.
func (e *Engine) IndexFiles(ctx context.Context, files []core.Input, meta map[string]string) (*engine.BatchResult, error) {
	return e.orchestrator.IndexFiles(ctx, files, meta)
}

// Query performs a single-shot similarity query.
func (e *Engine) Query(ctx context.Context, input core.Input, modality core.Modality, opts engine.QueryOptions) (*core.QueryResult, error) {
	return e.orchestrator.Query(ctx, input, modality, opts)
}

// Delete removes documents by id.
func (e *Engine) Delete(ctx context.Context, ids ...core.ID) error {
	return e.orchestrator.Delete(ctx, ids...)
}

// UsageSnapshot returns a fresh resource usage snapshot.
func (e *Engine) UsageSnapshot() core.ResourceSnapshot {
	return e.estimator.Snapshot()
}

// Job returns the tracker's view of a job.
func (e *Engine) Job(jobId string) (track.JobView, error) {
	return e.tracker.GetJob(jobId)
}

// On subscribes handler to a public event topic. The handler receives the
// JSON payload; decode with event.Decode. The returned func unsubscribes.
func (e *Engine) On(topic string, handler func(payload []byte)) (func(), error) {
	return e.bus.Subscribe(topic, handler)
}

// Close releases all components. The engine must not be used after Close.
func (e *Engine) Close() error {
	e.orchestrator.Release()
	e.estimator.Close()
	err := e.store.Close()
	if busErr := e.bus.Close(); err == nil {
		err = busErr
	}
	return err
}
