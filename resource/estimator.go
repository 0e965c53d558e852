package resource

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/event"
)

// DefaultSampleInterval is the sampling loop tick.
const DefaultSampleInterval = 5 * time.Second

const bytesPerMB = 1 << 20

// StorageSizer reports backing store size. Satisfied by storage.VectorStore.
type StorageSizer interface {
	StorageSize() int64
}

// Estimator periodically samples resource usage and classifies it against
// quota thresholds. It is a process-wide singleton shared by all jobs; the
// measurement map keys every StartMeasurement call uniquely so concurrent
// jobs never interfere with each other's accounting.
type Estimator struct {
	interval       time.Duration
	thresholds     core.QuotaThresholds
	storage        StorageSizer
	storageLimitMB float64
	memoryLimitMB  float64
	accelerator    string
	bus            *event.Bus
	logger         *slog.Logger

	mu           sync.Mutex
	measurements map[string]time.Time
	seq          uint64
	downloadsMB  float64
	tickHooks    []func(now time.Time)

	done    chan struct{}
	started bool
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSampleInterval sets the sampling loop tick. Default 5s.
func WithSampleInterval(interval time.Duration) Option {
	return func(e *Estimator) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithStorageLimit sets the storage quota in MB. Zero means unlimited and the
// storage dimension is never reported as exceeded.
func WithStorageLimit(limitMB float64) Option {
	return func(e *Estimator) {
		e.storageLimitMB = limitMB
	}
}

// WithMemoryLimit sets the memory quota in MB. Zero means unlimited.
func WithMemoryLimit(limitMB float64) Option {
	return func(e *Estimator) {
		e.memoryLimitMB = limitMB
	}
}

// WithAccelerator records the compute backend identity reported in snapshots.
func WithAccelerator(backend string) Option {
	return func(e *Estimator) {
		e.accelerator = backend
	}
}

// WithTickHook registers a function invoked on every sampling tick, after the
// snapshot is published. Used to drive registry sweeps without extra timers.
func WithTickHook(hook func(now time.Time)) Option {
	return func(e *Estimator) {
		e.tickHooks = append(e.tickHooks, hook)
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEstimator creates an estimator publishing on bus and reading storage
// usage from storage (may be nil when no store is attached).
func NewEstimator(bus *event.Bus, storage StorageSizer, thresholds core.QuotaThresholds, opts ...Option) (*Estimator, error) {
	if err := core.ValidateQuotaThresholds(thresholds); err != nil {
		return nil, err
	}

	e := &Estimator{
		interval:     DefaultSampleInterval,
		thresholds:   thresholds,
		storage:      storage,
		accelerator:  "cpu",
		bus:          bus,
		logger:       slog.Default(),
		measurements: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "resource-estimator")
	return e, nil
}

// Initialize starts the sampling loop. Idempotent.
func (e *Estimator) Initialize() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return
	}
	e.started = true
	e.done = make(chan struct{})

	// The loop gets its stop channel by value; it must never read the
	// mutable field while Close swaps it out.
	go e.sampleLoop(e.done)
}

// sampleLoop runs until done closes. A long synchronous embedding computation
// can delay the observable effect of a tick; that is inherent to cooperative
// scheduling and deliberately not compensated for.
func (e *Estimator) sampleLoop(done <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			e.sample(now)
		}
	}
}

func (e *Estimator) sample(now time.Time) {
	snapshot := e.Snapshot()
	e.publish(snapshot)

	e.mu.Lock()
	hooks := e.tickHooks
	e.mu.Unlock()
	for _, hook := range hooks {
		hook(now)
	}
}

func (e *Estimator) publish(snapshot core.ResourceSnapshot) {
	if e.bus == nil {
		return
	}

	e.bus.Publish(event.ResourceUsage, event.UsageEvent{Snapshot: snapshot})

	level, exceeded := e.CheckThresholds(snapshot)
	if len(exceeded) > 0 {
		e.logger.Warn("resource quota threshold crossed", "level", level, "exceeded", exceeded)
		e.bus.Publish(event.ResourceQuotaWarning, event.QuotaWarningEvent{
			Level:    string(level),
			Exceeded: exceeded,
			Snapshot: snapshot,
		})
	}
}

// Snapshot produces a fresh usage snapshot on demand. CPU time is the summed
// elapsed wall time of all currently-open measurements, an approximation
// rather than true CPU-cycle accounting.
func (e *Estimator) Snapshot() core.ResourceSnapshot {
	now := time.Now()

	e.mu.Lock()
	var cpuMs float64
	for _, start := range e.measurements {
		cpuMs += float64(now.Sub(start)) / float64(time.Millisecond)
	}
	downloadsMB := e.downloadsMB
	e.mu.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var storageUsedMB float64
	if e.storage != nil {
		storageUsedMB = float64(e.storage.StorageSize()) / bytesPerMB
	}

	return core.ResourceSnapshot{
		CPUMs:            cpuMs,
		MemoryMB:         float64(memStats.HeapAlloc) / bytesPerMB,
		MemoryLimitMB:    e.memoryLimitMB,
		StorageUsedMB:    storageUsedMB,
		StorageLimitMB:   e.storageLimitMB,
		ModelDownloadsMB: downloadsMB,
		Accelerator:      &core.AcceleratorInfo{Backend: e.accelerator},
		Timestamp:        now.UTC(),
	}
}

// StartMeasurement begins timing an operation. The returned func stops the
// measurement and publishes a fresh usage snapshot reflecting the change.
// Concurrent measurements with the same label are tracked independently.
func (e *Estimator) StartMeasurement(label string) func() {
	e.mu.Lock()
	e.seq++
	key := fmt.Sprintf("%s#%d", label, e.seq)
	e.measurements[key] = time.Now()
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			start, ok := e.measurements[key]
			delete(e.measurements, key)
			e.mu.Unlock()

			if ok {
				e.logger.Debug("measurement finished",
					"label", label, "elapsedMs", time.Since(start).Milliseconds())
			}
			e.publish(e.Snapshot())
		})
	}
}

// RecordModelDownload adds downloaded model bytes to the accounting.
func (e *Estimator) RecordModelDownload(bytes int64) {
	e.mu.Lock()
	e.downloadsMB += float64(bytes) / bytesPerMB
	e.mu.Unlock()
}

// Close stops the sampling loop and clears all open measurements.
func (e *Estimator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return
	}
	e.started = false
	close(e.done)
	e.measurements = make(map[string]time.Time)
}
