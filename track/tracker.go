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


package track

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/event"
)

// DefaultGracePeriod is how long a terminal job stays in the arena so
// trailing subscribers can drain late events. Jobs that ended in error stay
// twice as long for late inspection.
const DefaultGracePeriod = 5 * time.Second

// Tracker owns the job arena and the per-job stage state machine. All jobs
// share one tracker; each arena entry is independent. Expiry is an explicit
// Sweep operation invoked by a scheduler tick, never an implicit timer, so
// lifetimes stay testable without wall-clock waits.
type Tracker struct {
	bus    *event.Bus
	logger *slog.Logger
	grace  time.Duration
	now    func() time.Time

	mu   sync.Mutex
	jobs map[string]*job
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithGracePeriod overrides the terminal-job grace period.
func WithGracePeriod(grace time.Duration) Option {
	return func(t *Tracker) {
		if grace > 0 {
			t.grace = grace
		}
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates a tracker publishing lifecycle events on bus.
// A nil bus disables event emission.
func NewTracker(bus *event.Bus, opts ...Option) *Tracker {
	t := &Tracker{
		bus:    bus,
		logger: slog.Default(),
		grace:  DefaultGracePeriod,
		now:    time.Now,
		jobs:   make(map[string]*job),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "tracker")
	return t
}

// CreateJob registers a new job in state queued and emits job:start.
// The sequence and weights must cover the same stage set.
func (t *Tracker) CreateJob(input core.InputDescriptor, sequence []Stage, weights WeightTable) (string, error) {
	if len(sequence) == 0 {
		return "", fmt.Errorf("%w: stage sequence", core.ErrMissingOption)
	}
	if weights.Sum() != 100 {
		return "", fmt.Errorf("stage weights must sum to 100, got %d", weights.Sum())
	}
	for _, stage := range sequence {
		if _, ok := weights[stage]; !ok {
			return "", fmt.Errorf("stage %q missing from weight table", stage)
		}
	}

	j := &job{
		id:          uuid.NewString(),
		input:       input,
		sequence:    append([]Stage(nil), sequence...),
		weights:     weights,
		status:      StatusQueued,
		stageStarts: make(map[Stage]time.Time),
		createdAt:   t.now().UTC(),
	}

	t.mu.Lock()
	t.jobs[j.id] = j
	t.mu.Unlock()

	t.logger.Debug("job created", "jobId", j.id, "modality", input.Modality)
	t.emit(event.JobStart, j, 0, "")
	return j.id, nil
}

// StartStage records the stage start time, sets the current stage, and emits
// stage:start with the currently-computed global progress.
func (t *Tracker) StartStage(jobId string, stage Stage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, err := t.active(jobId)
	if err != nil {
		return err
	}
	if j.stageIndex(stage) < 0 {
		return fmt.Errorf("stage %q not valid for job %s", stage, jobId)
	}

	j.status = StatusRunning
	j.currentStage = stage
	j.stageProgress = 0
	j.stageStarts[stage] = t.now()

	t.emit(event.StageStart, j, 0, "")
	return nil
}

// UpdateOptions carries the optional fields of a progress update.
type UpdateOptions struct {
	ItemsProcessed int64
	BytesProcessed int64
	ChunksTotal    int
	EtaMs          int64
	Message        string
}

// UpdateProgress updates counters and emits stage:progress. Counters are
// monotonically non-decreasing; stage progress never moves backwards within
// a stage.
func (t *Tracker) UpdateProgress(jobId string, stageProgress float64, opts UpdateOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, err := t.active(jobId)
	if err != nil {
		return err
	}

	if stageProgress > j.stageProgress {
		j.stageProgress = stageProgress
	}
	if opts.ItemsProcessed > j.itemsProcessed {
		j.itemsProcessed = opts.ItemsProcessed
	}
	if opts.BytesProcessed > j.bytesProcessed {
		j.bytesProcessed = opts.BytesProcessed
	}
	if opts.ChunksTotal > j.chunksTotal {
		j.chunksTotal = opts.ChunksTotal
	}

	t.emitProgress(event.StageProgress, j, j.stageProgress, opts.EtaMs, opts.Message)
	return nil
}

// CompleteStage merges any partial result into the job and emits stage:end
// with stageProgress = 1.
func (t *Tracker) CompleteStage(jobId string, partial *core.PartialResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, err := t.active(jobId)
	if err != nil {
		return err
	}

	if partial != nil {
		j.partial.Merge(*partial)
	}
	j.stageProgress = 1

	t.emit(event.StageEnd, j, 1, "")
	return nil
}

// CompleteJob sets terminal status completed with progress exactly 1, emits
// job:complete, and schedules removal after the grace period.
func (t *Tracker) CompleteJob(jobId string, final *core.PartialResult) error {
	return t.finish(jobId, StatusCompleted, event.JobComplete, final, "", false)
}

// CompleteWithError sets terminal status error on the given stage and emits
// job:error. Errored jobs stay in the arena twice as long as successful ones
// so late inspection remains possible.
func (t *Tracker) CompleteWithError(jobId string, stage Stage, message string, retriable bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, err := t.active(jobId)
	if err != nil {
		return err
	}

	if j.stageIndex(stage) >= 0 {
		j.currentStage = stage
	}
	// Freeze progress before the status turns terminal; globalProgress
	// short-circuits to finalProgress once it is.
	j.finalProgress = globalProgress(j, t.now())
	j.status = StatusError
	j.finishedAt = t.now().UTC()
	j.expiresAt = t.now().Add(2 * t.grace)

	t.logger.Warn("job failed", "jobId", jobId, "stage", stage, "retriable", retriable, "message", message)
	t.emitError(j, message, retriable)
	return nil
}

// CancelJob sets terminal status cancelled and emits job:cancelled. Whatever
// was already upserted stays in the store; cancellation never rolls back
// completed writes.
func (t *Tracker) CancelJob(jobId string) error {
	return t.finish(jobId, StatusCancelled, event.JobCancelled, nil, "cancelled", false)
}

func (t *Tracker) finish(jobId string, status Status, topic string, final *core.PartialResult, message string, retriable bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, err := t.active(jobId)
	if err != nil {
		return err
	}

	if final != nil {
		j.partial.Merge(*final)
	}
	// Freeze progress before the status turns terminal; globalProgress
	// short-circuits to finalProgress once it is.
	if status == StatusCompleted {
		j.finalProgress = 1
	} else {
		j.finalProgress = globalProgress(j, t.now())
	}
	j.status = status
	j.finishedAt = t.now().UTC()
	j.expiresAt = t.now().Add(t.grace)

	t.emitProgress(topic, j, j.stageProgress, 0, message)
	return nil
}

// AddWarning appends a warning and emits a warning event without changing
// the job status.
func (t *Tracker) AddWarning(jobId string, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[jobId]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, jobId)
	}

	j.warnings = append(j.warnings, text)
	t.emitProgress(event.JobWarning, j, j.stageProgress, 0, text)
	return nil
}

// GetJob returns an immutable snapshot of a job's state.
func (t *Tracker) GetJob(jobId string) (JobView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[jobId]
	if !ok {
		return JobView{}, fmt.Errorf("%w: %s", core.ErrJobNotFound, jobId)
	}
	return j.view(globalProgress(j, t.now())), nil
}

// Progress returns the job's current global progress value.
func (t *Tracker) Progress(jobId string) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	j, ok := t.jobs[jobId]
	if !ok {
		return 0, fmt.Errorf("%w: %s", core.ErrJobNotFound, jobId)
	}
	return globalProgress(j, t.now()), nil
}

// Len returns the number of jobs currently in the arena.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Sweep removes terminal jobs whose grace period elapsed before now.
// Returns the number of jobs removed. Invoked by the estimator's sampling
// tick; tests call it directly with a synthetic clock.
func (t *Tracker) Sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, j := range t.jobs {
		if j.status.Terminal() && !j.expiresAt.IsZero() && now.After(j.expiresAt) {
			delete(t.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		t.logger.Debug("swept terminal jobs", "removed", removed, "remaining", len(t.jobs))
	}
	return removed
}

// active returns the job if it exists and has not reached a terminal status.
// Callers must hold t.mu.
func (t *Tracker) active(jobId string) (*job, error) {
	j, ok := t.jobs[jobId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrJobNotFound, jobId)
	}
	if j.status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", core.ErrJobTerminal, jobId, j.status)
	}
	return j, nil
}

// emit publishes a lifecycle event with the given stage progress.
// Callers must hold t.mu except right after job creation.
func (t *Tracker) emit(topic string, j *job, stageProgress float64, message string) {
	t.emitProgress(topic, j, stageProgress, 0, message)
}

func (t *Tracker) emitProgress(topic string, j *job, stageProgress float64, etaMs int64, message string) {
	if t.bus == nil {
		return
	}
	stageIndex := j.stageIndex(j.currentStage)
	if stageIndex < 0 {
		stageIndex = 0
	}
	t.bus.Publish(topic, event.JobEvent{
		JobId:          j.id,
		Status:         string(j.status),
		Stage:          string(j.currentStage),
		StageIndex:     stageIndex,
		StageProgress:  stageProgress,
		Progress:       globalProgress(j, t.now()),
		ItemsProcessed: j.itemsProcessed,
		BytesProcessed: j.bytesProcessed,
		ChunksTotal:    j.chunksTotal,
		EtaMs:          etaMs,
		Message:        message,
		Timestamp:      t.now().UTC(),
	})
}

func (t *Tracker) emitError(j *job, message string, retriable bool) {
	if t.bus == nil {
		return
	}
	stageIndex := j.stageIndex(j.currentStage)
	if stageIndex < 0 {
		stageIndex = 0
	}
	t.bus.Publish(event.JobError, event.JobEvent{
		JobId:         j.id,
		Status:        string(j.status),
		Stage:         string(j.currentStage),
		StageIndex:    stageIndex,
		StageProgress: j.stageProgress,
		Progress:      j.finalProgress,
		Message:       message,
		Retriable:     retriable,
		Timestamp:     t.now().UTC(),
	})
}
