package engine

import (
	"context"
	"errors"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/track"
)

// ProgressEvent is one element of a progress run: a snapshot of the job's
// state after a unit of pipeline work.
type ProgressEvent struct {
	JobId          string
	Stage          track.Stage
	Status         track.Status
	StageProgress  float64
	Progress       float64
	ItemsProcessed int64
	BytesProcessed int64
	ChunksTotal    int
	Message        string
}

// stepFunc performs one unit of pipeline work. It may append further steps
// to the run (chunking discovers how many embedding steps follow).
type stepFunc func(ctx context.Context) error

// Run is a lazy, caller-driven progress sequence. Each Next advances the
// pipeline by one unit of work; no work happens unless the caller iterates.
// A Run is single-use: it terminates with either a final value or an error
// and cannot be restarted. Create a new Run per call.
type Run struct {
	o     *Orchestrator
	ctx   context.Context
	jobId string

	steps   []stepFunc
	idx     int
	stopped bool
	err     error

	// pipeline state shared between steps
	input    core.Input
	desc     core.InputDescriptor
	content  []byte
	segments [][]byte
	partial  core.PartialResult
	current  ProgressEvent
	message  string

	endMeasure func()

	result      *core.VectorizationResult
	queryResult *core.QueryResult
}

// JobId returns the tracker id of the underlying job.
func (r *Run) JobId() string {
	return r.jobId
}

// Next performs the next unit of pipeline work. It returns false once the
// run has terminated, successfully or not; check Err afterwards.
func (r *Run) Next() bool {
	if r.stopped || r.idx >= len(r.steps) {
		r.finish()
		return false
	}

	step := r.steps[r.idx]
	r.idx++

	if err := step(r.ctx); err != nil {
		r.fail(err)
		return false
	}

	r.current = r.snapshot()
	if r.idx >= len(r.steps) {
		r.finish()
	}
	return true
}

// Event returns the progress snapshot produced by the last Next.
func (r *Run) Event() ProgressEvent {
	return r.current
}

// Err returns the terminal error, if any.
func (r *Run) Err() error {
	return r.err
}

// Result returns the final vectorization value. Only valid after Next has
// returned false without error on a vectorize run.
func (r *Run) Result() (*core.VectorizationResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.result == nil {
		return nil, ErrRunExhausted
	}
	return r.result, nil
}

// QueryResult returns the final query value. Only valid after Next has
// returned false without error on a query run.
func (r *Run) QueryResult() (*core.QueryResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.queryResult == nil {
		return nil, ErrRunExhausted
	}
	return r.queryResult, nil
}

// Drain advances the run to completion and returns the terminal error.
func (r *Run) Drain() error {
	for r.Next() {
	}
	return r.err
}

// append schedules more steps after the current one.
func (r *Run) append(steps ...stepFunc) {
	r.steps = append(r.steps, steps...)
}

// enterStage is the cooperative cancellation point: called at entry to each
// stage, never mid-stage, since stages may call into non-interruptible
// external backends.
func (r *Run) enterStage(stage track.Stage) error {
	if err := r.ctx.Err(); err != nil {
		return core.ErrJobCancelled
	}
	return r.o.tracker.StartStage(r.jobId, stage)
}

// fail records the terminal error on the job before propagation so
// subscribers see the error event even if the caller drops the run.
func (r *Run) fail(err error) {
	r.stopped = true
	r.err = err
	r.teardown()

	view, viewErr := r.o.tracker.GetJob(r.jobId)
	stage := track.Stage("")
	if viewErr == nil {
		stage = view.CurrentStage
	}

	if errors.Is(err, core.ErrJobCancelled) || errors.Is(err, context.Canceled) {
		r.err = core.ErrJobCancelled
		r.o.tracker.CancelJob(r.jobId)
		return
	}
	r.o.tracker.CompleteWithError(r.jobId, stage, err.Error(), retriable(err))
}

func (r *Run) finish() {
	if r.stopped {
		return
	}
	r.stopped = true
	r.teardown()
}

func (r *Run) teardown() {
	if r.endMeasure != nil {
		r.endMeasure()
		r.endMeasure = nil
	}
}

// snapshot builds a progress element from the tracker's view of the job.
func (r *Run) snapshot() ProgressEvent {
	view, err := r.o.tracker.GetJob(r.jobId)
	if err != nil {
		return r.current
	}
	ev := ProgressEvent{
		JobId:          view.Id,
		Stage:          view.CurrentStage,
		Status:         view.Status,
		Progress:       view.Progress,
		ItemsProcessed: view.ItemsProcessed,
		BytesProcessed: view.BytesProcessed,
		ChunksTotal:    view.ChunksTotal,
		Message:        r.message,
	}
	r.message = ""
	return ev
}
