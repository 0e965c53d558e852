package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/event"
)

func testDescriptor() core.InputDescriptor {
	return core.InputDescriptor{
		Modality:  core.ModalityText,
		MIME:      "text/plain",
		SizeBytes: 64,
	}
}

// testClock is a manually advanced time source.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(opts ...Option) (*Tracker, *testClock) {
	clock := &testClock{now: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewTracker(nil, opts...), clock
}

func TestTracker_CreateJob(t *testing.T) {
	tracker, _ := newTestTracker()

	t.Run("valid job", func(t *testing.T) {
		jobId, err := tracker.CreateJob(testDescriptor(),
			StageSequence(core.ModalityText), StageWeights(core.ModalityText))
		require.NoError(t, err)
		require.NotEmpty(t, jobId)

		view, err := tracker.GetJob(jobId)
		require.NoError(t, err)
		assert.Equal(t, StatusQueued, view.Status)
		assert.Equal(t, 0.0, view.Progress)
	})

	t.Run("empty sequence rejected", func(t *testing.T) {
		_, err := tracker.CreateJob(testDescriptor(), nil, StageWeights(core.ModalityText))
		assert.ErrorIs(t, err, core.ErrMissingOption)
	})

	t.Run("weights must sum to 100", func(t *testing.T) {
		_, err := tracker.CreateJob(testDescriptor(),
			[]Stage{StageInitializing}, WeightTable{StageInitializing: 50})
		assert.Error(t, err)
	})

	t.Run("sequence stage missing from weights rejected", func(t *testing.T) {
		_, err := tracker.CreateJob(testDescriptor(),
			[]Stage{StageInitializing, StageEmbedding},
			WeightTable{StageInitializing: 100})
		assert.Error(t, err)
	})

	t.Run("unknown job id", func(t *testing.T) {
		_, err := tracker.GetJob("no-such-job")
		assert.ErrorIs(t, err, core.ErrJobNotFound)
	})
}

func TestTracker_StageTransitions(t *testing.T) {
	tracker, _ := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)

	require.NoError(t, tracker.StartStage(jobId, StageInitializing))

	view, err := tracker.GetJob(jobId)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, view.Status)
	assert.Equal(t, StageInitializing, view.CurrentStage)

	t.Run("stage outside sequence rejected", func(t *testing.T) {
		err := tracker.StartStage(jobId, Stage("teleporting"))
		assert.Error(t, err)
	})

	t.Run("stage valid for another modality rejected", func(t *testing.T) {
		// Sanitizing is in the text sequence, so build an audio job.
		audioId, err := tracker.CreateJob(
			core.InputDescriptor{Modality: core.ModalityAudio, MIME: "audio/wav"},
			StageSequence(core.ModalityAudio), StageWeights(core.ModalityAudio))
		require.NoError(t, err)

		assert.Error(t, tracker.StartStage(audioId, StageSanitizing))
	})
}

func TestTracker_Progress(t *testing.T) {
	tracker, clock := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)

	progress, err := tracker.Progress(jobId)
	require.NoError(t, err)
	assert.Equal(t, 0.0, progress, "queued job has zero progress")

	// initializing carries weight 5: entering it contributes half.
	require.NoError(t, tracker.StartStage(jobId, StageInitializing))
	progress, err = tracker.Progress(jobId)
	require.NoError(t, err)
	assert.InDelta(t, 0.025, progress, 1e-9)

	// After more than a second the current stage also counts as complete.
	clock.Advance(2 * time.Second)
	progress, err = tracker.Progress(jobId)
	require.NoError(t, err)
	assert.InDelta(t, 0.075, progress, 1e-9)

	// Moving on: initializing complete (5), extracting current (10/2).
	require.NoError(t, tracker.StartStage(jobId, StageExtracting))
	progress, err = tracker.Progress(jobId)
	require.NoError(t, err)
	assert.InDelta(t, 0.10, progress, 1e-9)
}

func TestTracker_ProgressCompletedIsExactlyOne(t *testing.T) {
	tracker, _ := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)

	require.NoError(t, tracker.StartStage(jobId, StageInitializing))
	require.NoError(t, tracker.CompleteJob(jobId, nil))

	progress, err := tracker.Progress(jobId)
	require.NoError(t, err)
	assert.Equal(t, 1.0, progress, "completed jobs report progress exactly 1")
}

func TestTracker_ProgressFrozenAtTermination(t *testing.T) {
	t.Run("error keeps the pre-failure progress", func(t *testing.T) {
		tracker, clock := newTestTracker()

		jobId, err := tracker.CreateJob(testDescriptor(),
			StageSequence(core.ModalityText), StageWeights(core.ModalityText))
		require.NoError(t, err)

		require.NoError(t, tracker.StartStage(jobId, StageInitializing))
		clock.Advance(2 * time.Second)
		require.NoError(t, tracker.StartStage(jobId, StageExtracting))
		clock.Advance(2 * time.Second)
		require.NoError(t, tracker.StartStage(jobId, StageEmbedding))

		before, err := tracker.Progress(jobId)
		require.NoError(t, err)
		require.Greater(t, before, 0.0)

		require.NoError(t, tracker.CompleteWithError(jobId, StageEmbedding, "backend down", true))

		after, err := tracker.Progress(jobId)
		require.NoError(t, err)
		assert.Equal(t, before, after, "failure must freeze progress, not reset it")

		// Frozen for the whole retention window, not just the first read.
		clock.Advance(3 * time.Second)
		later, err := tracker.Progress(jobId)
		require.NoError(t, err)
		assert.Equal(t, before, later)
	})

	t.Run("cancellation keeps the pre-cancel progress", func(t *testing.T) {
		tracker, clock := newTestTracker()

		jobId, err := tracker.CreateJob(testDescriptor(),
			StageSequence(core.ModalityText), StageWeights(core.ModalityText))
		require.NoError(t, err)

		require.NoError(t, tracker.StartStage(jobId, StageInitializing))
		clock.Advance(2 * time.Second)
		require.NoError(t, tracker.StartStage(jobId, StageExtracting))

		before, err := tracker.Progress(jobId)
		require.NoError(t, err)
		require.Greater(t, before, 0.0)

		require.NoError(t, tracker.CancelJob(jobId))

		after, err := tracker.Progress(jobId)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestTracker_UpdateProgress(t *testing.T) {
	tracker, _ := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.StartStage(jobId, StageEmbedding))

	require.NoError(t, tracker.UpdateProgress(jobId, 0.5, UpdateOptions{
		ItemsProcessed: 5,
		BytesProcessed: 1000,
		ChunksTotal:    10,
	}))

	// Counters never move backwards.
	require.NoError(t, tracker.UpdateProgress(jobId, 0.2, UpdateOptions{
		ItemsProcessed: 3,
		BytesProcessed: 500,
	}))

	view, err := tracker.GetJob(jobId)
	require.NoError(t, err)
	assert.Equal(t, int64(5), view.ItemsProcessed)
	assert.Equal(t, int64(1000), view.BytesProcessed)
	assert.Equal(t, 10, view.ChunksTotal)
}

func TestTracker_TerminalStatesAbsorbing(t *testing.T) {
	tests := []struct {
		name   string
		finish func(tracker *Tracker, jobId string) error
		status Status
	}{
		{
			name: "completed",
			finish: func(tracker *Tracker, jobId string) error {
				return tracker.CompleteJob(jobId, nil)
			},
			status: StatusCompleted,
		},
		{
			name: "error",
			finish: func(tracker *Tracker, jobId string) error {
				return tracker.CompleteWithError(jobId, StageEmbedding, "backend down", true)
			},
			status: StatusError,
		},
		{
			name: "cancelled",
			finish: func(tracker *Tracker, jobId string) error {
				return tracker.CancelJob(jobId)
			},
			status: StatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _ := newTestTracker()
			jobId, err := tracker.CreateJob(testDescriptor(),
				StageSequence(core.ModalityText), StageWeights(core.ModalityText))
			require.NoError(t, err)
			require.NoError(t, tracker.StartStage(jobId, StageInitializing))

			require.NoError(t, tt.finish(tracker, jobId))

			view, err := tracker.GetJob(jobId)
			require.NoError(t, err)
			assert.Equal(t, tt.status, view.Status)
			assert.False(t, view.FinishedAt.IsZero())

			// No transition leaves a terminal state.
			assert.ErrorIs(t, tracker.StartStage(jobId, StageExtracting), core.ErrJobTerminal)
			assert.ErrorIs(t, tracker.UpdateProgress(jobId, 0.5, UpdateOptions{}), core.ErrJobTerminal)
			assert.ErrorIs(t, tracker.CompleteJob(jobId, nil), core.ErrJobTerminal)
			assert.ErrorIs(t, tracker.CancelJob(jobId), core.ErrJobTerminal)
		})
	}
}

func TestTracker_PartialResultSurvivesError(t *testing.T) {
	tracker, _ := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.StartStage(jobId, StageUpserting))

	require.NoError(t, tracker.CompleteStage(jobId, &core.PartialResult{
		IndexedIds:  []core.ID{"a", "b"},
		FailedItems: []string{"c"},
	}))
	require.NoError(t, tracker.CompleteWithError(jobId, StageUpserting, "disk full", true))

	view, err := tracker.GetJob(jobId)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{"a", "b"}, view.Partial.IndexedIds)
	assert.Equal(t, []string{"c"}, view.Partial.FailedItems)
}

func TestTracker_Warnings(t *testing.T) {
	tracker, _ := newTestTracker()

	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)

	require.NoError(t, tracker.AddWarning(jobId, "content resolved as audio"))
	require.NoError(t, tracker.CompleteJob(jobId, nil))

	// Warnings attach even after the job finished.
	require.NoError(t, tracker.AddWarning(jobId, "late warning"))

	view, err := tracker.GetJob(jobId)
	require.NoError(t, err)
	assert.Equal(t, []string{"content resolved as audio", "late warning"}, view.Warnings)
}

func TestTracker_Sweep(t *testing.T) {
	tracker, clock := newTestTracker(WithGracePeriod(5 * time.Second))

	completedId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.CompleteJob(completedId, nil))

	erroredId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.StartStage(erroredId, StageEmbedding))
	require.NoError(t, tracker.CompleteWithError(erroredId, StageEmbedding, "boom", false))

	runningId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.StartStage(runningId, StageInitializing))

	assert.Equal(t, 3, tracker.Len())

	// Within the grace period nothing is removed.
	assert.Equal(t, 0, tracker.Sweep(clock.Now().Add(4*time.Second)))

	// After the grace period the completed job goes; the errored job holds
	// twice as long, the running job is never swept.
	assert.Equal(t, 1, tracker.Sweep(clock.Now().Add(6*time.Second)))
	_, err = tracker.GetJob(completedId)
	assert.ErrorIs(t, err, core.ErrJobNotFound)

	_, err = tracker.GetJob(erroredId)
	require.NoError(t, err, "errored job survives a single grace period")

	assert.Equal(t, 1, tracker.Sweep(clock.Now().Add(11*time.Second)))
	_, err = tracker.GetJob(erroredId)
	assert.ErrorIs(t, err, core.ErrJobNotFound)

	assert.Equal(t, 1, tracker.Len())
	_, err = tracker.GetJob(runningId)
	assert.NoError(t, err)
}

func TestTracker_Events(t *testing.T) {
	bus := event.NewBus(nil)
	defer bus.Close()

	received := make(chan event.JobEvent, 16)
	_, err := bus.Subscribe(event.StageStart, func(payload []byte) {
		decoded, err := event.Decode[event.JobEvent](payload)
		require.NoError(t, err)
		received <- decoded
	})
	require.NoError(t, err)

	tracker := NewTracker(bus)
	jobId, err := tracker.CreateJob(testDescriptor(),
		StageSequence(core.ModalityText), StageWeights(core.ModalityText))
	require.NoError(t, err)
	require.NoError(t, tracker.StartStage(jobId, StageInitializing))

	select {
	case got := <-received:
		assert.Equal(t, jobId, got.JobId)
		assert.Equal(t, string(StatusRunning), got.Status)
		assert.Equal(t, string(StageInitializing), got.Stage)
		assert.Equal(t, 0, got.StageIndex)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stage:start")
	}
}
