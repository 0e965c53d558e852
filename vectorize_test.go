package vectorize

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed/mock"
	"github.com/cobaltash/vectorize/engine"
	"github.com/cobaltash/vectorize/event"
	"github.com/cobaltash/vectorize/track"
)

const testDimension = 8

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	opts = append([]Option{
		WithInMemoryStore(),
		WithDimension(testDimension),
		WithRegistry(mock.NewRegistry(testDimension)),
	}, opts...)

	eng, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestEngine_VectorizeAndQuery(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	run, err := eng.VectorizeWithProgress(ctx,
		core.Input{Text: "facade level round trip", Name: "facade.txt"},
		engine.VectorizeOptions{})
	require.NoError(t, err)
	require.NoError(t, run.Drain())

	result, err := run.Result()
	require.NoError(t, err)
	require.NotEmpty(t, result.IndexedIds)

	queryResult, err := eng.Query(ctx,
		core.Input{Text: "facade level round trip"}, core.ModalityText,
		engine.QueryOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, queryResult.Matches, 1)
	assert.InDelta(t, 1.0, queryResult.Matches[0].Score, 1e-5)
}

func TestEngine_VectorizeBlocking(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	result, err := eng.Vectorize(ctx,
		core.Input{Text: "blocking submission", Name: "blocking.txt"},
		engine.VectorizeOptions{Metadata: map[string]string{"tenant": "acme"}})
	require.NoError(t, err)
	require.NotEmpty(t, result.IndexedIds)
	assert.Empty(t, result.FailedItems)

	queryResult, err := eng.Query(ctx,
		core.Input{Text: "blocking submission"}, core.ModalityText,
		engine.QueryOptions{K: 1, Filter: map[string]string{"tenant": "acme"}})
	require.NoError(t, err)
	require.Len(t, queryResult.Matches, 1)
	assert.Equal(t, result.IndexedIds[0], queryResult.Matches[0].Id)
}

func TestEngine_ProgressEvents(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	progress := make(chan event.JobEvent, 64)
	unsub, err := eng.On(event.VectorizationProgress, func(payload []byte) {
		decoded, err := event.Decode[event.JobEvent](payload)
		require.NoError(t, err)
		select {
		case progress <- decoded:
		default:
		}
	})
	require.NoError(t, err)
	defer unsub()

	run, err := eng.VectorizeWithProgress(ctx,
		core.Input{Text: "observable pipeline"}, engine.VectorizeOptions{})
	require.NoError(t, err)
	require.NoError(t, run.Drain())

	// The terminal job:complete forward must surface with progress 1.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-progress:
			assert.Equal(t, run.JobId(), got.JobId)
			if got.Status == string(track.StatusCompleted) {
				assert.Equal(t, 1.0, got.Progress)
				return
			}
		case <-deadline:
			t.Fatal("never observed the completed progress event")
		}
	}
}

func TestEngine_IndexedEvent(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	indexed := make(chan event.VectorEvent, 4)
	unsub, err := eng.On(event.VectorIndexed, func(payload []byte) {
		decoded, _ := event.Decode[event.VectorEvent](payload)
		indexed <- decoded
	})
	require.NoError(t, err)
	defer unsub()

	run, err := eng.VectorizeWithProgress(ctx,
		core.Input{Text: "emit on index", Name: "emit.txt"}, engine.VectorizeOptions{})
	require.NoError(t, err)
	require.NoError(t, run.Drain())

	select {
	case got := <-indexed:
		assert.Equal(t, "emit.txt", got.Label)
		assert.Greater(t, got.Count, 0)
		assert.Len(t, got.Ids, got.Count)
	case <-time.After(2 * time.Second):
		t.Fatal("vector:indexed never fired")
	}
}

func TestEngine_IndexFilesAndDelete(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	batch, err := eng.IndexFiles(ctx, []core.Input{
		{Text: "file one", Name: "one.txt"},
		{Text: "file two", Name: "two.txt"},
	}, nil)
	require.NoError(t, err)
	require.Empty(t, batch.Failed)
	require.NotEmpty(t, batch.Indexed)

	require.NoError(t, eng.Delete(ctx, batch.Indexed...))

	result, err := eng.Query(ctx, core.Input{Text: "file one"}, core.ModalityText, engine.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestEngine_Job(t *testing.T) {
	ctx := context.Background()
	eng := newTestEngine(t)

	run, err := eng.VectorizeWithProgress(ctx,
		core.Input{Text: "inspect me"}, engine.VectorizeOptions{})
	require.NoError(t, err)
	require.NoError(t, run.Drain())

	view, err := eng.Job(run.JobId())
	require.NoError(t, err)
	assert.Equal(t, track.StatusCompleted, view.Status)

	_, err = eng.Job("missing")
	assert.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestEngine_UsageSnapshot(t *testing.T) {
	eng := newTestEngine(t, WithStorageLimit(100), WithAccelerator("metal"))

	snapshot := eng.UsageSnapshot()
	assert.Equal(t, 100.0, snapshot.StorageLimitMB)
	assert.Greater(t, snapshot.MemoryMB, 0.0)
	require.NotNil(t, snapshot.Accelerator)
	assert.Equal(t, "metal", snapshot.Accelerator.Backend)
}

func TestEngine_InvalidThresholds(t *testing.T) {
	_, err := New(t.TempDir(),
		WithInMemoryStore(),
		WithRegistry(mock.NewRegistry(testDimension)),
		WithQuotaThresholds(core.QuotaThresholds{Warn: 0.9, High: 0.5, Critical: 0.99}),
	)
	assert.ErrorIs(t, err, core.ErrInvalidThresholds)
}

func TestEngine_Close(t *testing.T) {
	eng, err := New(t.TempDir(),
		WithInMemoryStore(),
		WithDimension(testDimension),
		WithRegistry(mock.NewRegistry(testDimension)),
	)
	require.NoError(t, err)
	assert.NoError(t, eng.Close())
}
