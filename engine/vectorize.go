package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cobaltash/vectorize/chunk"
	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
	"github.com/cobaltash/vectorize/event"
	"github.com/cobaltash/vectorize/extract"
	"github.com/cobaltash/vectorize/storage"
	"github.com/cobaltash/vectorize/track"
)

// VectorizeOptions controls one vectorization call.
type VectorizeOptions struct {
	// Chunking overrides the orchestrator's chunking defaults when non-zero.
	Chunking chunk.Options

	// Metadata is merged into every indexed document's metadata.
	Metadata map[string]string
}

// VectorizeWithProgress creates a job for the input and returns a lazy run
// that drives it through the stage sequence. The caller advances the
// pipeline by iterating; cancellation is read from ctx at stage entry.
func (o *Orchestrator) VectorizeWithProgress(ctx context.Context, input core.Input, opts VectorizeOptions) (*Run, error) {
	if input.Empty() {
		return nil, core.ErrEmptyInput
	}

	modality, err := detectModality(input)
	if err != nil {
		return nil, err
	}

	desc := core.InputDescriptor{
		Modality:  modality,
		MIME:      input.MIME,
		SizeBytes: int64(len(input.Data)) + int64(len(input.Text)),
		Source:    input.Name,
	}

	jobId, err := o.tracker.CreateJob(desc, track.StageSequence(modality), track.StageWeights(modality))
	if err != nil {
		return nil, err
	}

	run := &Run{
		o:     o,
		ctx:   ctx,
		jobId: jobId,
		input: input,
		desc:  desc,
	}

	chunking := opts.Chunking
	if chunking.Strategy == "" && chunking.ChunkSize == 0 {
		chunking = o.chunking
	}

	var backend embed.Backend

	run.append(
		// initializing: lazy-load the matching embedding backend and open
		// the store.
		func(ctx context.Context) error {
			if err := run.enterStage(track.StageInitializing); err != nil {
				return err
			}
			if o.estimator != nil {
				run.endMeasure = o.estimator.StartMeasurement("vectorize")
			}
			loaded, err := o.registry.Lookup(modality)
			if err != nil {
				return err
			}
			backend = loaded
			if err := o.store.Initialize(ctx); err != nil {
				return err
			}
			return o.tracker.CompleteStage(run.jobId, nil)
		},

		// extracting: fetch and resolve the raw content.
		func(ctx context.Context) error {
			if err := run.enterStage(track.StageExtracting); err != nil {
				return err
			}
			content, resolved, err := o.extractor.Resolve(ctx, run.input)
			if err != nil {
				return err
			}
			if resolved.Modality != modality {
				o.tracker.AddWarning(run.jobId, fmt.Sprintf(
					"content resolved as %s but job was planned as %s; stage weights may be off",
					resolved.Modality, modality))
				resolved.Modality = modality
			}
			run.content = content
			run.desc = resolved
			o.tracker.UpdateProgress(run.jobId, 1, track.UpdateOptions{
				BytesProcessed: resolved.SizeBytes,
			})
			return o.tracker.CompleteStage(run.jobId, nil)
		},
	)

	if modality == core.ModalityText {
		run.append(func(ctx context.Context) error {
			if err := run.enterStage(track.StageSanitizing); err != nil {
				return err
			}
			run.content = []byte(extract.Sanitize(string(run.content)))
			if len(run.content) == 0 {
				return core.ErrEmptyInput
			}
			return o.tracker.CompleteStage(run.jobId, nil)
		})
	}

	run.append(func(ctx context.Context) error {
		if err := run.enterStage(track.StageChunking); err != nil {
			return err
		}
		if modality == core.ModalityText {
			texts, err := chunk.SplitText(string(run.content), chunking)
			if err != nil {
				return err
			}
			run.segments = make([][]byte, len(texts))
			for i, text := range texts {
				run.segments[i] = []byte(text)
			}
		} else {
			run.segments = chunk.SplitBytes(run.content, chunking)
		}
		if len(run.segments) == 0 {
			return ErrNoSegments
		}
		o.tracker.UpdateProgress(run.jobId, 1, track.UpdateOptions{
			ChunksTotal: len(run.segments),
		})
		if err := o.tracker.CompleteStage(run.jobId, nil); err != nil {
			return err
		}

		// Chunk count is known now; schedule the per-chunk embedding and
		// upsert work, then finalization.
		run.append(o.embeddingSteps(run, &backend, opts.Metadata)...)
		run.append(o.finalizeStep(run))
		return nil
	})

	return run, nil
}

// embeddingSteps returns the embedding stage, one step per chunk, followed by
// the upserting stage writing each vector into the store.
func (o *Orchestrator) embeddingSteps(run *Run, backend *embed.Backend, metadata map[string]string) []stepFunc {
	total := len(run.segments)
	vectors := make([][]float32, total)

	steps := []stepFunc{func(ctx context.Context) error {
		return run.enterStage(track.StageEmbedding)
	}}

	for i := 0; i < total; i++ {
		i := i
		steps = append(steps, func(ctx context.Context) error {
			vector, err := (*backend).Embed(ctx, run.segments[i])
			if err != nil {
				return fmt.Errorf("%w: chunk %d: %w", embed.ErrEmbeddingFailed, i, err)
			}
			vectors[i] = vector
			return o.tracker.UpdateProgress(run.jobId, float64(i+1)/float64(total), track.UpdateOptions{
				ItemsProcessed: int64(i + 1),
			})
		})
	}

	steps = append(steps, func(ctx context.Context) error {
		if err := o.tracker.CompleteStage(run.jobId, nil); err != nil {
			return err
		}
		return run.enterStage(track.StageUpserting)
	})

	// One write per chunk keeps single-document atomicity; earlier writes
	// survive a later failure or cancellation.
	for i := 0; i < total; i++ {
		i := i
		steps = append(steps, func(ctx context.Context) error {
			doc := o.buildDocument(run, i, vectors[i], metadata)
			if err := o.store.Upsert(ctx, doc); err != nil {
				run.partial.FailedItems = append(run.partial.FailedItems, chunkLabel(run, i))
				return fmt.Errorf("upserting chunk %d: %w", i, err)
			}
			run.partial.IndexedIds = append(run.partial.IndexedIds, doc.Id)
			return o.tracker.UpdateProgress(run.jobId, float64(i+1)/float64(total), track.UpdateOptions{})
		})
	}

	steps = append(steps, func(ctx context.Context) error {
		return o.tracker.CompleteStage(run.jobId, &run.partial)
	})

	return steps
}

// finalizeStep closes out the job and publishes vector:indexed.
func (o *Orchestrator) finalizeStep(run *Run) stepFunc {
	return func(ctx context.Context) error {
		if err := run.enterStage(track.StageFinalizing); err != nil {
			return err
		}
		if err := o.tracker.CompleteStage(run.jobId, nil); err != nil {
			return err
		}
		if err := o.tracker.CompleteJob(run.jobId, nil); err != nil {
			return err
		}

		view, err := o.tracker.GetJob(run.jobId)
		if err != nil {
			return err
		}
		run.result = &core.VectorizationResult{
			JobId:       run.jobId,
			IndexedIds:  view.Partial.IndexedIds,
			FailedItems: view.Partial.FailedItems,
			ChunksTotal: view.ChunksTotal,
			Bytes:       view.BytesProcessed,
			Duration:    view.FinishedAt.Sub(view.CreatedAt),
		}

		if o.bus != nil {
			o.bus.Publish(event.VectorIndexed, event.VectorEvent{
				Ids:   view.Partial.IndexedIds,
				Count: len(view.Partial.IndexedIds),
				Label: run.desc.Source,
			})
		}
		return nil
	}
}

// buildDocument derives the stored document for one chunk.
func (o *Orchestrator) buildDocument(run *Run, index int, vector []float32, extra map[string]string) *core.VectorDocument {
	metadata := core.NewDocumentMetadata(run.desc)
	metadata["chunkIndex"] = strconv.Itoa(index)
	if run.desc.Source != "" {
		metadata["source"] = run.desc.Source
	}
	for key, value := range extra {
		metadata[key] = value
	}
	metadata["createdAt"] = time.Now().UTC().Format(time.RFC3339)

	// The id hashes source and chunk position with the content, so the same
	// chunk text in two documents stays independently indexed while
	// re-indexing an unchanged file overwrites in place.
	seed := []byte(run.desc.Source + "#" + strconv.Itoa(index) + ":")
	return &core.VectorDocument{
		Id:        core.IDFromContent(append(seed, run.segments[index]...)),
		Vector:    vector,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
}

func chunkLabel(run *Run, index int) string {
	if run.desc.Source != "" {
		return run.desc.Source + "#" + strconv.Itoa(index)
	}
	return run.jobId + "#" + strconv.Itoa(index)
}

// retriable classifies whether retrying the failed job might succeed.
func retriable(err error) bool {
	switch {
	case errors.Is(err, core.ErrUnsupportedModality),
		errors.Is(err, core.ErrEmptyInput),
		errors.Is(err, core.ErrMissingOption),
		errors.Is(err, storage.ErrDimensionMismatch),
		errors.Is(err, embed.ErrBackendUnavailable),
		errors.Is(err, ErrNoSegments):
		return false
	}
	return true
}
