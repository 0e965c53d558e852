package engine

import (
	"context"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/event"
	"github.com/cobaltash/vectorize/extract"
	"github.com/cobaltash/vectorize/storage"
	"github.com/cobaltash/vectorize/track"
)

// QueryOptions controls a similarity query call.
type QueryOptions struct {
	K              int
	Filter         map[string]string
	ScoreThreshold float32
}

func (q QueryOptions) storeOptions() storage.QueryOptions {
	return storage.QueryOptions{
		K:              q.K,
		Filter:         q.Filter,
		ScoreThreshold: q.ScoreThreshold,
	}
}

// QueryWithProgress creates a query job and returns a lazy run over the short
// stage sequence: the query content is embedded once and a single store query
// runs under the searching budget.
func (o *Orchestrator) QueryWithProgress(ctx context.Context, input core.Input, opts QueryOptions) (*Run, error) {
	if input.Empty() {
		return nil, core.ErrEmptyInput
	}

	modality, err := detectModality(input)
	if err != nil {
		return nil, err
	}

	// Plain text needs no extraction; buffers and references do.
	withExtract := input.Text == ""

	desc := core.InputDescriptor{
		Modality:  modality,
		MIME:      input.MIME,
		SizeBytes: int64(len(input.Data)) + int64(len(input.Text)),
		Source:    input.Name,
	}

	jobId, err := o.tracker.CreateJob(desc,
		track.QueryStageSequence(withExtract), track.QueryStageWeights(withExtract))
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
	run.content = []byte(input.Text)

	var vector []float32

	run.append(func(ctx context.Context) error {
		if err := run.enterStage(track.StageInitializing); err != nil {
			return err
		}
		if o.estimator != nil {
			run.endMeasure = o.estimator.StartMeasurement("query")
		}
		if err := o.store.Initialize(ctx); err != nil {
			return err
		}
		return o.tracker.CompleteStage(run.jobId, nil)
	})

	if withExtract {
		run.append(func(ctx context.Context) error {
			if err := run.enterStage(track.StageExtracting); err != nil {
				return err
			}
			content, resolved, err := o.extractor.Resolve(ctx, run.input)
			if err != nil {
				return err
			}
			resolved.Modality = modality
			run.content = content
			run.desc = resolved
			return o.tracker.CompleteStage(run.jobId, nil)
		})
	}

	run.append(
		func(ctx context.Context) error {
			if err := run.enterStage(track.StageEmbedding); err != nil {
				return err
			}
			backend, err := o.registry.Lookup(modality)
			if err != nil {
				return err
			}
			content := run.content
			if modality == core.ModalityText {
				content = []byte(extract.Sanitize(string(content)))
			}
			vector, err = backend.Embed(ctx, content)
			if err != nil {
				return err
			}
			return o.tracker.CompleteStage(run.jobId, nil)
		},

		// upserting carries the searching budget for query jobs
		func(ctx context.Context) error {
			if err := run.enterStage(track.StageUpserting); err != nil {
				return err
			}
			run.message = "searching"
			matches, err := o.store.Query(ctx, vector, opts.storeOptions())
			if err != nil {
				return err
			}
			run.queryResult = &core.QueryResult{Matches: matches}
			return o.tracker.CompleteStage(run.jobId, nil)
		},

		func(ctx context.Context) error {
			if err := run.enterStage(track.StageFinalizing); err != nil {
				return err
			}
			if err := o.tracker.CompleteStage(run.jobId, nil); err != nil {
				return err
			}
			if err := o.tracker.CompleteJob(run.jobId, nil); err != nil {
				return err
			}
			if o.bus != nil {
				o.bus.Publish(event.VectorQueried, event.VectorEvent{
					Count: len(run.queryResult.Matches),
					Label: run.desc.Source,
				})
			}
			return nil
		},
	)

	return run, nil
}

// Query embeds the input once and performs a single store query, without a
// job or progress wrapper.
func (o *Orchestrator) Query(ctx context.Context, input core.Input, modality core.Modality, opts QueryOptions) (*core.QueryResult, error) {
	if input.Empty() {
		return nil, core.ErrEmptyInput
	}

	if modality == "" {
		detected, err := detectModality(input)
		if err != nil {
			return nil, err
		}
		modality = detected
	}

	backend, err := o.registry.Lookup(modality)
	if err != nil {
		return nil, err
	}

	if err := o.store.Initialize(ctx); err != nil {
		return nil, err
	}

	content := input.Data
	if input.Text != "" {
		content = []byte(extract.Sanitize(input.Text))
	} else if input.URL != "" {
		resolved, _, err := o.extractor.Resolve(ctx, input)
		if err != nil {
			return nil, err
		}
		content = resolved
	}

	vector, err := backend.Embed(ctx, content)
	if err != nil {
		return nil, err
	}

	matches, err := o.store.Query(ctx, vector, opts.storeOptions())
	if err != nil {
		o.publishVectorError("query", err)
		return nil, err
	}

	if o.bus != nil {
		o.bus.Publish(event.VectorQueried, event.VectorEvent{Count: len(matches), Label: input.Name})
	}
	return &core.QueryResult{Matches: matches}, nil
}
