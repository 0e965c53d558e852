package engine

import (
	"context"
	"sync"

	"github.com/cobaltash/vectorize/core"
)

// FailedFile records one isolated failure from a batch.
type FailedFile struct {
	Name  string
	Error string
}

// BatchResult is the outcome of IndexFiles.
type BatchResult struct {
	Indexed []core.ID
	Failed  []FailedFile
}

// IndexFiles vectorizes a batch of inputs without fine-grained telemetry.
// Files are processed concurrently on the worker pool; one file's failure
// never aborts the batch. Failures are recorded in the result and surfaced
// through the vector:error topic.
func (o *Orchestrator) IndexFiles(ctx context.Context, files []core.Input, meta map[string]string) (*BatchResult, error) {
	result := &BatchResult{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, file := range files {
		file := file
		wg.Add(1)

		err := o.pool.Submit(func() {
			defer wg.Done()
			ids, err := o.indexOne(ctx, file, meta)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed = append(result.Failed, FailedFile{
					Name:  fileName(file),
					Error: err.Error(),
				})
				return
			}
			result.Indexed = append(result.Indexed, ids...)
		})
		if err != nil {
			// Pool saturated or released: account for the unsubmitted task.
			wg.Done()
			mu.Lock()
			result.Failed = append(result.Failed, FailedFile{Name: fileName(file), Error: err.Error()})
			mu.Unlock()
		}
	}

	wg.Wait()
	return result, nil
}

// indexOne drives a full progress run for one file, draining it internally.
func (o *Orchestrator) indexOne(ctx context.Context, file core.Input, meta map[string]string) ([]core.ID, error) {
	run, err := o.VectorizeWithProgress(ctx, file, VectorizeOptions{Metadata: meta})
	if err != nil {
		o.publishVectorError(fileName(file), err)
		return nil, err
	}

	if err := run.Drain(); err != nil {
		o.publishVectorError(fileName(file), err)
		return nil, err
	}

	result, err := run.Result()
	if err != nil {
		return nil, err
	}
	return result.IndexedIds, nil
}

func fileName(file core.Input) string {
	if file.Name != "" {
		return file.Name
	}
	if file.URL != "" {
		return file.URL
	}
	return "(unnamed)"
}
