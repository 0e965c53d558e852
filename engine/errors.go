package engine

import "errors"

var (
	// ErrStoreRequired is returned when a vector store is not provided.
	ErrStoreRequired = errors.New("vector store required")

	// ErrRegistryRequired is returned when an embedding registry is not provided.
	ErrRegistryRequired = errors.New("embedding registry required")

	// ErrTrackerRequired is returned when a tracker is not provided.
	ErrTrackerRequired = errors.New("tracker required")

	// ErrNoSegments indicates chunking produced no segments to embed.
	ErrNoSegments = errors.New("no segments produced by chunking")

	// ErrRunExhausted indicates Result was read before the run finished.
	ErrRunExhausted = errors.New("run has not finished")
)
