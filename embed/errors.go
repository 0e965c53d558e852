package embed

import "errors"

var (
	// ErrBackendUnavailable is returned when no backend is registered for a modality.
	ErrBackendUnavailable = errors.New("no embedding backend for modality")

	// ErrEmbeddingFailed indicates the backend failed while producing embeddings.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrBackendRequired is returned when a backend is not provided.
	ErrBackendRequired = errors.New("embedding backend required")
)
