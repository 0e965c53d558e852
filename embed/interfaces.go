package embed

import (
	"context"

	"github.com/cobaltash/vectorize/core"
)

// Backend generates vector embeddings for content of a single modality.
// Implementations must be thread-safe for concurrent use.
type Backend interface {
	// Modality returns the content category this backend handles.
	Modality() core.Modality

	// Dimension returns the length of the vectors this backend produces.
	Dimension() int

	// Embed generates a vector embedding for a single content segment.
	Embed(ctx context.Context, content []byte) ([]float32, error)

	// EmbedBatch generates embeddings for multiple segments in one call.
	// The returned slice preserves input order.
	EmbedBatch(ctx context.Context, contents [][]byte) ([][]float32, error)
}
