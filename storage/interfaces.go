package storage

import (
	"context"

	"github.com/cobaltash/vectorize/core"
)

// QueryOptions controls a similarity query.
type QueryOptions struct {
	// K is the maximum number of matches to return. Defaults to 10 when <= 0.
	K int

	// Filter restricts matches to documents whose metadata contains every
	// listed key with exactly the listed value.
	Filter map[string]string

	// ScoreThreshold drops matches scoring strictly below it. Zero keeps all.
	ScoreThreshold float32
}

// DefaultK is the result limit applied when QueryOptions.K is unset.
const DefaultK = 10

// VectorStore is a durable similarity index of (id -> vector, metadata).
// Implementations must be thread-safe and support concurrent access from
// multiple in-flight jobs.
type VectorStore interface {
	// Initialize opens or creates the backing store. It is idempotent.
	// Returns ErrStorageUnavailable if the backend cannot be opened.
	Initialize(ctx context.Context) error

	// Upsert inserts or overwrites documents by id. If any document's vector
	// length differs from the store's configured dimension, the whole batch
	// fails with ErrDimensionMismatch and nothing is written for this call.
	Upsert(ctx context.Context, docs ...*core.VectorDocument) error

	// Query scans all stored documents, scores them by cosine similarity
	// against vector, applies the exact-match metadata filter, and returns
	// the top K matches sorted by descending score. Ties keep storage order.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]core.QueryMatch, error)

	// Delete removes the listed ids. Missing ids are ignored.
	Delete(ctx context.Context, ids ...core.ID) error

	// Clear removes all documents.
	Clear(ctx context.Context) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Dimension returns the fixed vector length configured at construction.
	Dimension() int

	// StorageSize reports the backing store's on-disk size in bytes.
	StorageSize() int64

	// Close releases backing resources. Any operation after Close fails
	// with ErrStoreClosed.
	Close() error
}
