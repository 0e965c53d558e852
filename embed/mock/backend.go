package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
)

// MockBackend is a test double for embed.Backend.
// It allows custom behavior injection via function fields.
type MockBackend struct {
	modality  core.Modality
	dimension int

	// EmbedFunc is called by Embed if set.
	// If nil, uses default deterministic behavior.
	EmbedFunc func(ctx context.Context, content []byte) ([]float32, error)

	// EmbedBatchFunc is called by EmbedBatch if set.
	// If nil, uses default deterministic behavior.
	EmbedBatchFunc func(ctx context.Context, contents [][]byte) ([][]float32, error)

	callCount atomic.Int64
}

var _ embed.Backend = (*MockBackend)(nil)

// NewMockBackend creates a mock backend for the given modality producing
// deterministic vectors of the given dimension.
func NewMockBackend(modality core.Modality, dimension int) *MockBackend {
	return &MockBackend{
		modality:  modality,
		dimension: dimension,
	}
}

// NewRegistry creates an embed.Registry with mock backends for every modality.
func NewRegistry(dimension int) *embed.Registry {
	registry := embed.NewRegistry()
	for _, modality := range core.Modalities {
		registry.Register(NewMockBackend(modality, dimension))
	}
	return registry
}

// Modality returns the configured modality.
func (m *MockBackend) Modality() core.Modality {
	return m.modality
}

// Dimension returns the configured vector length.
func (m *MockBackend) Dimension() int {
	return m.dimension
}

// Embed generates a deterministic embedding based on content hash.
func (m *MockBackend) Embed(ctx context.Context, content []byte) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, content)
	}
	return generateDeterministicVector(content, m.dimension), nil
}

// EmbedBatch generates deterministic embeddings for multiple segments.
func (m *MockBackend) EmbedBatch(ctx context.Context, contents [][]byte) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedBatchFunc != nil {
		return m.EmbedBatchFunc(ctx, contents)
	}

	vectors := make([][]float32, len(contents))
	for i, content := range contents {
		vectors[i] = generateDeterministicVector(content, m.dimension)
	}
	return vectors, nil
}

// CallCount returns the number of times any method was called.
func (m *MockBackend) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and injected functions.
func (m *MockBackend) Reset() {
	m.callCount.Store(0)
	m.EmbedFunc = nil
	m.EmbedBatchFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from
// content bytes. It uses FNV hash so the same content always produces the
// same vector.
func generateDeterministicVector(content []byte, dim int) []float32 {
	h := fnv.New32a()
	h.Write(content)
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}
	return vector
}
