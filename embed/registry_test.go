package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltash/vectorize/core"
)

// stubBackend is a minimal in-package test double.
type stubBackend struct {
	modality core.Modality
	dim      int
	calls    int
	err      error
}

func (s *stubBackend) Modality() core.Modality { return s.modality }
func (s *stubBackend) Dimension() int          { return s.dim }

func (s *stubBackend) Embed(ctx context.Context, content []byte) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vector := make([]float32, s.dim)
	for i := range vector {
		vector[i] = float32(len(content))
	}
	return vector, nil
}

func (s *stubBackend) EmbedBatch(ctx context.Context, contents [][]byte) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float32, len(contents))
	for i, content := range contents {
		vectors[i] = make([]float32, s.dim)
		for j := range vectors[i] {
			vectors[i][j] = float32(len(content))
		}
	}
	return vectors, nil
}

func TestRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		registry := NewRegistry()
		backend := &stubBackend{modality: core.ModalityText, dim: 4}
		require.NoError(t, registry.Register(backend))

		got, err := registry.Lookup(core.ModalityText)
		require.NoError(t, err)
		assert.Same(t, backend, got.(*stubBackend))
	})

	t.Run("lookup without backend fails", func(t *testing.T) {
		registry := NewRegistry()
		_, err := registry.Lookup(core.ModalityAudio)
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})

	t.Run("nil backend rejected", func(t *testing.T) {
		registry := NewRegistry()
		assert.ErrorIs(t, registry.Register(nil), ErrBackendRequired)
	})

	t.Run("registering replaces previous backend", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(&stubBackend{modality: core.ModalityText, dim: 4}))
		replacement := &stubBackend{modality: core.ModalityText, dim: 8}
		require.NoError(t, registry.Register(replacement))

		got, err := registry.Lookup(core.ModalityText)
		require.NoError(t, err)
		assert.Equal(t, 8, got.Dimension())
	})

	t.Run("supported modalities in canonical order", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(&stubBackend{modality: core.ModalityImage, dim: 4}))
		require.NoError(t, registry.Register(&stubBackend{modality: core.ModalityText, dim: 4}))

		assert.Equal(t, []core.Modality{core.ModalityText, core.ModalityImage},
			registry.SupportedModalities())
	})
}
