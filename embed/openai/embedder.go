package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/cobaltash/vectorize/core"
	"github.com/cobaltash/vectorize/embed"
)

// Backend implements embed.Backend for text using OpenAI-compatible embedding APIs.
type Backend struct {
	embedder  embeddings.Embedder
	dimension int
	logger    *slog.Logger
}

var _ embed.Backend = (*Backend)(nil)

// NewBackend creates a text embedding backend using the provided configuration.
func NewBackend(config *embed.Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Use "none" as token for local OpenAI-compatible services that don't
	// require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return &Backend{
		embedder:  embedder,
		dimension: config.Dimension,
		logger:    slog.Default().With("component", "openai-embedder"),
	}, nil
}

// Modality returns core.ModalityText.
func (b *Backend) Modality() core.Modality {
	return core.ModalityText
}

// Dimension returns the configured vector length.
func (b *Backend) Dimension() int {
	return b.dimension
}

// Embed generates an embedding for a single text segment.
func (b *Backend) Embed(ctx context.Context, content []byte) ([]float32, error) {
	b.logger.Debug("generating embedding for single segment", "length", len(content))

	vectors, err := b.embedder.EmbedDocuments(ctx, []string{string(content)})
	if err != nil {
		b.logger.Error("failed to generate embedding", "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrEmbeddingFailed, err)
	}
	if len(vectors) == 0 {
		b.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple text segments in one call.
func (b *Backend) EmbedBatch(ctx context.Context, contents [][]byte) ([][]float32, error) {
	b.logger.Debug("generating embeddings for batch", "segments", len(contents))

	texts := make([]string, len(contents))
	for i, content := range contents {
		texts[i] = string(content)
	}

	vectors, err := b.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		b.logger.Error("failed to generate batch embeddings", "err", err)
		return nil, fmt.Errorf("%w: %w", embed.ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, received %d",
			embed.ErrEmbeddingFailed, len(texts), len(vectors))
	}
	return vectors, nil
}
