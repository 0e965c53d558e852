package chunk

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Strategy selects the text splitting algorithm.
type Strategy string

const (
	// StrategyRecursive splits on a separator hierarchy, largest first.
	StrategyRecursive Strategy = "recursive"
	// StrategyMarkdown splits along markdown structure.
	StrategyMarkdown Strategy = "markdown"
	// StrategyToken splits by token count using tiktoken encodings.
	StrategyToken Strategy = "token"
)

// Default chunking geometry.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 64
)

// Options controls how content is split into segments.
type Options struct {
	Strategy     Strategy
	ChunkSize    int
	ChunkOverlap int
	Separators   []string // recursive strategy only
}

// DefaultOptions returns the recursive strategy with default geometry.
func DefaultOptions() Options {
	return Options{
		Strategy:     StrategyRecursive,
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
	}
}

// normalize fills zero values with defaults.
func (o Options) normalize() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyRecursive
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap < 0 || o.ChunkOverlap >= o.ChunkSize {
		o.ChunkOverlap = DefaultChunkOverlap
		if o.ChunkOverlap >= o.ChunkSize {
			o.ChunkOverlap = o.ChunkSize / 8
		}
	}
	return o
}

// SplitText splits text into segments using the configured strategy.
// Empty input yields no segments.
func SplitText(text string, opts Options) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	opts = opts.normalize()

	splitter, err := newSplitter(opts)
	if err != nil {
		return nil, err
	}

	segments, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("splitting text: %w", err)
	}
	return segments, nil
}

func newSplitter(opts Options) (textsplitter.TextSplitter, error) {
	switch opts.Strategy {
	case StrategyRecursive:
		splitterOpts := []textsplitter.Option{
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
		}
		if len(opts.Separators) > 0 {
			splitterOpts = append(splitterOpts, textsplitter.WithSeparators(opts.Separators))
		}
		return textsplitter.NewRecursiveCharacter(splitterOpts...), nil
	case StrategyMarkdown:
		return textsplitter.NewMarkdownTextSplitter(
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
		), nil
	case StrategyToken:
		return textsplitter.NewTokenSplitter(
			textsplitter.WithChunkSize(opts.ChunkSize),
			textsplitter.WithChunkOverlap(opts.ChunkOverlap),
		), nil
	}
	return nil, fmt.Errorf("unknown chunking strategy %q", opts.Strategy)
}

// SplitBytes splits binary content into fixed-size windows with overlap.
// Used for non-text modalities where segmentation has no structural cues.
func SplitBytes(data []byte, opts Options) [][]byte {
	if len(data) == 0 {
		return nil
	}
	opts = opts.normalize()

	step := opts.ChunkSize - opts.ChunkOverlap
	var segments [][]byte
	for start := 0; start < len(data); start += step {
		end := start + opts.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, data[start:end])
		if end == len(data) {
			break
		}
	}
	return segments
}
