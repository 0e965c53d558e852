package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cobaltash/vectorize/core"
)

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxFetchSize = 64 << 20 // 64 MiB
)

// Extractor resolves submitted inputs into raw content plus a descriptor.
// Remote references are fetched over HTTP with a timeout and size cap.
type Extractor struct {
	client       *http.Client
	maxFetchSize int64
	logger       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithHTTPClient sets the client used for remote references.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		if client != nil {
			e.client = client
		}
	}
}

// WithMaxFetchSize caps the byte size accepted from a remote reference.
func WithMaxFetchSize(limit int64) Option {
	return func(e *Extractor) {
		if limit > 0 {
			e.maxFetchSize = limit
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an extractor with default fetch limits.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:       &http.Client{Timeout: defaultFetchTimeout},
		maxFetchSize: defaultMaxFetchSize,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve turns an input into raw content and its descriptor. The modality is
// taken from the explicit override when present, otherwise detected from the
// MIME type; inputs given as plain text default to text/plain.
func (e *Extractor) Resolve(ctx context.Context, input core.Input) ([]byte, core.InputDescriptor, error) {
	var desc core.InputDescriptor

	if input.Empty() {
		return nil, desc, core.ErrEmptyInput
	}

	var content []byte
	var err error

	switch {
	case input.Text != "":
		content = []byte(input.Text)
		desc.MIME = input.MIME
		if desc.MIME == "" {
			desc.MIME = "text/plain"
		}
		desc.Source = input.Name
	case len(input.Data) > 0:
		content = input.Data
		desc.MIME = input.MIME
		if desc.MIME == "" {
			desc.MIME = "application/octet-stream"
		}
		desc.Source = input.Name
	default:
		content, desc.MIME, err = e.fetch(ctx, input.URL)
		if err != nil {
			return nil, desc, err
		}
		if input.MIME != "" {
			desc.MIME = input.MIME
		}
		desc.Source = input.URL
	}

	desc.SizeBytes = int64(len(content))

	if input.Modality != "" {
		desc.Modality = input.Modality
	} else {
		desc.Modality, err = core.ModalityFromMIME(desc.MIME)
		if err != nil {
			return nil, desc, fmt.Errorf("%w: mime %q", core.ErrUnsupportedModality, desc.MIME)
		}
	}

	return content, desc, nil
}

// fetch retrieves a remote reference, honoring the configured size cap.
func (e *Extractor) fetch(ctx context.Context, url string) ([]byte, string, error) {
	e.logger.Debug("fetching remote reference", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxFetchSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > e.maxFetchSize {
		return nil, "", fmt.Errorf("fetching %s: content exceeds %d byte limit", url, e.maxFetchSize)
	}

	return body, resp.Header.Get("Content-Type"), nil
}
