package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for stored documents. Document IDs are derived
// from content so that re-indexing identical content overwrites in place.
type ID string

// IDFromContent generates a deterministic ID from content bytes using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(strconv.FormatUint(binary.LittleEndian.Uint64(sum), 16))
}

// Modality is the content category of an input. It selects the stage weight
// table and the embedding backend used for a job.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityAudio Modality = "audio"
	ModalityImage Modality = "image"
	ModalityVideo Modality = "video"
)

// Modalities lists all supported modalities.
var Modalities = []Modality{ModalityText, ModalityAudio, ModalityImage, ModalityVideo}

// ModalityFromMIME maps a MIME type to a modality.
// Returns ErrUnsupportedModality for MIME types outside the known prefixes.
func ModalityFromMIME(mime string) (Modality, error) {
	switch {
	case strings.HasPrefix(mime, "text/"),
		mime == "application/json",
		mime == "application/xml",
		mime == "application/markdown":
		return ModalityText, nil
	case strings.HasPrefix(mime, "audio/"):
		return ModalityAudio, nil
	case strings.HasPrefix(mime, "image/"):
		return ModalityImage, nil
	case strings.HasPrefix(mime, "video/"):
		return ModalityVideo, nil
	}
	return "", ErrUnsupportedModality
}

// InputDescriptor describes one submitted piece of content.
type InputDescriptor struct {
	Modality  Modality
	MIME      string
	SizeBytes int64
	Source    string // optional source reference (path or URL)
}

// VectorDocument is one indexed entry in the vector store.
// Every vector in a given store has the same length, fixed at store construction.
type VectorDocument struct {
	Id        ID
	Vector    []float32
	Metadata  map[string]string
	CreatedAt time.Time
}

// NewDocumentMetadata builds the baseline metadata every indexed document carries.
func NewDocumentMetadata(desc InputDescriptor) map[string]string {
	return map[string]string{
		"modality":  string(desc.Modality),
		"mime":      desc.MIME,
		"sizeBytes": strconv.FormatInt(desc.SizeBytes, 10),
	}
}

// AcceleratorInfo identifies the compute backend embeddings run on.
type AcceleratorInfo struct {
	Backend string
	UsedMB  float64
}

// ResourceSnapshot is a point-in-time view of resource usage.
// Snapshots are produced fresh on each sampling tick and never mutated.
type ResourceSnapshot struct {
	CPUMs            float64
	MemoryMB         float64
	MemoryLimitMB    float64
	StorageUsedMB    float64
	StorageLimitMB   float64
	ModelDownloadsMB float64
	Accelerator      *AcceleratorInfo
	Timestamp        time.Time
}

// QuotaThresholds are fractional usage levels applied independently to the
// storage and memory usage ratios. Valid thresholds satisfy
// 0 < Warn < High < Critical <= 1.
type QuotaThresholds struct {
	Warn     float64
	High     float64
	Critical float64
}

// DefaultQuotaThresholds returns the standard warn/high/critical levels.
func DefaultQuotaThresholds() QuotaThresholds {
	return QuotaThresholds{Warn: 0.7, High: 0.85, Critical: 0.95}
}

// PartialResult accumulates per-item outcomes while a job runs, so partial
// progress survives a later failure.
type PartialResult struct {
	IndexedIds  []ID
	FailedItems []string
}

// Merge appends the ids and failures from other.
func (p *PartialResult) Merge(other PartialResult) {
	p.IndexedIds = append(p.IndexedIds, other.IndexedIds...)
	p.FailedItems = append(p.FailedItems, other.FailedItems...)
}

// VectorizationResult is the final value of a completed vectorization job.
type VectorizationResult struct {
	JobId       string
	IndexedIds  []ID
	FailedItems []string
	ChunksTotal int
	Bytes       int64
	Duration    time.Duration
}

// QueryMatch is one ranked result from a similarity query.
type QueryMatch struct {
	Id       ID
	Score    float32
	Metadata map[string]string
}

// QueryResult is the final value of a similarity query.
type QueryResult struct {
	Matches []QueryMatch
}
