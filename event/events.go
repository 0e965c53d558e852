package event

import (
	"time"

	"github.com/cobaltash/vectorize/core"
)

// Public topic names. Subscribers attach to these via the engine facade.
const (
	VectorIndexed = "vector:indexed"
	VectorQueried = "vector:queried"
	VectorDeleted = "vector:deleted"
	VectorError   = "vector:error"

	ResourceUsage        = "resource:usage"
	ResourceQuotaWarning = "resource:quota-warning"

	VectorizationProgress   = "vectorization:progress"
	VectorizationStageStart = "vectorization:stage:start"
	VectorizationStageEnd   = "vectorization:stage:end"
	VectorizationWarning    = "vectorization:warning"
	VectorizationError      = "vectorization:error"
)

// Internal topics published by the tracker before the engine forwards them
// under the public names above.
const (
	JobStart      = "job:start"
	JobComplete   = "job:complete"
	JobError      = "job:error"
	JobCancelled  = "job:cancelled"
	StageStart    = "stage:start"
	StageProgress = "stage:progress"
	StageEnd      = "stage:end"
	JobWarning    = "job:warning"
)

// JobEvent is the payload for job lifecycle and progress topics.
type JobEvent struct {
	JobId          string    `json:"jobId"`
	Status         string    `json:"status"`
	Stage          string    `json:"stage,omitempty"`
	StageIndex     int       `json:"stageIndex"`
	StageProgress  float64   `json:"stageProgress"`
	Progress       float64   `json:"progress"`
	ItemsProcessed int64     `json:"itemsProcessed"`
	BytesProcessed int64     `json:"bytesProcessed"`
	ChunksTotal    int       `json:"chunksTotal"`
	EtaMs          int64     `json:"etaMs,omitempty"`
	Message        string    `json:"message,omitempty"`
	Retriable      bool      `json:"retriable,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// VectorEvent is the payload for vector store topics.
type VectorEvent struct {
	Ids   []core.ID `json:"ids,omitempty"`
	Count int       `json:"count"`
	Label string    `json:"label,omitempty"`
	Error string    `json:"error,omitempty"`
}

// UsageEvent is the payload for resource:usage.
type UsageEvent struct {
	Snapshot core.ResourceSnapshot `json:"snapshot"`
}

// QuotaWarningEvent is the payload for resource:quota-warning.
type QuotaWarningEvent struct {
	Level    string                `json:"level"`
	Exceeded []string              `json:"exceeded"`
	Snapshot core.ResourceSnapshot `json:"snapshot"`
}
