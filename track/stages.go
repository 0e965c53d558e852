// Package track owns the job arena: the per-job stage state machine,
// weighted progress computation, and grace-period expiry of finished jobs.
package track

import "github.com/cobaltash/vectorize/core"

// Stage is one step of the vectorization pipeline.
type Stage string

const (
	StageInitializing Stage = "initializing"
	StageExtracting   Stage = "extracting"
	StageSanitizing   Stage = "sanitizing"
	StageChunking     Stage = "chunking"
	StageEmbedding    Stage = "embedding"
	StageUpserting    Stage = "upserting"
	StageFinalizing   Stage = "finalizing"
)

// Status is the lifecycle state of a job. Terminal statuses are absorbing.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether a status accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// StageSequence returns the ordered stages valid for a modality.
// Sanitizing is only entered for textual content.
func StageSequence(modality core.Modality) []Stage {
	if modality == core.ModalityText {
		return []Stage{
			StageInitializing, StageExtracting, StageSanitizing,
			StageChunking, StageEmbedding, StageUpserting, StageFinalizing,
		}
	}
	return []Stage{
		StageInitializing, StageExtracting,
		StageChunking, StageEmbedding, StageUpserting, StageFinalizing,
	}
}

// QueryStageSequence returns the shorter sequence used by query jobs.
// Upserting is reused as the searching budget. Extraction is skipped when the
// query input needs no resolution.
func QueryStageSequence(withExtract bool) []Stage {
	if withExtract {
		return []Stage{
			StageInitializing, StageExtracting,
			StageEmbedding, StageUpserting, StageFinalizing,
		}
	}
	return []Stage{
		StageInitializing, StageEmbedding, StageUpserting, StageFinalizing,
	}
}
