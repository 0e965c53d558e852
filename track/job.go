package track

import (
	"time"

	"github.com/cobaltash/vectorize/core"
)

// job is one registered vectorize/query submission. Jobs are exclusively
// owned by the orchestrator that created them; the tracker holds them by
// reference in its arena until swept.
type job struct {
	id       string
	input    core.InputDescriptor
	sequence []Stage
	weights  WeightTable

	status        Status
	currentStage  Stage
	stageStarts   map[Stage]time.Time
	stageProgress float64
	finalProgress float64 // set on terminal transition

	itemsProcessed int64
	bytesProcessed int64
	chunksTotal    int

	warnings []string
	partial  core.PartialResult

	createdAt  time.Time
	finishedAt time.Time
	expiresAt  time.Time // zero until terminal
}

// stageIndex returns the position of stage in the job's sequence, or -1.
func (j *job) stageIndex(stage Stage) int {
	for i, s := range j.sequence {
		if s == stage {
			return i
		}
	}
	return -1
}

// JobView is an immutable copy of a job's state, safe to retain.
type JobView struct {
	Id             string
	Input          core.InputDescriptor
	Sequence       []Stage
	Status         Status
	CurrentStage   Stage
	Progress       float64
	ItemsProcessed int64
	BytesProcessed int64
	ChunksTotal    int
	Warnings       []string
	Partial        core.PartialResult
	CreatedAt      time.Time
	FinishedAt     time.Time
}

func (j *job) view(progress float64) JobView {
	view := JobView{
		Id:             j.id,
		Input:          j.input,
		Sequence:       append([]Stage(nil), j.sequence...),
		Status:         j.status,
		CurrentStage:   j.currentStage,
		Progress:       progress,
		ItemsProcessed: j.itemsProcessed,
		BytesProcessed: j.bytesProcessed,
		ChunksTotal:    j.chunksTotal,
		Warnings:       append([]string(nil), j.warnings...),
		CreatedAt:      j.createdAt,
		FinishedAt:     j.finishedAt,
	}
	view.Partial.IndexedIds = append([]core.ID(nil), j.partial.IndexedIds...)
	view.Partial.FailedItems = append([]string(nil), j.partial.FailedItems...)
	return view
}
