package track

import "time"

// stageCompleteAfter is the duration after which an entered stage is deemed
// complete by the progress heuristic.
const stageCompleteAfter = time.Second

// globalProgress computes the job's single global progress value in [0,1]:
// the summed weights of stages considered complete (a stage counts as
// complete once its duration exceeds one second, or once it is no longer the
// current stage) plus half the weight of the currently active stage,
// normalized by the table total.
//
// This is a deliberate approximation kept for compatibility with the
// documented telemetry contract, not a byte- or item-based interpolation. A
// stage finishing in under a second is never deemed complete while current,
// which can make consecutive readings non-monotonic at stage boundaries.
func globalProgress(j *job, now time.Time) float64 {
	total := j.weights.Sum()
	if total <= 0 {
		return 0
	}

	if j.status.Terminal() {
		return j.finalProgress
	}

	accumulated := 0
	for stage, started := range j.stageStarts {
		if stage != j.currentStage || now.Sub(started) > stageCompleteAfter {
			accumulated += j.weights[stage]
		}
	}

	progress := float64(accumulated)
	if j.currentStage != "" {
		progress += float64(j.weights[j.currentStage]) / 2
	}

	progress /= float64(total)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	return progress
}
