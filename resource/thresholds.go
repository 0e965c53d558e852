package resource

import "github.com/cobaltash/vectorize/core"

// Level classifies how far usage has crossed into the configured thresholds.
type Level string

const (
	LevelNone     Level = "none"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelNone:     0,
	LevelHigh:     1,
	LevelCritical: 2,
}

// CheckThresholds classifies a snapshot against the configured thresholds.
// Each monitored dimension (storage ratio, memory ratio) is compared
// independently; the returned level is the worst reached across dimensions,
// and exceeded lists the dimensions that crossed at least the warn threshold.
// Dimensions with no configured limit are skipped.
func (e *Estimator) CheckThresholds(snapshot core.ResourceSnapshot) (Level, []string) {
	worst := LevelNone
	var exceeded []string

	check := func(name string, used, limit float64) {
		if limit <= 0 {
			return
		}
		level := classify(used/limit, e.thresholds)
		if level == LevelNone {
			return
		}
		exceeded = append(exceeded, name)
		if levelRank[level] > levelRank[worst] {
			worst = level
		}
	}

	check("storage", snapshot.StorageUsedMB, snapshot.StorageLimitMB)
	check("memory", snapshot.MemoryMB, snapshot.MemoryLimitMB)

	return worst, exceeded
}

// classify escalates one step past the threshold that was crossed: the warn
// threshold marks the onset of high usage, and the high threshold marks the
// onset of critical usage. Crossing warn therefore reports LevelHigh, not a
// separate warn level.
func classify(ratio float64, t core.QuotaThresholds) Level {
	switch {
	case ratio >= t.High:
		return LevelCritical
	case ratio >= t.Warn:
		return LevelHigh
	}
	return LevelNone
}
