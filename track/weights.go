package track

import "github.com/cobaltash/vectorize/core"

// WeightTable maps each stage of a job's sequence to its integer percentage
// of the total budget. A valid table sums to exactly 100.
type WeightTable map[Stage]int

// Sum returns the total of all weights.
func (w WeightTable) Sum() int {
	total := 0
	for _, weight := range w {
		total += weight
	}
	return total
}

// Per-modality weight tables. All tables share the same stage vocabulary and
// sum to 100; stages a modality never enters carry weight 0 and are excluded
// from its sequence.
var stageWeights = map[core.Modality]WeightTable{
	core.ModalityText: {
		StageInitializing: 5,
		StageExtracting:   10,
		StageSanitizing:   10,
		StageChunking:     15,
		StageEmbedding:    40,
		StageUpserting:    15,
		StageFinalizing:   5,
	},
	core.ModalityAudio: {
		StageInitializing: 5,
		StageExtracting:   30,
		StageChunking:     15,
		StageEmbedding:    35,
		StageUpserting:    10,
		StageFinalizing:   5,
	},
	core.ModalityImage: {
		StageInitializing: 10,
		StageExtracting:   25,
		StageChunking:     5,
		StageEmbedding:    45,
		StageUpserting:    10,
		StageFinalizing:   5,
	},
	core.ModalityVideo: {
		StageInitializing: 5,
		StageExtracting:   40,
		StageChunking:     10,
		StageEmbedding:    30,
		StageUpserting:    10,
		StageFinalizing:   5,
	},
}

// StageWeights returns the weight table for a modality.
// The returned table is a copy; callers may not mutate shared state.
func StageWeights(modality core.Modality) WeightTable {
	source, ok := stageWeights[modality]
	if !ok {
		source = stageWeights[core.ModalityText]
	}
	table := make(WeightTable, len(source))
	for stage, weight := range source {
		table[stage] = weight
	}
	return table
}

// QueryStageWeights returns the weight table for query jobs.
// Upserting carries the searching budget.
func QueryStageWeights(withExtract bool) WeightTable {
	if withExtract {
		return WeightTable{
			StageInitializing: 10,
			StageExtracting:   10,
			StageEmbedding:    40,
			StageUpserting:    30,
			StageFinalizing:   10,
		}
	}
	return WeightTable{
		StageInitializing: 10,
		StageEmbedding:    45,
		StageUpserting:    35,
		StageFinalizing:   10,
	}
}
