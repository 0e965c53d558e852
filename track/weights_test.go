package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltash/vectorize/core"
)

func TestStageWeights(t *testing.T) {
	for _, modality := range core.Modalities {
		t.Run(string(modality), func(t *testing.T) {
			weights := StageWeights(modality)
			assert.Equal(t, 100, weights.Sum(), "weights must sum to 100")

			// Every stage of the sequence must carry a weight.
			for _, stage := range StageSequence(modality) {
				weight, ok := weights[stage]
				require.True(t, ok, "stage %s has no weight", stage)
				assert.Greater(t, weight, 0)
			}
		})
	}

	t.Run("unknown modality falls back to text", func(t *testing.T) {
		assert.Equal(t, StageWeights(core.ModalityText), StageWeights(core.Modality("unknown")))
	})

	t.Run("returned table is a copy", func(t *testing.T) {
		weights := StageWeights(core.ModalityText)
		weights[StageEmbedding] = 0
		assert.Equal(t, 100, StageWeights(core.ModalityText).Sum())
	})
}

func TestQueryStageWeights(t *testing.T) {
	for _, withExtract := range []bool{true, false} {
		weights := QueryStageWeights(withExtract)
		assert.Equal(t, 100, weights.Sum())

		for _, stage := range QueryStageSequence(withExtract) {
			_, ok := weights[stage]
			require.True(t, ok, "stage %s has no weight (withExtract=%v)", stage, withExtract)
		}
	}
}

func TestStageSequence(t *testing.T) {
	t.Run("sanitizing only for text", func(t *testing.T) {
		assert.Contains(t, StageSequence(core.ModalityText), StageSanitizing)
		assert.NotContains(t, StageSequence(core.ModalityAudio), StageSanitizing)
		assert.NotContains(t, StageSequence(core.ModalityImage), StageSanitizing)
		assert.NotContains(t, StageSequence(core.ModalityVideo), StageSanitizing)
	})

	t.Run("all sequences start and end identically", func(t *testing.T) {
		for _, modality := range core.Modalities {
			sequence := StageSequence(modality)
			assert.Equal(t, StageInitializing, sequence[0])
			assert.Equal(t, StageFinalizing, sequence[len(sequence)-1])
		}
	})
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusError.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}
