package service

import (
	"strings"
	"testing"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSplitIntoChunks_EmptyInput(t *testing.T) {
	assert.Nil(t, SplitIntoChunks("", DefaultChunkConfig()))
	assert.Nil(t, SplitIntoChunks("   \n\t  ", DefaultChunkConfig()))
}

func TestSplitIntoChunks_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitIntoChunks("One sentence. Another sentence.", DefaultChunkConfig())

	assert.Equal(t, []string{"One sentence. Another sentence."}, chunks)
}

func TestSplitIntoChunks_SentenceAlignedBoundaries(t *testing.T) {
	cfg := ChunkConfig{MaxTokens: 6, Estimator: domain.CharEstimator{CharsPerToken: 1}}

	// "A." fits alone; "A. B." is 5 chars; adding " C." would make 8 > 6.
	chunks := SplitIntoChunks("A. B. C.", cfg)

	assert.Equal(t, []string{"A. B.", "C."}, chunks)
}

func TestSplitIntoChunks_OversizedSentenceKeptWhole(t *testing.T) {
	cfg := ChunkConfig{MaxTokens: 5, Estimator: domain.CharEstimator{CharsPerToken: 1}}

	// A single sentence over the budget is never split mid-sentence.
	chunks := SplitIntoChunks("this sentence is far too long for the budget.", cfg)

	assert.Equal(t, []string{"this sentence is far too long for the budget."}, chunks)
}

func TestSplitIntoChunks_TrailingFragmentWithoutTerminator(t *testing.T) {
	cfg := ChunkConfig{MaxTokens: 4, Estimator: domain.CharEstimator{CharsPerToken: 1}}

	chunks := SplitIntoChunks("Done. and then", cfg)

	assert.Equal(t, []string{"Done.", "and then"}, chunks)
}

func TestSplitIntoChunks_SwallowsTerminatorRuns(t *testing.T) {
	chunks := SplitIntoChunks("Really... Yes?! Fine.", ChunkConfig{MaxTokens: 3, Estimator: domain.CharEstimator{CharsPerToken: 4}})

	assert.Equal(t, []string{"Really...", "Yes?!", "Fine."}, chunks)
}

func TestSplitIntoChunks_PreservesOrderAndContent(t *testing.T) {
	cfg := ChunkConfig{MaxTokens: 50, Estimator: domain.DefaultEstimator()}

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This is a filler sentence used to force multiple chunks. ")
	}
	chunks := SplitIntoChunks(b.String(), cfg)

	assert.Greater(t, len(chunks), 1)
	rejoined := strings.Join(chunks, " ")
	assert.Equal(t, strings.TrimSpace(b.String()), rejoined)
}

func TestSplitIntoChunks_ZeroConfigUsesDefaults(t *testing.T) {
	chunks := SplitIntoChunks("Hello there.", ChunkConfig{})

	assert.Equal(t, []string{"Hello there."}, chunks)
}
