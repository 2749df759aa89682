package service

import (
	"strings"

	"github.com/loreweave/loreweave/internal/domain"
)

// ChunkConfig controls how documents are split before embedding.
type ChunkConfig struct {
	MaxTokens int
	Estimator domain.TokenEstimator
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxTokens: 1000,
		Estimator: domain.DefaultEstimator(),
	}
}

// SplitIntoChunks splits text into sentence-aligned chunks whose estimated
// token count stays within cfg.MaxTokens. Boundaries are sentence-aligned,
// not token-exact, so a chunk may overrun the budget by at most one
// sentence. Empty or whitespace input produces no chunks. Output order
// follows input order; nothing is re-ordered or deduplicated.
func SplitIntoChunks(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultChunkConfig().MaxTokens
	}
	if cfg.Estimator == nil {
		cfg.Estimator = domain.DefaultEstimator()
	}

	sentences := splitSentences(clean)
	chunks := make([]string, 0, 4)
	var buf strings.Builder

	for _, sentence := range sentences {
		candidate := sentence
		if buf.Len() > 0 {
			candidate = buf.String() + " " + sentence
		}
		if buf.Len() > 0 && cfg.Estimator.EstimateTokens(candidate) > cfg.MaxTokens {
			chunks = append(chunks, buf.String())
			buf.Reset()
			buf.WriteString(sentence)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}

	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// splitSentences breaks text on sentence-terminating punctuation, keeping
// the terminator with its sentence. A trailing fragment without a
// terminator is kept as its own sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Swallow runs of terminators ("...", "?!")
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?') {
				end++
			}
			s := strings.TrimSpace(text[start:end])
			if s != "" {
				sentences = append(sentences, s)
			}
			start = end
			i = end - 1
		}
	}
	if start < len(text) {
		s := strings.TrimSpace(text[start:])
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
