package domain

import "strings"

// TokenEstimator approximates how many model tokens a piece of text costs.
// Estimates are heuristic, not exact tokenizer counts; downstream budgets
// must tolerate slack. Implementations must be deterministic.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// CharEstimator estimates roughly one token per CharsPerToken characters.
type CharEstimator struct {
	CharsPerToken int
}

// DefaultEstimator returns the estimator used across chunking, embedding
// and context assembly: ~4 characters per token.
func DefaultEstimator() TokenEstimator {
	return CharEstimator{CharsPerToken: 4}
}

func (e CharEstimator) EstimateTokens(text string) int {
	per := e.CharsPerToken
	if per <= 0 {
		per = 4
	}
	if text == "" {
		return 0
	}
	return (len(text) + per - 1) / per
}

// TruncateToTokens cuts text down to at most maxTokens estimated tokens,
// dropping whole words from the end so no word is split. Returns text
// unchanged when it already fits.
func TruncateToTokens(text string, maxTokens int, est TokenEstimator) string {
	if maxTokens <= 0 || est.EstimateTokens(text) <= maxTokens {
		return text
	}

	words := strings.Fields(text)
	var b strings.Builder
	for _, w := range words {
		candidate := w
		if b.Len() > 0 {
			candidate = b.String() + " " + w
		}
		if est.EstimateTokens(candidate) > maxTokens {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return b.String()
}
