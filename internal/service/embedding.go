package service

import (
	"context"

	"github.com/loreweave/loreweave/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Embedder converts text into fixed-dimension vectors, enforcing a maximum
// input size. Oversized input is truncated word-by-word so no word is
// split; the same content always produces the same truncated input.
type Embedder struct {
	client    EmbeddingClient
	estimator domain.TokenEstimator
	maxTokens int
}

// DefaultEmbedMaxTokens caps embedding input at roughly the embedding
// model's context window, with slack for estimation error.
const DefaultEmbedMaxTokens = 8000

// NewEmbedder creates an Embedder with the default token budget.
func NewEmbedder(client EmbeddingClient) *Embedder {
	return NewEmbedderWithBudget(client, DefaultEmbedMaxTokens, domain.DefaultEstimator())
}

// NewEmbedderWithBudget creates an Embedder with an explicit token budget
// and estimator.
func NewEmbedderWithBudget(client EmbeddingClient, maxTokens int, estimator domain.TokenEstimator) *Embedder {
	if maxTokens <= 0 {
		maxTokens = DefaultEmbedMaxTokens
	}
	if estimator == nil {
		estimator = domain.DefaultEstimator()
	}
	return &Embedder{client: client, estimator: estimator, maxTokens: maxTokens}
}

// Embed returns the embedding vector for text. Failures from the external
// embedding capability surface as ErrEmbeddingService; the caller decides
// whether to retry or abort the enclosing operation.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	input := domain.TruncateToTokens(text, e.maxTokens, e.estimator)

	embedding, err := e.client.GenerateEmbedding(ctx, input)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeEmbeddingService, "embedding service failed", err)
	}
	return embedding, nil
}
