package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/telemetry"
)

// ContextSearcher is the read-side store interface the assembler needs.
type ContextSearcher interface {
	Search(ctx context.Context, queryText string, limit int, minSimilarity float64, filters SearchFilters) ([]*SearchResult, error)
}

// PermalinkBuilder reconstructs a link back to the original conversation.
// May be nil, in which case no link is rendered.
type PermalinkBuilder func(channelID, threadTS string) string

// ContextConfig controls retrieval for context assembly. The threshold and
// candidate pool are empirically tuned and configurable.
type ContextConfig struct {
	CandidateLimit int
	MinSimilarity  float64
}

// DefaultContextConfig returns the default assembly configuration.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		CandidateLimit: 10,
		MinSimilarity:  0.7,
	}
}

// ContextAssembler turns a query into a bounded, provenance-annotated
// context block for a downstream generative call.
type ContextAssembler struct {
	store     ContextSearcher
	cfg       ContextConfig
	estimator domain.TokenEstimator
	permalink PermalinkBuilder
	now       func() time.Time
}

// NewContextAssembler creates an assembler with default configuration.
func NewContextAssembler(store ContextSearcher, permalink PermalinkBuilder) *ContextAssembler {
	return NewContextAssemblerWithConfig(store, permalink, DefaultContextConfig())
}

// NewContextAssemblerWithConfig creates an assembler with explicit
// configuration.
func NewContextAssemblerWithConfig(store ContextSearcher, permalink PermalinkBuilder, cfg ContextConfig) *ContextAssembler {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultContextConfig().CandidateLimit
	}
	return &ContextAssembler{
		store:     store,
		cfg:       cfg,
		estimator: domain.DefaultEstimator(),
		permalink: permalink,
		now:       time.Now,
	}
}

// GetRelevantContext retrieves similar historical chunks, re-ranks them by
// recency, and renders as much provenance-annotated context as fits the
// token budget. Fresher information is preferentially surfaced even among
// similarly-relevant chunks, so recency is a hard sort key after
// retrieval, not a score adjustment. Retrieval failure degrades to empty
// context rather than failing the caller's reply.
func (a *ContextAssembler) GetRelevantContext(ctx context.Context, queryText string, maxTokens int) string {
	results, err := a.store.Search(ctx, queryText, a.cfg.CandidateLimit, a.cfg.MinSimilarity, SearchFilters{})
	if err != nil {
		log.Printf("context assembly degraded to empty: %v", err)
		telemetry.CaptureError(ctx, err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	var lines []string
	used := 0
	for _, r := range results {
		line := a.formatChunk(r)
		cost := a.estimator.EstimateTokens(line)
		// Greedy prefix fill: once a chunk does not fit, stop entirely
		// rather than searching for a smaller one later in the list.
		if used+cost > maxTokens {
			break
		}
		used += cost
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n\n")
}

func (a *ContextAssembler) formatChunk(r *SearchResult) string {
	sender := r.SenderName
	if sender == "" {
		sender = "Someone"
	}
	if r.SenderTitle != "" {
		sender = fmt.Sprintf("%s (%s)", sender, r.SenderTitle)
	}

	age := int(a.now().UTC().Sub(r.CreatedAt).Hours() / 24)
	if age < 0 {
		age = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s, %s ago: %s", sender, formatDays(age), r.Content)
	if a.permalink != nil {
		if link := a.permalink(r.ChannelID, r.ThreadTS); link != "" {
			fmt.Fprintf(&b, "\nSource: %s", link)
		}
	}
	return b.String()
}

func formatDays(days int) string {
	if days == 0 {
		return "less than a day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
