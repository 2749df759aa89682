package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockContextSearcher mocks the store's search side
type MockContextSearcher struct {
	mock.Mock
}

func (m *MockContextSearcher) Search(ctx context.Context, queryText string, limit int, minSimilarity float64, filters SearchFilters) ([]*SearchResult, error) {
	args := m.Called(ctx, queryText, limit, minSimilarity, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*SearchResult), args.Error(1)
}

func fixedNow() time.Time {
	return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
}

func newTestAssembler(searcher ContextSearcher, permalink PermalinkBuilder) *ContextAssembler {
	a := NewContextAssembler(searcher, permalink)
	a.now = fixedNow
	return a
}

func TestContextAssembler_EmptyOnNoResults(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return([]*SearchResult{}, nil)

	assert.Equal(t, "", assembler.GetRelevantContext(ctx, "query", 2000))
}

func TestContextAssembler_DegradesToEmptyOnSearchFailure(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(nil, errors.New("store down"))

	assert.Equal(t, "", assembler.GetRelevantContext(ctx, "query", 2000))
}

func TestContextAssembler_RecencyOverridesSimilarityOrder(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	// Friday's lower-similarity chunk must render before Monday's
	// higher-similarity one.
	results := []*SearchResult{
		{Content: "monday decision", Similarity: 0.95, CreatedAt: fixedNow().AddDate(0, 0, -7)},
		{Content: "friday reversal", Similarity: 0.85, CreatedAt: fixedNow().AddDate(0, 0, -3)},
	}
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(results, nil)

	got := assembler.GetRelevantContext(ctx, "query", 2000)

	fridayPos := strings.Index(got, "friday reversal")
	mondayPos := strings.Index(got, "monday decision")
	assert.GreaterOrEqual(t, fridayPos, 0)
	assert.GreaterOrEqual(t, mondayPos, 0)
	assert.Less(t, fridayPos, mondayPos)
}

func TestContextAssembler_TiedRecencyKeepsSimilarityOrder(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	sameDay := fixedNow().AddDate(0, 0, -2)
	results := []*SearchResult{
		{Content: "stronger match", Similarity: 0.95, CreatedAt: sameDay},
		{Content: "weaker match", Similarity: 0.80, CreatedAt: sameDay},
	}
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(results, nil)

	got := assembler.GetRelevantContext(ctx, "query", 2000)

	assert.Less(t, strings.Index(got, "stronger match"), strings.Index(got, "weaker match"))
}

func TestContextAssembler_StopsAtTokenBudget(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	results := []*SearchResult{
		{Content: strings.Repeat("a", 400), Similarity: 0.9, CreatedAt: fixedNow().AddDate(0, 0, -1)},
		{Content: strings.Repeat("b", 400), Similarity: 0.9, CreatedAt: fixedNow().AddDate(0, 0, -2)},
		{Content: strings.Repeat("c", 400), Similarity: 0.9, CreatedAt: fixedNow().AddDate(0, 0, -3)},
	}
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(results, nil)

	// ~100 tokens per chunk line; a 150-token budget fits exactly one.
	got := assembler.GetRelevantContext(ctx, "query", 150)

	assert.Contains(t, got, "aaa")
	assert.NotContains(t, got, "bbb")
	assert.NotContains(t, got, "ccc")
}

func TestContextAssembler_FormatsProvenance(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	permalink := func(channelID, threadTS string) string {
		return fmt.Sprintf("https://team.slack.com/archives/%s/p%s", channelID, strings.ReplaceAll(threadTS, ".", ""))
	}
	assembler := newTestAssembler(mockSearcher, permalink)

	ctx := context.Background()
	results := []*SearchResult{{
		Content:     "we switched to blue-green deploys",
		SenderName:  "Priya",
		SenderTitle: "Platform Lead",
		ChannelID:   "C123",
		ThreadTS:    "1700000000.000100",
		Similarity:  0.91,
		CreatedAt:   fixedNow().AddDate(0, 0, -3),
	}}
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(results, nil)

	got := assembler.GetRelevantContext(ctx, "query", 2000)

	assert.Equal(t, "Priya (Platform Lead), 3 days ago: we switched to blue-green deploys\nSource: https://team.slack.com/archives/C123/p1700000000000100", got)
}

func TestContextAssembler_AnonymousSenderAndFreshChunk(t *testing.T) {
	mockSearcher := new(MockContextSearcher)
	assembler := newTestAssembler(mockSearcher, nil)

	ctx := context.Background()
	results := []*SearchResult{{
		Content:   "fresh note",
		CreatedAt: fixedNow().Add(-2 * time.Hour),
	}}
	mockSearcher.On("Search", ctx, "query", 10, 0.7, SearchFilters{}).Return(results, nil)

	got := assembler.GetRelevantContext(ctx, "query", 2000)

	assert.Equal(t, "Someone, less than a day ago: fresh note", got)
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "less than a day", formatDays(0))
	assert.Equal(t, "1 day", formatDays(1))
	assert.Equal(t, "14 days", formatDays(14))
}
