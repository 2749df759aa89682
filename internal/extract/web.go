// Package extract implements the content-extraction collaborators: web
// pages, PDF documents, and images. Every extractor reduces to
// "source in, text out" with a typed failure mode; callers isolate
// failures per item.
package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/service"
)

// Summarizer condenses extracted content. Optional; without one, link
// blocks carry content only.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// maxContentChars bounds extracted page text before summarization and
// storage; the chunker re-bounds it anyway, this just caps transfer size.
const maxContentChars = 40000

// WebExtractor fetches a URL and extracts its readable text.
type WebExtractor struct {
	client     *http.Client
	summarizer Summarizer
	timeout    time.Duration
}

// NewWebExtractor creates a WebExtractor. summarizer may be nil.
func NewWebExtractor(summarizer Summarizer, timeout time.Duration) *WebExtractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WebExtractor{
		client:     &http.Client{Timeout: timeout},
		summarizer: summarizer,
		timeout:    timeout,
	}
}

// Extract fetches the page and returns its readable text plus a summary.
// Access-gated pages surface the permission error so the caller can tell
// the requester how to grant access.
func (w *WebExtractor) Extract(ctx context.Context, pageURL string) (*service.ExtractedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "invalid link", err)
	}
	req.Header.Set("User-Agent", "loreweave-bot/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "fetching link failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePermission, "link requires access",
			fmt.Errorf("GET %s: status %d", pageURL, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "fetching link failed",
			fmt.Errorf("GET %s: status %d", pageURL, resp.StatusCode))
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "invalid link", err)
	}

	content := ""
	article, err := readability.FromReader(resp.Body, parsed)
	if err == nil {
		content = strings.TrimSpace(article.TextContent)
	}
	if content == "" {
		// Readability gives up on some pages; fall back to stripped body text.
		content, err = w.fetchPlainText(ctx, pageURL)
		if err != nil {
			return nil, err
		}
	}
	if content == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "page has no extractable text", nil)
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	summary := ""
	if w.summarizer != nil {
		summary, err = w.summarizer.Summarize(ctx, content)
		if err != nil {
			// Content without a summary is still worth storing.
			summary = ""
		}
	}

	return &service.ExtractedContent{Content: content, Summary: summary}, nil
}

func (w *WebExtractor) fetchPlainText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "invalid link", err)
	}
	req.Header.Set("User-Agent", "loreweave-bot/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "fetching link failed", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "parsing page failed", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Find("body").Text()), " ")), nil
}
