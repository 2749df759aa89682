package extract

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/service"
)

// PDFExtractor extracts plain text from attached PDF files.
type PDFExtractor struct {
	downloader FileDownloader
	archiver   Archiver
	summarizer Summarizer
	timeout    time.Duration
}

// NewPDFExtractor creates a PDFExtractor. archiver and summarizer may be nil.
func NewPDFExtractor(downloader FileDownloader, archiver Archiver, summarizer Summarizer, timeout time.Duration) *PDFExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PDFExtractor{downloader: downloader, archiver: archiver, summarizer: summarizer, timeout: timeout}
}

// Supports reports whether the MIME type is a PDF.
func (p *PDFExtractor) Supports(mimeType string) bool {
	return mimeType == "application/pdf"
}

// Extract downloads the PDF and returns its plain text.
func (p *PDFExtractor) Extract(ctx context.Context, f domain.File) (*service.ExtractedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := fetchFile(ctx, p.downloader, p.archiver, f)
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "parsing pdf failed", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "extracting pdf text failed", err)
	}

	raw, err := io.ReadAll(textReader)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "reading pdf text failed", err)
	}

	content := strings.TrimSpace(string(raw))
	if content == "" {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "pdf has no extractable text", nil)
	}
	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	summary := ""
	if p.summarizer != nil {
		if s, err := p.summarizer.Summarize(ctx, content); err == nil {
			summary = s
		}
	}

	return &service.ExtractedContent{Content: content, Summary: summary}, nil
}
