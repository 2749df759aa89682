package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/loreweave/loreweave/internal/domain"
	"github.com/loreweave/loreweave/internal/service"
)

// ImageDescriber produces a textual description of an image data URL.
type ImageDescriber interface {
	DescribeImage(ctx context.Context, imageDataURL string) (string, error)
}

// ImageExtractor describes attached images via a vision-capable model.
type ImageExtractor struct {
	downloader FileDownloader
	archiver   Archiver
	describer  ImageDescriber
	timeout    time.Duration
}

// NewImageExtractor creates an ImageExtractor. archiver may be nil.
func NewImageExtractor(downloader FileDownloader, archiver Archiver, describer ImageDescriber, timeout time.Duration) *ImageExtractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ImageExtractor{downloader: downloader, archiver: archiver, describer: describer, timeout: timeout}
}

// Supports reports whether the MIME type is an image.
func (e *ImageExtractor) Supports(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Extract downloads the image and returns the model's description of it.
func (e *ImageExtractor) Extract(ctx context.Context, f domain.File) (*service.ExtractedContent, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := fetchFile(ctx, e.downloader, e.archiver, f)
	if err != nil {
		return nil, err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", f.MimeType, base64.StdEncoding.EncodeToString(data))

	description, err := e.describer.DescribeImage(ctx, dataURL)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "describing image failed", err)
	}

	return &service.ExtractedContent{Content: description}, nil
}
