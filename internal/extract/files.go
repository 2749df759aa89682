package extract

import (
	"context"
	"log"

	"github.com/loreweave/loreweave/internal/domain"
)

// FileDownloader fetches attachment bytes from the chat platform.
// Platform file URLs are access-gated, so the chat client provides this.
type FileDownloader interface {
	DownloadFile(ctx context.Context, url string) ([]byte, error)
}

// Archiver stores raw attachment bytes before extraction. Optional.
type Archiver interface {
	Archive(ctx context.Context, key, contentType string, data []byte) error
}

// fetchFile downloads an attachment and archives the raw bytes when an
// archiver is configured. Archive failures are logged, never fatal.
func fetchFile(ctx context.Context, downloader FileDownloader, archiver Archiver, f domain.File) ([]byte, error) {
	data, err := downloader.DownloadFile(ctx, f.URL)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeExtraction, "downloading file failed", err)
	}

	if archiver != nil {
		key := f.ID + "/" + f.Name
		if err := archiver.Archive(ctx, key, f.MimeType, data); err != nil {
			log.Printf("archiving file %s failed: %v", f.Name, err)
		}
	}

	return data, nil
}
