package updater

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// downloadChunkSize bounds memory use while streaming a response body to
// disk, regardless of artifact size.
const downloadChunkSize = 32 * 1024

// ProgressCallback is called during download with progress info.
type ProgressCallback func(downloaded, total int64)

// Downloader performs blocking HTTP GETs that stream the response body to a
// local file. A failed transfer may leave a partial file at the destination;
// callers must not assume atomicity.
type Downloader struct {
	httpClient *http.Client
	retries    int
}

// NewDownloader creates a Downloader with the given per-request timeout and
// retry count.
func NewDownloader(timeout time.Duration, retries int) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: retries,
	}
}

// Download fetches url into destPath, reporting progress if a callback is
// provided. Each retry restarts the transfer from scratch, truncating the
// destination.
func (d *Downloader) Download(ctx context.Context, url, destPath string, progress ProgressCallback) error {
	var lastErr error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
		if lastErr = d.downloadOnce(ctx, url, destPath, progress); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string, progress ProgressCallback) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Ratatosk-Updater/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer out.Close()

	var reader io.Reader = resp.Body
	if progress != nil {
		reader = &progressReader{
			reader:   resp.Body,
			total:    resp.ContentLength,
			callback: progress,
		}
	}

	// Fixed-size chunks; a failure here leaves destPath partial.
	buf := make([]byte, downloadChunkSize)
	if _, err := io.CopyBuffer(out, reader, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	return out.Close()
}

// progressReader wraps an io.Reader to report progress.
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
