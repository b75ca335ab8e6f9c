package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/schollz/progressbar/v3"
)

type Downloader struct {
	client   *retryablehttp.Client
	progress io.Writer
}

// New returns a downloader retrying failed requests up to retries times and
// drawing its progress bar on progress (nil disables the bar).
func New(retries int, progress io.Writer) *Downloader {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil

	return &Downloader{
		client:   client,
		progress: progress,
	}
}

type DownloadResult struct {
	FilePath string
	// Checksum is the hex sha256 of the downloaded bytes.
	Checksum string
}

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Download stores rawURL as destDir/filename. The file only appears under its
// final name once fully written and, if wantSum is set, verified.
func (d *Downloader) Download(ctx context.Context, rawURL, destDir, filename, wantSum string) (*DownloadResult, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	part, err := os.CreateTemp(destDir, "."+filename+".part-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create download file: %w", err)
	}
	defer os.Remove(part.Name())
	defer part.Close()

	sum := sha256.New()
	var body io.Reader = io.TeeReader(resp.Body, sum)
	if d.progress != nil {
		bar := newBar(resp.ContentLength, filename, d.progress)
		body = io.TeeReader(body, bar)
	}
	if _, err := io.Copy(part, body); err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", rawURL, err)
	}
	if err := part.Close(); err != nil {
		return nil, fmt.Errorf("failed to write download file: %w", err)
	}

	got := hex.EncodeToString(sum.Sum(nil))
	if wantSum != "" && got != wantSum {
		return nil, fmt.Errorf("checksum mismatch for %s: expected %s, got %s", rawURL, wantSum, got)
	}

	destPath := filepath.Join(destDir, filename)
	if err := os.Rename(part.Name(), destPath); err != nil {
		return nil, fmt.Errorf("failed to move download into place: %w", err)
	}
	return &DownloadResult{FilePath: destPath, Checksum: got}, nil
}

func newBar(size int64, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
