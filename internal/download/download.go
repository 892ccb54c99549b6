// Package download fetches one file's bytes from the remote endpoint and
// writes them to the local documents directory.
package download

import (
	"bytes"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joe/docsync/internal/reconcile"
	syncerrors "github.com/joe/docsync/pkg/errors"
	"github.com/joe/docsync/pkg/formatters"
)

// Exported constants.
const (
	// BufferSize is the chunk size used when reading the response body (32KB)
	BufferSize = 32 * 1024
	// DefaultTimeout bounds every file request
	DefaultTimeout = 30 * time.Second
	// DirPermissions is the mode for created destination directories
	DirPermissions = 0o750
	// FilePermissions is the mode for written document files
	FilePermissions = 0o644
)

// ProgressCallback reports an integer percentage (0-100) for a named file
// after each chunk. It only fires when the response declares its total size.
type ProgressCallback func(name string, percent int)

// Result describes a completed download.
type Result struct {
	Size        int64  // bytes written, re-read from disk
	DisplayName string // derived from the filename
	Date        string // local write date, YYYY-MM-DD
}

// Downloader fetches files sequentially, one call per file.
type Downloader struct {
	Timeout time.Duration
	client  *http.Client
}

// NewDownloader creates a downloader. A zero timeout defaults to
// DefaultTimeout.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Downloader{
		Timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Download fetches the task's source URL, buffers the full body in memory
// while reporting chunk progress, writes it to the destination path
// (creating parent directories as needed), and verifies the write by
// re-reading file metadata from disk.
//
// Exactly one file is created or overwritten per successful call. On
// failure nothing is committed to the cache here; the caller decides how
// to record the outcome.
func (d *Downloader) Download(task reconcile.Task, onProgress ProgressCallback) (*Result, error) {
	resp, err := d.client.Get(task.SourceURL)
	if err != nil {
		return nil, syncerrors.ClassifyTransport(err, task.SourceURL, d.Timeout)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &syncerrors.HTTPStatusError{
			URL:        task.SourceURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := d.readBody(resp, task.Name, onProgress)
	if err != nil {
		return nil, syncerrors.ClassifyTransport(err, task.SourceURL, d.Timeout)
	}

	if err := os.MkdirAll(filepath.Dir(task.DestPath), DirPermissions); err != nil {
		return nil, &syncerrors.WriteVerificationError{Path: task.DestPath, Err: err}
	}

	if err := os.WriteFile(task.DestPath, body, FilePermissions); err != nil {
		return nil, &syncerrors.WriteVerificationError{Path: task.DestPath, Err: err}
	}

	// Confirm the write actually produced a readable file
	info, err := os.Stat(task.DestPath)
	if err != nil {
		return nil, &syncerrors.WriteVerificationError{Path: task.DestPath, Err: err}
	}

	return &Result{
		Size:        info.Size(),
		DisplayName: formatters.TitleFromFilename(task.Name),
		Date:        formatters.LocalDate(info.ModTime()),
	}, nil
}

// readBody reads the response incrementally, firing the progress callback
// after each chunk when the total size is known from the response headers.
func (d *Downloader) readBody(resp *http.Response, name string, onProgress ProgressCallback) ([]byte, error) {
	total := resp.ContentLength

	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, BufferSize)

	var read int64

	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += int64(n)

			if total > 0 && onProgress != nil {
				onProgress(name, percentOf(read, total))
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func percentOf(read, total int64) int {
	percent := int(math.Round(float64(read) / float64(total) * 100))
	if percent > 100 {
		percent = 100
	}

	return percent
}
