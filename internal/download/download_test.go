package download_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/internal/download"
	"github.com/joe/docsync/internal/reconcile"
	syncerrors "github.com/joe/docsync/pkg/errors"
)

func task(url, dest string) reconcile.Task {
	return reconcile.Task{
		Category:  cache.CategoryGCF,
		Name:      "testing.pdf",
		Size:      18810,
		Modified:  "2025-12-27T17:53:00Z",
		SourceURL: url,
		DestPath:  dest,
		RelPath:   "gcf/testing.pdf",
		Reason:    reconcile.ReasonNew,
	}
}

func TestDownload_WritesFileAndReportsProgress(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	body := bytes.Repeat([]byte("x"), 100*1024) // several 32KB chunks
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "gcf", "testing.pdf")
	downloader := download.NewDownloader(5 * time.Second)

	var progress []int
	result, err := downloader.Download(task(server.URL, dest), func(name string, percent int) {
		g.Expect(name).To(Equal("testing.pdf"))
		progress = append(progress, percent)
	})

	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(result.Size).To(Equal(int64(len(body))))
	g.Expect(result.DisplayName).To(Equal("Testing"))
	g.Expect(result.Date).To(Equal(time.Now().Format("2006-01-02")))

	written, err := os.ReadFile(dest)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(written).To(Equal(body))

	// Integer percentages, monotonic, ending at 100
	g.Expect(progress).ToNot(BeEmpty())
	g.Expect(progress[len(progress)-1]).To(Equal(100))
	for i := 1; i < len(progress); i++ {
		g.Expect(progress[i]).To(BeNumerically(">=", progress[i-1]))
	}
	for _, percent := range progress {
		g.Expect(percent).To(And(BeNumerically(">=", 0), BeNumerically("<=", 100)))
	}
}

func TestDownload_NoProgressWhenTotalSizeUnknown(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}

		// Flushing before returning forces chunked encoding, so the client
		// never learns the total size
		_, _ = w.Write([]byte("partial"))
		flusher.Flush()
		_, _ = w.Write([]byte(" content"))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "gcf", "testing.pdf")
	downloader := download.NewDownloader(5 * time.Second)

	calls := 0
	result, err := downloader.Download(task(server.URL, dest), func(string, int) {
		calls++
	})

	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(calls).To(BeZero())
	g.Expect(result.Size).To(Equal(int64(len("partial content"))))
}

func TestDownload_OverwritesExistingFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("new contents"))
	}))
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "gcf", "testing.pdf")
	g.Expect(os.MkdirAll(filepath.Dir(dest), 0o750)).To(Succeed())
	g.Expect(os.WriteFile(dest, []byte("old contents"), 0o644)).To(Succeed())

	downloader := download.NewDownloader(5 * time.Second)

	_, err := downloader.Download(task(server.URL, dest), nil)
	g.Expect(err).ShouldNot(HaveOccurred())

	written, err := os.ReadFile(dest)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(string(written)).To(Equal("new contents"))
}

func TestDownload_HTTPStatusError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	dest := filepath.Join(t.TempDir(), "gcf", "testing.pdf")
	downloader := download.NewDownloader(5 * time.Second)

	_, err := downloader.Download(task(server.URL, dest), nil)

	var statusErr *syncerrors.HTTPStatusError
	g.Expect(errors.As(err, &statusErr)).To(BeTrue())
	g.Expect(statusErr.StatusCode).To(Equal(http.StatusNotFound))

	// Nothing written on failure
	_, statErr := os.Stat(dest)
	g.Expect(os.IsNotExist(statErr)).To(BeTrue())
}

func TestDownload_NetworkError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	dest := filepath.Join(t.TempDir(), "gcf", "testing.pdf")
	downloader := download.NewDownloader(5 * time.Second)

	_, err := downloader.Download(task(server.URL, dest), nil)

	var netErr *syncerrors.NetworkError
	g.Expect(errors.As(err, &netErr)).To(BeTrue())
}

func TestDownload_CreatesParentDirectories(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pdf bytes"))
	}))
	t.Cleanup(server.Close)

	// Neither <root> nor <root>/policy exists yet
	dest := filepath.Join(t.TempDir(), "library", "policy", "conduct.pdf")
	downloader := download.NewDownloader(5 * time.Second)

	_, err := downloader.Download(task(server.URL, dest), nil)
	g.Expect(err).ShouldNot(HaveOccurred())

	info, err := os.Stat(dest)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(info.Size()).To(Equal(int64(len("pdf bytes"))))
}
