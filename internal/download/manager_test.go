package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const pdfBody = "%PDF-1.4 fake content"

func pdfHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Write([]byte(pdfBody))
}

func newManager(t *testing.T, maxBytes int64) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		OutputDir:    t.TempDir(),
		MaxFileBytes: maxBytes,
		VerifyTLS:    true,
	}, nil)
	require.NoError(t, err)
	return m
}

func TestDownloadWritesFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/report.pdf", pdfHandler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, 0)
	item, err := m.Download(context.Background(), srv.URL+"/files/report.pdf")
	require.NoError(t, err)
	require.Equal(t, int64(len(pdfBody)), item.Bytes)
	require.Equal(t, "report.pdf", filepath.Base(item.Path))

	data, err := os.ReadFile(item.Path)
	require.NoError(t, err)
	require.Equal(t, pdfBody, string(data))
	require.Equal(t, 1, m.Count()) // no redirect, requested and final URL collapse
}

func TestDownloadDeduplicatesByURL(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		pdfHandler(w, r)
	}))
	defer srv.Close()

	m := newManager(t, 0)
	_, err := m.Download(context.Background(), srv.URL+"/report.pdf")
	require.NoError(t, err)

	_, err = m.Download(context.Background(), srv.URL+"/report.pdf")
	require.ErrorIs(t, err, ErrDuplicate)
	require.Equal(t, 1, hits)
}

func TestDownloadDeduplicatesByFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/report.pdf", pdfHandler)
	mux.HandleFunc("/share/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/report.pdf", http.StatusFound)
	})
	mux.HandleFunc("/share/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/files/report.pdf", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, 0)
	_, err := m.Download(context.Background(), srv.URL+"/share/a")
	require.NoError(t, err)

	_, err = m.Download(context.Background(), srv.URL+"/share/b")
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestDownloadEnforcesSizeLimitAnnounced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(pdfHandler))
	defer srv.Close()

	m := newManager(t, 4)
	_, err := m.Download(context.Background(), srv.URL+"/big.pdf")
	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	require.Empty(t, pdfFilesIn(t, m.cfg.OutputDir))
}

func TestDownloadEnforcesSizeLimitMidStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Chunked response, no Content-Length to pre-check.
		w.Header().Set("Content-Type", "application/pdf")
		flusher := w.(http.Flusher)
		for i := 0; i < 8; i++ {
			w.Write([]byte(strings.Repeat("x", 1024)))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	m := newManager(t, 2048)
	_, err := m.Download(context.Background(), srv.URL+"/huge.pdf")
	var sizeErr *SizeExceededError
	require.ErrorAs(t, err, &sizeErr)
	require.Empty(t, pdfFilesIn(t, m.cfg.OutputDir))
	require.Zero(t, m.Count())
}

func TestDownloadCollisionSuffix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a/report.pdf", pdfHandler)
	mux.HandleFunc("/b/report.pdf", pdfHandler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := newManager(t, 0)
	first, err := m.Download(context.Background(), srv.URL+"/a/report.pdf")
	require.NoError(t, err)
	second, err := m.Download(context.Background(), srv.URL+"/b/report.pdf")
	require.NoError(t, err)

	require.Equal(t, "report.pdf", filepath.Base(first.Path))
	require.Equal(t, "report-1.pdf", filepath.Base(second.Path))
}

func TestDownloadFilenameFromDisposition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="Q3 Report (final).pdf"`)
		w.Write([]byte(pdfBody))
	}))
	defer srv.Close()

	m := newManager(t, 0)
	item, err := m.Download(context.Background(), srv.URL+"/export?id=7")
	require.NoError(t, err)
	require.Equal(t, "Q3_Report_final_.pdf", filepath.Base(item.Path))
}

func TestDownloadEnforcesPDFExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(pdfHandler))
	defer srv.Close()

	m := newManager(t, 0)
	item, err := m.Download(context.Background(), srv.URL+"/document")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(item.Path, ".pdf"))
}

func TestDownloadHTTPErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	m := newManager(t, 0)
	_, err := m.Download(context.Background(), srv.URL+"/denied.pdf")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrDuplicate))
	require.Empty(t, pdfFilesIn(t, m.cfg.OutputDir))
}

func pdfFilesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
