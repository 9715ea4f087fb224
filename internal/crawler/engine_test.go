package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdfhound/pdfhound/internal/detector"
	"github.com/pdfhound/pdfhound/internal/download"
	"github.com/pdfhound/pdfhound/internal/fetcher"
	"github.com/pdfhound/pdfhound/internal/policy"
	"github.com/pdfhound/pdfhound/internal/policy/ratelimit"
	"github.com/pdfhound/pdfhound/internal/verifier"
)

func servePage(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}
}

func servePDF(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte(body))
	}
}

func newEngine(t *testing.T, seedURL string, maxDepth int, respectRobots bool, mode detector.Mode) *Engine {
	t.Helper()
	f := fetcher.New(fetcher.Config{VerifyTLS: true}, nil)
	dl, err := download.NewManager(download.Config{OutputDir: t.TempDir(), VerifyTLS: true}, nil)
	require.NoError(t, err)
	gate := policy.NewGate(
		policy.NewRobots(respectRobots, "pdfhound", nil),
		ratelimit.New(ratelimit.Config{}),
		nil,
	)
	eng, err := New(
		Config{SeedURL: seedURL, MaxDepth: maxDepth, Mode: mode},
		f,
		detector.NewPipeline(mode, nil),
		verifier.New(f, mode, nil),
		dl,
		gate,
		nil,
		nil,
	)
	require.NoError(t, err)
	return eng
}

func TestRunCrawlsSiteAndDownloadsPDFs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`
		<a href="/files/report.pdf">Report</a>
		<a href="/sub">More pages</a>`))
	mux.HandleFunc("/sub", servePage(`<a href="/export?format=pdf">Get the report</a>`))
	mux.HandleFunc("/files/report.pdf", servePDF("%PDF-1.4 one"))
	mux.HandleFunc("/export", servePDF("%PDF-1.4 two"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(2), summary.Stats.PagesCrawled)
	require.Equal(t, int64(2), summary.Stats.PdfsFound)
	require.Equal(t, int64(2), summary.Stats.PdfsDownloaded)
	require.Len(t, summary.Downloads, 2)
	require.Empty(t, summary.Failures)
	require.NotEmpty(t, summary.RunID)
}

func TestRunDepthOneFetchesSeedOnly(t *testing.T) {
	var subHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`
		<a href="/files/report.pdf">Report</a>
		<a href="/sub">More</a>`))
	mux.HandleFunc("/sub", func(w http.ResponseWriter, r *http.Request) {
		subHits.Add(1)
		servePage(`<a href="/other">x</a>`)(w, r)
	})
	mux.HandleFunc("/files/report.pdf", servePDF("%PDF-1.4"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 1, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), summary.Stats.PagesCrawled)
	require.Zero(t, subHits.Load())
	// The link was still recorded as discovered even though it was never
	// fetched: seed plus one page link.
	require.Equal(t, int64(2), summary.Stats.PagesDiscovered)
	// Candidates on the seed page are processed regardless of depth.
	require.Equal(t, int64(1), summary.Stats.PdfsDownloaded)
}

func TestRunVisitsSharedLinkOnce(t *testing.T) {
	var sharedHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`<a href="/a">a</a><a href="/b">b</a>`))
	mux.HandleFunc("/a", servePage(`<a href="/shared">shared</a>`))
	mux.HandleFunc("/b", servePage(`<a href="/shared">shared</a>`))
	mux.HandleFunc("/shared", func(w http.ResponseWriter, r *http.Request) {
		sharedHits.Add(1)
		servePage("")(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	_, err := eng.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), sharedHits.Load())
}

func TestRunRespectsRobots(t *testing.T) {
	var privateHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	})
	mux.HandleFunc("/", servePage(`<a href="/private/page">secret stuff</a><a href="/open">open</a>`))
	mux.HandleFunc("/open", servePage(""))
	mux.HandleFunc("/private/page", func(w http.ResponseWriter, r *http.Request) {
		privateHits.Add(1)
		servePage("")(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, true, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Zero(t, privateHits.Load())
	require.Equal(t, int64(1), summary.Stats.Skips)
	require.Equal(t, int64(2), summary.Stats.PagesCrawled)
}

func TestRunSkipsHTTPErrorPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`<a href="/gone">missing page</a>`))
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	// A 404 on a page fetch is a skip; errors are reserved for transport
	// faults.
	require.Equal(t, int64(1), summary.Stats.Skips)
	require.Zero(t, summary.Stats.Errors)
	require.Equal(t, int64(1), summary.Stats.PagesCrawled)
}

func TestRunDiscoveredCountsDepthRejectedLinkOnce(t *testing.T) {
	// Both /a and /b link to /deep, which is out of budget at depth 2. The
	// second sighting must not bump pages_discovered again.
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`<a href="/a">a</a><a href="/b">b</a>`))
	mux.HandleFunc("/a", servePage(`<a href="/deep">deep</a>`))
	mux.HandleFunc("/b", servePage(`<a href="/deep">deep</a>`))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 2, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	// Seed, /a, /b, and /deep exactly once.
	require.Equal(t, int64(4), summary.Stats.PagesDiscovered)
	require.Equal(t, int64(3), summary.Stats.PagesCrawled)
}

func TestRunStrictModeProbesEmbeddedCandidates(t *testing.T) {
	// The embedded viewer points at a URL that serves HTML. Strict mode
	// probes it and rejects; conservative mode trusts the embed and saves a
	// fake PDF.
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`<embed src="/viewer/doc.pdf" type="application/pdf">`))
	mux.HandleFunc("/viewer/doc.pdf", servePage("<html>viewer shell</html>"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	strict := newEngine(t, srv.URL, 0, false, detector.ModeStrict)
	summary, err := strict.Run(context.Background())
	require.NoError(t, err)

	require.Zero(t, summary.Stats.PdfsFound)
	require.Zero(t, summary.Stats.PdfsDownloaded)
}

func TestRunRejectedCandidateNotCounted(t *testing.T) {
	mux := http.NewServeMux()
	// The link looks like a PDF but the server serves HTML.
	mux.HandleFunc("/", servePage(`<a href="/fake.pdf">Report</a>`))
	mux.HandleFunc("/fake.pdf", servePage("<html>not a pdf</html>"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Zero(t, summary.Stats.PdfsFound)
	require.Zero(t, summary.Stats.PdfsDownloaded)
	require.Equal(t, int64(1), summary.Stats.Skips)
}

func TestRunKeywordCandidateRecrawledAsPage(t *testing.T) {
	// "Document library" trips the text-keyword layer, but the target is an
	// ordinary page. After rejection it re-enters the frontier and its links
	// are still crawled.
	mux := http.NewServeMux()
	mux.HandleFunc("/", servePage(`<a href="/library">Document library</a>`))
	mux.HandleFunc("/library", servePage(`<a href="/files/real.pdf">Report</a>`))
	mux.HandleFunc("/files/real.pdf", servePDF("%PDF-1.4 real"))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(2), summary.Stats.PagesCrawled)
	require.Equal(t, int64(1), summary.Stats.PdfsDownloaded)
}

func TestRunSeedPointingAtPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(servePDF("%PDF-1.4 direct")))
	defer srv.Close()

	eng := newEngine(t, srv.URL+"/report.pdf", 0, false, detector.ModeConservative)
	summary, err := eng.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, int64(1), summary.Stats.PdfsFound)
	require.Equal(t, int64(1), summary.Stats.PdfsDownloaded)
}

func TestRunCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(servePage(`<a href="/next">next</a>`)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := newEngine(t, srv.URL, 0, false, detector.ModeConservative)
	summary, err := eng.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, summary.Stats.PagesCrawled)
}
