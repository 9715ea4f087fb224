package sinks

import (
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdfhound/pdfhound/internal/progress"
)

// PrometheusSink exports crawl progress via Prometheus. It owns the
// collectors for page visits, candidate detections, and downloads.
type PrometheusSink struct {
	pagesVisited  prometheus.Counter
	pageDuration  prometheus.Histogram
	candidates    *prometheus.CounterVec
	downloads     prometheus.Counter
	downloadBytes prometheus.Counter
	downloadFails prometheus.Counter
	crawlErrors   prometheus.Counter
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		pagesVisited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfhound_pages_visited_total",
			Help: "Pages fetched and scanned for candidates.",
		}),
		pageDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pdfhound_page_fetch_duration_seconds",
			Help:    "Page fetch latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pdfhound_candidates_total",
			Help: "PDF candidates partitioned by detection layer and confidence tier.",
		}, []string{"layer", "tier"}),
		downloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfhound_downloads_total",
			Help: "PDFs downloaded successfully.",
		}),
		downloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfhound_download_bytes_total",
			Help: "Bytes written to disk for downloaded PDFs.",
		}),
		downloadFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfhound_download_failures_total",
			Help: "Downloads that failed or were skipped for size.",
		}),
		crawlErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pdfhound_crawl_errors_total",
			Help: "Recoverable crawl errors.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		s.pagesVisited,
		s.pageDuration,
		s.candidates,
		s.downloads,
		s.downloadBytes,
		s.downloadFails,
		s.crawlErrors,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		switch evt.Kind {
		case progress.KindPageVisited:
			s.pagesVisited.Inc()
			if evt.Dur > 0 {
				s.pageDuration.Observe(evt.Dur.Seconds())
			}
		case progress.KindCandidateFound:
			s.candidates.WithLabelValues(strconv.Itoa(evt.Layer), evt.Tier).Inc()
		case progress.KindPDFDownloaded:
			s.downloads.Inc()
			if evt.Bytes > 0 {
				s.downloadBytes.Add(float64(evt.Bytes))
			}
		case progress.KindDownloadFailed:
			s.downloadFails.Inc()
		case progress.KindCrawlError:
			s.crawlErrors.Inc()
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
