package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/pdfhound/pdfhound/internal/progress"
)

// RunSnapshot is a point-in-time aggregate of one crawl run, served by the
// status API while the crawl is live.
type RunSnapshot struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	FinishedAt     time.Time `json:"finished_at,omitempty"`
	PagesVisited   int64     `json:"pages_visited"`
	Candidates     int64     `json:"candidates"`
	Downloads      int64     `json:"downloads"`
	DownloadBytes  int64     `json:"download_bytes"`
	FailedDownload int64     `json:"failed_downloads"`
	Errors         int64     `json:"errors"`
	LastURL        string    `json:"last_url,omitempty"`
	Done           bool      `json:"done"`
}

// SnapshotSink folds the event stream into an in-memory RunSnapshot.
type SnapshotSink struct {
	mu   sync.RWMutex
	snap RunSnapshot
}

// NewSnapshotSink returns an empty SnapshotSink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{}
}

// Consume folds the batch into the aggregate.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		s.snap.RunID = evt.RunUUID().String()
		switch evt.Kind {
		case progress.KindRunStarted:
			s.snap.StartedAt = evt.TS
		case progress.KindPageVisited:
			s.snap.PagesVisited++
			s.snap.LastURL = evt.URL
		case progress.KindCandidateFound:
			s.snap.Candidates++
		case progress.KindPDFDownloaded:
			s.snap.Downloads++
			s.snap.DownloadBytes += evt.Bytes
		case progress.KindDownloadFailed:
			s.snap.FailedDownload++
		case progress.KindCrawlError:
			s.snap.Errors++
		case progress.KindRunDone:
			s.snap.FinishedAt = evt.TS
			s.snap.Done = true
		}
	}
	return nil
}

// Snapshot returns a copy of the current aggregate.
func (s *SnapshotSink) Snapshot() RunSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
