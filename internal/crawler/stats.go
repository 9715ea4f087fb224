package crawler

import "sync/atomic"

// Stats tracks run counters. All counters are monotonically non-decreasing
// for the lifetime of a run. The engine owns the writes; consumers read via
// Snapshot, so the stats can be polled from another goroutine (e.g. a status
// endpoint) while the crawl is running.
type Stats struct {
	pagesDiscovered atomic.Int64
	pagesCrawled    atomic.Int64
	pdfsFound       atomic.Int64
	pdfsDownloaded  atomic.Int64
	skips           atomic.Int64
	errors          atomic.Int64
}

// NewStats returns zeroed counters.
func NewStats() *Stats { return &Stats{} }

// StatsSnapshot is a point-in-time read of the run counters.
type StatsSnapshot struct {
	PagesDiscovered int64 `json:"pages_discovered"`
	PagesCrawled    int64 `json:"pages_crawled"`
	PdfsFound       int64 `json:"pdfs_found"`
	PdfsDownloaded  int64 `json:"pdfs_downloaded"`
	Skips           int64 `json:"skips"`
	Errors          int64 `json:"errors"`
}

func (s *Stats) addDiscovered(n int64) { s.pagesDiscovered.Add(n) }
func (s *Stats) addCrawled()           { s.pagesCrawled.Add(1) }
func (s *Stats) addPdfFound()          { s.pdfsFound.Add(1) }
func (s *Stats) addPdfDownloaded()     { s.pdfsDownloaded.Add(1) }
func (s *Stats) addSkip()              { s.skips.Add(1) }
func (s *Stats) addError()             { s.errors.Add(1) }

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		PagesDiscovered: s.pagesDiscovered.Load(),
		PagesCrawled:    s.pagesCrawled.Load(),
		PdfsFound:       s.pdfsFound.Load(),
		PdfsDownloaded:  s.pdfsDownloaded.Load(),
		Skips:           s.skips.Load(),
		Errors:          s.errors.Load(),
	}
}
