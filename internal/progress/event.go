// Package progress defines the event stream emitted by the crawl engine and
// the hub that fans it out to consumers.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind denotes the milestone an Event represents.
type Kind string

// Supported event kinds.
const (
	KindRunStarted     Kind = "RUN_STARTED"
	KindPageVisited    Kind = "PAGE_VISITED"
	KindCandidateFound Kind = "CANDIDATE_FOUND"
	KindPDFDownloaded  Kind = "PDF_DOWNLOADED"
	KindDownloadFailed Kind = "DOWNLOAD_FAILED"
	KindCrawlError     Kind = "CRAWL_ERROR"
	KindRunDone        Kind = "RUN_DONE"
)

// Event captures a single crawl milestone.
type Event struct {
	// RunID uniquely identifies a crawl run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Kind denotes which milestone occurred.
	Kind Kind
	// URL is the subject of the event: the visited page, the candidate, or
	// the downloaded file.
	URL string
	// Page is the page the candidate was discovered on, for candidate and
	// download events.
	Page string
	// Layer is the detection layer number for candidate events.
	Layer int
	// Tier is the detection confidence for candidate events.
	Tier string
	// Bytes carries the file size for download events and the page size for
	// visit events.
	Bytes int64
	// Dur captures fetch or download latency.
	Dur time.Duration
	// Note attaches low-volume context, typically error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Kind {
	case KindRunStarted, KindRunDone, KindCrawlError:
	case KindPageVisited, KindDownloadFailed:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Kind)
		}
	case KindCandidateFound:
		if e.URL == "" {
			return errors.New("candidate event requires url")
		}
		if e.Tier == "" {
			return errors.New("candidate event requires tier")
		}
	case KindPDFDownloaded:
		if e.URL == "" {
			return errors.New("download event requires url")
		}
	default:
		return fmt.Errorf("unknown kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
