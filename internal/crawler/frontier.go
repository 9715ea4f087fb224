package crawler

import (
	"github.com/pdfhound/pdfhound/internal/urlutil"
)

// PageTask is one unit of crawl work. Tasks are immutable once enqueued and
// consumed exactly once by the engine.
type PageTask struct {
	URL    string
	Depth  int
	Parent string
}

// Frontier is a depth-bounded FIFO of page tasks deduplicated against a
// visited set. Insertion into the visited set happens at enqueue time, not at
// fetch time, so a link discovered twice before either copy is processed is
// still fetched only once.
//
// The frontier is owned by the single crawl worker and is not safe for
// concurrent use.
type Frontier struct {
	seedHost string
	maxDepth int
	queue    []PageTask
	visited  map[string]struct{}
}

// NewFrontier builds a frontier restricted to the seed's site. maxDepth <= 0
// means unbounded.
func NewFrontier(seedURL string, maxDepth int) *Frontier {
	return &Frontier{
		seedHost: seedURL,
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
	}
}

// Enqueue adds a task if the URL is new, same-site, and within the depth
// budget. Duplicate, foreign, or out-of-budget URLs are silently ignored;
// those are expected discovery outcomes, not errors. It returns true when a
// task was actually queued.
func (f *Frontier) Enqueue(rawURL string, depth int, parent string) bool {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}
	if !urlutil.SameSite(normalized, f.seedHost) {
		return false
	}
	if _, seen := f.visited[normalized]; seen {
		return false
	}
	// Depth-rejected links still enter the visited set; depth never shrinks
	// on rediscovery, so they stay out of budget for the rest of the run.
	f.visited[normalized] = struct{}{}
	if f.maxDepth > 0 && depth >= f.maxDepth {
		return false
	}
	f.queue = append(f.queue, PageTask{URL: normalized, Depth: depth, Parent: parent})
	return true
}

// EnqueueSeed queues the seed task at depth 0, exempt from the depth budget.
func (f *Frontier) EnqueueSeed(seedURL string) {
	normalized, err := urlutil.Normalize(seedURL)
	if err != nil {
		return
	}
	if _, seen := f.visited[normalized]; seen {
		return
	}
	f.visited[normalized] = struct{}{}
	f.queue = append(f.queue, PageTask{URL: normalized, Depth: 0})
}

// Dequeue pops the next task in FIFO order. ok is false when no pending work
// remains.
func (f *Frontier) Dequeue() (task PageTask, ok bool) {
	if len(f.queue) == 0 {
		return PageTask{}, false
	}
	task = f.queue[0]
	f.queue = f.queue[1:]
	return task, true
}

// Seen reports whether the URL was already scheduled or visited.
func (f *Frontier) Seen(rawURL string) bool {
	normalized, err := urlutil.Normalize(rawURL)
	if err != nil {
		return false
	}
	_, seen := f.visited[normalized]
	return seen
}

// Pending returns the number of queued tasks.
func (f *Frontier) Pending() int { return len(f.queue) }

// Drain discards all queued tasks. Used on cancellation so the run winds down
// without further enqueuing.
func (f *Frontier) Drain() {
	f.queue = nil
}
