package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrontierFIFOOrder(t *testing.T) {
	f := NewFrontier("https://example.com/", 0)
	require.True(t, f.Enqueue("https://example.com/a", 1, "https://example.com/"))
	require.True(t, f.Enqueue("https://example.com/b", 1, "https://example.com/"))

	task, ok := f.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", task.URL)

	task, ok = f.Dequeue()
	require.True(t, ok)
	require.Equal(t, "https://example.com/b", task.URL)

	_, ok = f.Dequeue()
	require.False(t, ok)
}

func TestFrontierDeduplicatesAtEnqueue(t *testing.T) {
	f := NewFrontier("https://example.com/", 0)
	require.True(t, f.Enqueue("https://example.com/page", 1, ""))
	// Same URL modulo normalization: fragment and default port.
	require.False(t, f.Enqueue("https://example.com:443/page#top", 1, ""))
	require.Equal(t, 1, f.Pending())
}

func TestFrontierRejectsForeignSites(t *testing.T) {
	f := NewFrontier("https://example.com/", 0)
	require.False(t, f.Enqueue("https://elsewhere.org/page", 1, ""))
	require.True(t, f.Enqueue("https://docs.example.com/page", 1, "")) // subdomain allowed
}

func TestFrontierDepthBudget(t *testing.T) {
	f := NewFrontier("https://example.com/", 2)
	require.True(t, f.Enqueue("https://example.com/d1", 1, ""))
	require.False(t, f.Enqueue("https://example.com/d2", 2, ""))

	unbounded := NewFrontier("https://example.com/", 0)
	require.True(t, unbounded.Enqueue("https://example.com/deep", 99, ""))
}

func TestFrontierDepthRejectedLinkMarkedSeen(t *testing.T) {
	f := NewFrontier("https://example.com/", 2)
	require.False(t, f.Enqueue("https://example.com/deep", 2, ""))
	// The link stays seen so rediscovery from another page is not treated as
	// a fresh find.
	require.True(t, f.Seen("https://example.com/deep"))
	require.False(t, f.Enqueue("https://example.com/deep", 2, ""))
	require.Zero(t, f.Pending())
}

func TestFrontierSeedBypassesDepth(t *testing.T) {
	f := NewFrontier("https://example.com/", 1)
	f.EnqueueSeed("https://example.com/")

	task, ok := f.Dequeue()
	require.True(t, ok)
	require.Equal(t, 0, task.Depth)

	// Depth 1 links are out of budget when MaxDepth is 1.
	require.False(t, f.Enqueue("https://example.com/next", 1, task.URL))
}

func TestFrontierDrain(t *testing.T) {
	f := NewFrontier("https://example.com/", 0)
	f.Enqueue("https://example.com/a", 1, "")
	f.Enqueue("https://example.com/b", 1, "")
	f.Drain()
	require.Zero(t, f.Pending())
	require.True(t, f.Seen("https://example.com/a"))
}
