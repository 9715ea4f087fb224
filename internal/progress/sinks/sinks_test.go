package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pdfhound/pdfhound/internal/progress"
)

func runBatch(runID uuid.UUID) []progress.Event {
	id := progress.UUIDToBytes(runID)
	now := time.Now().UTC()
	return []progress.Event{
		{RunID: id, TS: now, Kind: progress.KindRunStarted},
		{RunID: id, TS: now, Kind: progress.KindPageVisited, URL: "https://example.com/", Dur: 120 * time.Millisecond},
		{RunID: id, TS: now, Kind: progress.KindCandidateFound, URL: "https://example.com/a.pdf", Layer: 1, Tier: "high"},
		{RunID: id, TS: now, Kind: progress.KindCandidateFound, URL: "https://example.com/b", Layer: 5, Tier: "medium"},
		{RunID: id, TS: now, Kind: progress.KindPDFDownloaded, URL: "https://example.com/a.pdf", Bytes: 2048},
		{RunID: id, TS: now, Kind: progress.KindDownloadFailed, URL: "https://example.com/b", Note: "size limit"},
		{RunID: id, TS: now, Kind: progress.KindRunDone},
	}
}

func TestPrometheusSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheusSink(reg)
	require.NoError(t, err)

	require.NoError(t, sink.Consume(context.Background(), runBatch(uuid.New())))

	require.Equal(t, float64(1), testutil.ToFloat64(sink.pagesVisited))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.candidates.WithLabelValues("1", "high")))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.candidates.WithLabelValues("5", "medium")))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.downloads))
	require.Equal(t, float64(2048), testutil.ToFloat64(sink.downloadBytes))
	require.Equal(t, float64(1), testutil.ToFloat64(sink.downloadFails))
}

func TestPrometheusSinkDoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusSink(reg)
	require.NoError(t, err)
	_, err = NewPrometheusSink(reg)
	require.Error(t, err)
}

func TestSnapshotSinkAggregates(t *testing.T) {
	sink := NewSnapshotSink()
	runID := uuid.New()
	require.NoError(t, sink.Consume(context.Background(), runBatch(runID)))

	snap := sink.Snapshot()
	require.Equal(t, runID.String(), snap.RunID)
	require.Equal(t, int64(1), snap.PagesVisited)
	require.Equal(t, int64(2), snap.Candidates)
	require.Equal(t, int64(1), snap.Downloads)
	require.Equal(t, int64(2048), snap.DownloadBytes)
	require.Equal(t, int64(1), snap.FailedDownload)
	require.True(t, snap.Done)
	require.Equal(t, "https://example.com/", snap.LastURL)
}

func TestLogSinkIsSafeWithNilLogger(t *testing.T) {
	sink := NewLogSink(nil)
	require.NoError(t, sink.Consume(context.Background(), runBatch(uuid.New())))
	require.NoError(t, sink.Close(context.Background()))
}
