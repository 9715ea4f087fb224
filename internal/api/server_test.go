package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pdfhound/pdfhound/internal/crawler"
	"github.com/pdfhound/pdfhound/internal/progress"
	"github.com/pdfhound/pdfhound/internal/progress/sinks"
)

func TestHealthz(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestStatusReportsRunAndStats(t *testing.T) {
	snapshot := sinks.NewSnapshotSink()
	runID := uuid.New()
	require.NoError(t, snapshot.Consume(context.Background(), []progress.Event{
		{RunID: progress.UUIDToBytes(runID), TS: time.Now(), Kind: progress.KindPageVisited, URL: "https://example.com/"},
	}))

	stats := crawler.NewStats()
	srv := NewServer(snapshot, stats, nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Run struct {
			RunID        string `json:"run_id"`
			PagesVisited int64  `json:"pages_visited"`
		} `json:"run"`
		Stats crawler.StatsSnapshot `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, runID.String(), resp.Run.RunID)
	require.Equal(t, int64(1), resp.Run.PagesVisited)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := sinks.NewPrometheusSink(reg)
	require.NoError(t, err)

	srv := NewServer(nil, nil, reg, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pdfhound_pages_visited_total")
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := NewServer(nil, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, "127.0.0.1:0")
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}
}
