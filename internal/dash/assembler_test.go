package dash_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"orfondl/internal/dash"
	"orfondl/internal/metrics"
	"orfondl/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segmentServer serves fixed bodies by path and records every requested path.
type segmentServer struct {
	mu        sync.Mutex
	bodies    map[string][]byte
	delays    map[string]time.Duration
	failing   map[string]int
	requested []string
}

func (s *segmentServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requested = append(s.requested, r.URL.Path)
	body, ok := s.bodies[r.URL.Path]
	delay := s.delays[r.URL.Path]
	status := s.failing[r.URL.Path]
	s.mu.Unlock()

	time.Sleep(delay)
	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(body)
}

func (s *segmentServer) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requested...)
}

func targetFor(t *testing.T, track models.Track, paths ...string) models.DownloadTarget {
	segments := make([]models.Segment, len(paths))
	for i, p := range paths {
		segments[i] = models.Segment{Path: p, IsInit: i == 0}
	}
	return models.DownloadTarget{
		Track:    track,
		Path:     filepath.Join(t.TempDir(), "__"+string(track)+".mp4"),
		Segments: segments,
	}
}

func TestAssembler_AppendsInOrder(t *testing.T) {
	origin := &segmentServer{
		bodies: map[string][]byte{
			"/v/init.mp4": []byte("INIT-"),
			"/v/0.m4s":    []byte("zero-"),
			"/v/4.m4s":    []byte("four"),
		},
		// The first segments are the slowest to complete.
		delays: map[string]time.Duration{
			"/v/init.mp4": 30 * time.Millisecond,
			"/v/0.m4s":    15 * time.Millisecond,
		},
	}
	server := httptest.NewServer(origin)
	defer server.Close()

	target := targetFor(t, models.TrackVideo, "v/init.mp4", "v/0.m4s", "v/4.m4s")
	assembler := dash.NewAssembler(newTestClient(), &mockLogger{}, nil)

	err := assembler.Assemble(context.Background(), server.URL+"/", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target.Path)
	require.NoError(t, err)
	assert.Equal(t, "INIT-zero-four", string(data))
	assert.Equal(t, []string{"/v/init.mp4", "/v/0.m4s", "/v/4.m4s"}, origin.paths())
}

func TestAssembler_AbortsOnFailure(t *testing.T) {
	origin := &segmentServer{
		bodies: map[string][]byte{
			"/a/init.mp4": []byte("b0"),
			"/a/0.m4s":    []byte("b1"),
			"/a/1.m4s":    []byte("b2"),
			"/a/2.m4s":    []byte("b3"),
		},
		failing: map[string]int{"/a/1.m4s": http.StatusInternalServerError},
	}
	server := httptest.NewServer(origin)
	defer server.Close()

	metrics.SegmentFailuresTotal.Reset()

	target := targetFor(t, models.TrackAudio, "a/init.mp4", "a/0.m4s", "a/1.m4s", "a/2.m4s")
	assembler := dash.NewAssembler(newTestClient(), &mockLogger{}, nil)

	err := assembler.Assemble(context.Background(), server.URL+"/", target)
	require.Error(t, err)
	assert.ErrorIs(t, err, dash.ErrSegmentFetch)

	var statusErr *dash.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

	assert.NotContains(t, origin.paths(), "/a/2.m4s")

	data, err := os.ReadFile(target.Path)
	require.NoError(t, err, "partial file must stay on disk")
	assert.Equal(t, "b0b1", string(data))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SegmentFailuresTotal.WithLabelValues("audio")))
}

func TestAssembler_AppendsToExistingFile(t *testing.T) {
	origin := &segmentServer{bodies: map[string][]byte{"/init.mp4": []byte("new")}}
	server := httptest.NewServer(origin)
	defer server.Close()

	target := targetFor(t, models.TrackVideo, "init.mp4")
	require.NoError(t, os.WriteFile(target.Path, []byte("old-"), 0644))

	err := dash.NewAssembler(newTestClient(), &mockLogger{}, nil).Assemble(context.Background(), server.URL+"/", target)
	require.NoError(t, err)

	data, err := os.ReadFile(target.Path)
	require.NoError(t, err)
	assert.Equal(t, "old-new", string(data))
}

func TestAssembler_TimeoutIsFetchError(t *testing.T) {
	origin := &segmentServer{
		bodies: map[string][]byte{"/init.mp4": []byte("x")},
		delays: map[string]time.Duration{"/init.mp4": 200 * time.Millisecond},
	}
	server := httptest.NewServer(origin)
	defer server.Close()

	client := newTestClient()
	client.RequestTimeout = 50 * time.Millisecond

	target := targetFor(t, models.TrackVideo, "init.mp4")
	err := dash.NewAssembler(client, &mockLogger{}, nil).Assemble(context.Background(), server.URL+"/", target)
	assert.ErrorIs(t, err, dash.ErrSegmentFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssembler_CountsProgressAndMetrics(t *testing.T) {
	origin := &segmentServer{bodies: map[string][]byte{
		"/init.mp4": []byte("1234"),
		"/0.m4s":    []byte("123456"),
	}}
	server := httptest.NewServer(origin)
	defer server.Close()

	metrics.SegmentsDownloadedTotal.Reset()
	metrics.SegmentBytesTotal.Reset()

	tracker := &countingTracker{}
	target := targetFor(t, models.TrackVideo, "init.mp4", "0.m4s")
	err := dash.NewAssembler(newTestClient(), &mockLogger{}, tracker).Assemble(context.Background(), server.URL+"/", target)
	require.NoError(t, err)

	assert.Equal(t, 2, tracker.count())
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SegmentsDownloadedTotal.WithLabelValues("video")))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.SegmentBytesTotal.WithLabelValues("video")))
}

func TestAssembler_UnwritableDestination(t *testing.T) {
	target := targetFor(t, models.TrackVideo, "init.mp4")
	target.Path = filepath.Join(t.TempDir(), "missing-dir", "out.mp4")

	err := dash.NewAssembler(newTestClient(), &mockLogger{}, nil).Assemble(context.Background(), "http://127.0.0.1:1/", target)
	assert.ErrorIs(t, err, dash.ErrSegmentAppend)
}

type countingTracker struct {
	mu sync.Mutex
	n  int
}

func (c *countingTracker) Add(n int) {
	c.mu.Lock()
	c.n += n
	c.mu.Unlock()
}

func (c *countingTracker) Finish() {}

func (c *countingTracker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
