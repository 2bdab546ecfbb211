package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSegment(t *testing.T) {
	SegmentsDownloadedTotal.Reset()
	SegmentBytesTotal.Reset()

	RecordSegment("video", 100, 0.2)
	RecordSegment("video", 50, 0.1)
	RecordSegment("audio", 10, 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(SegmentsDownloadedTotal.WithLabelValues("video")))
	assert.Equal(t, 150.0, testutil.ToFloat64(SegmentBytesTotal.WithLabelValues("video")))
	assert.Equal(t, 1.0, testutil.ToFloat64(SegmentsDownloadedTotal.WithLabelValues("audio")))
}

func TestRecordSegmentFailure(t *testing.T) {
	SegmentFailuresTotal.Reset()

	RecordSegmentFailure("audio")

	assert.Equal(t, 1.0, testutil.ToFloat64(SegmentFailuresTotal.WithLabelValues("audio")))
	assert.Equal(t, 0.0, testutil.ToFloat64(SegmentFailuresTotal.WithLabelValues("video")))
}

func TestRecordVideo(t *testing.T) {
	VideosTotal.Reset()

	RecordVideo("completed")
	RecordVideo("failed")
	RecordVideo("completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(VideosTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(VideosTotal.WithLabelValues("failed")))
}

func TestServer(t *testing.T) {
	RecordMerge(1.5)

	srv := NewServer("127.0.0.1:0")
	addr, err := srv.Start()
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr.String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "orfondl_merge_duration_seconds")
}
