package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SegmentsDownloadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orfondl_segments_downloaded_total",
			Help: "Total number of segments fetched and appended",
		},
		[]string{"track"},
	)

	SegmentBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orfondl_segment_bytes_total",
			Help: "Total number of segment bytes appended to intermediate files",
		},
		[]string{"track"},
	)

	SegmentFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orfondl_segment_failures_total",
			Help: "Total number of segment fetches or appends that aborted a track",
		},
		[]string{"track"},
	)

	SegmentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orfondl_segment_fetch_duration_seconds",
			Help:    "Segment fetch latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"track"},
	)

	VideosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orfondl_videos_total",
			Help: "Total number of processed videos by outcome",
		},
		[]string{"status"},
	)

	MergeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orfondl_merge_duration_seconds",
			Help:    "Duration of the external multiplexer run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)
)

// RecordSegment records one successfully appended segment.
func RecordSegment(track string, size int, seconds float64) {
	SegmentsDownloadedTotal.WithLabelValues(track).Inc()
	SegmentBytesTotal.WithLabelValues(track).Add(float64(size))
	SegmentFetchDuration.WithLabelValues(track).Observe(seconds)
}

// RecordSegmentFailure records a segment that aborted its track.
func RecordSegmentFailure(track string) {
	SegmentFailuresTotal.WithLabelValues(track).Inc()
}

// RecordVideo records the outcome ("completed" or "failed") of one video.
func RecordVideo(status string) {
	VideosTotal.WithLabelValues(status).Inc()
}

// RecordMerge records one multiplexer run.
func RecordMerge(seconds float64) {
	MergeDuration.Observe(seconds)
}
