package dash

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestFetch is returned when the manifest cannot be downloaded.
	ErrManifestFetch = errors.New("manifest fetch failed")
	// ErrManifestParse is returned for malformed XML or a manifest missing the expected structure.
	ErrManifestParse = errors.New("manifest parse failed")
	// ErrTimelineParse is returned when a SegmentTimeline cannot be expanded.
	ErrTimelineParse = errors.New("segment timeline parse failed")
	// ErrInvalidTemplate is returned when a SegmentTemplate lacks a required placeholder.
	ErrInvalidTemplate = errors.New("invalid segment template")
	// ErrNoRepresentation is returned when an adaptation set has no representations.
	ErrNoRepresentation = errors.New("no representation found")
	// ErrSegmentFetch is returned when a segment download fails or times out.
	ErrSegmentFetch = errors.New("segment fetch failed")
	// ErrSegmentAppend is returned when a downloaded segment cannot be written.
	ErrSegmentAppend = errors.New("segment append failed")
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("received status code %d from %s", e.StatusCode, e.URL)
}
