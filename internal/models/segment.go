package models

// Track identifies which elementary stream a segment belongs to.
type Track string

const (
	TrackVideo Track = "video"
	TrackAudio Track = "audio"
)

// Segment represents a media segment with its essential properties.
// This struct is used across different packages to represent a downloadable chunk of media.
type Segment struct {
	// Path is the template-substituted path, relative to the manifest's base URL.
	Path string
	// Time is the start time of the segment in the timescale of its representation.
	// It is zero for the initialization segment.
	Time uint64
	// Duration is the duration of the segment in the timescale of its representation.
	Duration uint64
	// RepID is the ID of the representation this segment belongs to.
	RepID string
	// IsInit indicates if this is an initialization segment.
	IsInit bool
}

// DownloadTarget pairs a destination file with the ordered segments appended into it.
type DownloadTarget struct {
	Track    Track
	Path     string
	Segments []Segment
}
