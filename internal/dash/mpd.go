package dash

import (
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MPD is the root element of a Media Presentation Description.
type MPD struct {
	XMLName                   xml.Name `xml:"MPD"`
	Type                      string   `xml:"type,attr"`
	Profiles                  string   `xml:"profiles,attr"`
	PublishTime               string   `xml:"publishTime,attr"`
	MediaPresentationDuration string   `xml:"mediaPresentationDuration,attr"`
	Periods                   []Period `xml:"Period"`
}

// ParseMPD decodes a manifest and checks that it has at least one Period.
func ParseMPD(data []byte) (*MPD, error) {
	var mpd MPD
	if err := xml.Unmarshal(data, &mpd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrManifestParse, err)
	}
	if len(mpd.Periods) == 0 {
		return nil, fmt.Errorf("%w: manifest has no Period", ErrManifestParse)
	}
	return &mpd, nil
}

// PublishDate returns the YYYY-MM-DD date of publishTime, or "" if it is absent.
func (m *MPD) PublishDate() string {
	if m.PublishTime == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, m.PublishTime); err == nil {
		return t.Format(time.DateOnly)
	}
	if len(m.PublishTime) >= len(time.DateOnly) {
		return m.PublishTime[:len(time.DateOnly)]
	}
	return ""
}

// Duration returns mediaPresentationDuration as a time.Duration.
func (m *MPD) Duration() (time.Duration, error) {
	return parseDuration(m.MediaPresentationDuration)
}

// VideoSet returns the video adaptation set of the first Period.
func (m *MPD) VideoSet() (*AdaptationSet, error) {
	return m.findSet("video", 0)
}

// AudioSet returns the audio adaptation set of the first Period.
func (m *MPD) AudioSet() (*AdaptationSet, error) {
	return m.findSet("audio", 1)
}

// findSet looks for the first set declaring contentType (or a matching mimeType)
// and otherwise falls back to the set at index fallback.
func (m *MPD) findSet(contentType string, fallback int) (*AdaptationSet, error) {
	if len(m.Periods) == 0 {
		return nil, fmt.Errorf("%w: manifest has no Period", ErrManifestParse)
	}
	sets := m.Periods[0].Sets
	for i := range sets {
		if sets[i].MediaType() == contentType {
			return &sets[i], nil
		}
	}
	if fallback < len(sets) && sets[fallback].MediaType() == "" {
		return &sets[fallback], nil
	}
	return nil, fmt.Errorf("%w: no %s adaptation set", ErrManifestParse, contentType)
}

// parseDuration parses an ISO 8601 duration string like "PT8S".
func parseDuration(duration string) (time.Duration, error) {
	if !strings.HasPrefix(duration, "PT") {
		// Fallback for simple duration strings like "5s"
		return time.ParseDuration(duration)
	}

	duration = strings.TrimPrefix(duration, "PT")
	if duration == "" {
		return 0, nil
	}

	var totalDuration time.Duration
	matches := durationPart.FindAllStringSubmatch(duration, -1)
	if len(matches) == 0 {
		return 0, errors.New("invalid ISO 8601 duration format")
	}

	for _, match := range matches {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return 0, err
		}

		switch match[2] {
		case "H":
			totalDuration += time.Duration(value * float64(time.Hour))
		case "M":
			totalDuration += time.Duration(value * float64(time.Minute))
		case "S":
			totalDuration += time.Duration(value * float64(time.Second))
		default:
			return 0, errors.New("unsupported duration unit: " + match[2])
		}
	}

	return totalDuration, nil
}

var durationPart = regexp.MustCompile(`(\d+\.?\d*)(\w)`)

// Period represents a media content period.
type Period struct {
	ID      string          `xml:"id,attr"`
	BaseURL string          `xml:"BaseURL"`
	Sets    []AdaptationSet `xml:"AdaptationSet"`
}

// AdaptationSet represents a set of interchangeable representations.
type AdaptationSet struct {
	ID              string           `xml:"id,attr"`
	ContentType     string           `xml:"contentType,attr"`
	MimeType        string           `xml:"mimeType,attr"`
	Lang            string           `xml:"lang,attr,omitempty"`
	Representations []Representation `xml:"Representation"`
	SegmentTemplate SegmentTemplate  `xml:"SegmentTemplate"`
}

// MediaType reports "video", "audio", "text" or "" when the set declares neither
// contentType nor mimeType.
func (as *AdaptationSet) MediaType() string {
	if as.ContentType != "" {
		return as.ContentType
	}
	if i := strings.IndexByte(as.MimeType, '/'); i > 0 {
		return as.MimeType[:i]
	}
	return ""
}

// Representation represents a specific media stream.
type Representation struct {
	ID                string `xml:"id,attr"`
	Bandwidth         int    `xml:"bandwidth,attr"`
	Codecs            string `xml:"codecs,attr"`
	Width             int    `xml:"width,attr,omitempty"`
	Height            int    `xml:"height,attr,omitempty"`
	FrameRate         string `xml:"frameRate,attr,omitempty"`
	AudioSamplingRate int    `xml:"audioSamplingRate,attr,omitempty"`
}

// SegmentTemplate defines the URL structure for segments.
type SegmentTemplate struct {
	Timescale      int             `xml:"timescale,attr"`
	Initialization string          `xml:"initialization,attr"`
	Media          string          `xml:"media,attr"`
	Timeline       SegmentTimeline `xml:"SegmentTimeline"`
}

// SegmentTimeline defines the timeline of segments.
type SegmentTimeline struct {
	Segments []S `xml:"S"`
}

// S represents a single segment or a series of segments.
// Attributes are kept as text and validated when the timeline is expanded.
type S struct {
	T string `xml:"t,attr,omitempty"` // Start time
	D string `xml:"d,attr"`           // Duration
	R string `xml:"r,attr,omitempty"` // Repeat count
}
