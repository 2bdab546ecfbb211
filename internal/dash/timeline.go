package dash

import (
	"fmt"
	"strconv"
	"strings"

	"orfondl/internal/models"
)

const (
	placeholderRepID = "$RepresentationID$"
	placeholderTime  = "$Time$"
)

// ExpandTimeline turns a SegmentTemplate into the ordered segments of one
// representation: the initialization segment first, then one media segment per
// timeline entry and repeat.
func ExpandTimeline(template SegmentTemplate, rep Representation) ([]models.Segment, error) {
	if !strings.Contains(template.Initialization, placeholderRepID) {
		return nil, fmt.Errorf("%w: initialization %q lacks %s", ErrInvalidTemplate, template.Initialization, placeholderRepID)
	}
	if !strings.Contains(template.Media, placeholderRepID) || !strings.Contains(template.Media, placeholderTime) {
		return nil, fmt.Errorf("%w: media %q needs %s and %s", ErrInvalidTemplate, template.Media, placeholderRepID, placeholderTime)
	}

	timeline := template.Timeline.Segments
	if len(timeline) == 0 {
		return nil, fmt.Errorf("%w: timeline for representation %s is empty", ErrTimelineParse, rep.ID)
	}

	segments := []models.Segment{{
		Path:   strings.ReplaceAll(template.Initialization, placeholderRepID, rep.ID),
		RepID:  rep.ID,
		IsInit: true,
	}}

	var currentTime uint64
	for i, s := range timeline {
		duration, start, repeat, err := parseS(s)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrTimelineParse, i, err)
		}
		// A non-zero t is an absolute start time.
		if start > 0 {
			currentTime = start
		}

		// The r attribute counts the segments following the first one.
		for n := 0; n <= repeat; n++ {
			segments = append(segments, createSegment(template.Media, rep.ID, currentTime, duration))
			currentTime += duration
		}
	}

	return segments, nil
}

// Paths returns the relative URL paths of segments, in order.
func Paths(segments []models.Segment) []string {
	paths := make([]string, len(segments))
	for i, seg := range segments {
		paths[i] = seg.Path
	}
	return paths
}

func parseS(s S) (duration, start uint64, repeat int, err error) {
	duration, err = strconv.ParseUint(strings.TrimSpace(s.D), 10, 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid duration %q", s.D)
	}

	if s.R != "" {
		repeat, err = strconv.Atoi(strings.TrimSpace(s.R))
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid repeat count %q", s.R)
		}
		// r=-1 repeats to the end of the Period, which a timeline alone cannot bound.
		if repeat < 0 {
			return 0, 0, 0, fmt.Errorf("unsupported repeat count %d", repeat)
		}
	}

	if s.T != "" {
		start, err = strconv.ParseUint(strings.TrimSpace(s.T), 10, 64)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid start time %q", s.T)
		}
	}

	return duration, start, repeat, nil
}

func createSegment(mediaTemplate, repID string, time, duration uint64) models.Segment {
	mediaPath := strings.ReplaceAll(mediaTemplate, placeholderRepID, repID)
	mediaPath = strings.ReplaceAll(mediaPath, placeholderTime, strconv.FormatUint(time, 10))

	return models.Segment{
		Path:     mediaPath,
		Time:     time,
		Duration: duration,
		RepID:    repID,
	}
}
