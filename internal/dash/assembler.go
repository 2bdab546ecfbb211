package dash

import (
	"context"
	"fmt"
	"os"
	"time"

	"orfondl/internal/logger"
	"orfondl/internal/metrics"
	"orfondl/internal/models"
	"orfondl/internal/progress"
)

// Assembler downloads the segments of one track and appends them, in order, to a
// single destination file.
type Assembler struct {
	client   *Client
	logger   logger.Logger
	progress progress.Tracker
}

// NewAssembler creates an assembler. A nil tracker disables progress reporting.
func NewAssembler(client *Client, log logger.Logger, tracker progress.Tracker) *Assembler {
	if tracker == nil {
		tracker = progress.Nop{}
	}
	return &Assembler{
		client:   client,
		logger:   log,
		progress: tracker,
	}
}

// Assemble fetches every segment of target from baseURL+segment.Path and appends
// it to target.Path. The first failure aborts the track; whatever was appended so
// far is left on disk.
func (a *Assembler) Assemble(ctx context.Context, baseURL string, target models.DownloadTarget) (err error) {
	track := string(target.Track)
	a.logger.Infof("Downloading %d %s segments into %s", len(target.Segments), track, target.Path)

	file, err := os.OpenFile(target.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %w", ErrSegmentAppend, target.Path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close %s: %w", ErrSegmentAppend, target.Path, cerr)
		}
	}()

	for i, segment := range target.Segments {
		segmentURL := baseURL + segment.Path
		a.logger.Debugf("Downloading segment %s", segment.Path)

		started := time.Now()
		data, _, err := a.client.Get(ctx, segmentURL)
		if err != nil {
			metrics.RecordSegmentFailure(track)
			return fmt.Errorf("%w: %s segment %d/%d (%s): %w", ErrSegmentFetch, track, i+1, len(target.Segments), segmentURL, err)
		}

		if _, err := file.Write(data); err != nil {
			metrics.RecordSegmentFailure(track)
			return fmt.Errorf("%w: %s segment %d/%d to %s: %w", ErrSegmentAppend, track, i+1, len(target.Segments), target.Path, err)
		}

		metrics.RecordSegment(track, len(data), time.Since(started).Seconds())
		a.progress.Add(1)
	}

	a.logger.Infof("Finished %s track: %s", track, target.Path)
	return nil
}
