package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orfondl/internal/dash"
	"orfondl/internal/logger"
	"orfondl/internal/merge"
	"orfondl/internal/metrics"
	"orfondl/internal/models"
	"orfondl/internal/page"
	"orfondl/internal/progress"
)

// TrackerFactory creates the progress tracker for one video.
type TrackerFactory func(total int, description string) progress.Tracker

// Options configures a Runner.
type Options struct {
	// WorkDir receives the intermediate video-only and audio-only files.
	WorkDir string
	// OutputDir receives outputs whose name is derived from the page.
	OutputDir string
	// ContinueOnError keeps a batch going after a failed entry.
	ContinueOnError bool
	Progress        TrackerFactory
}

// Runner downloads videos: it scrapes the page, resolves the manifest,
// assembles both tracks and merges them.
type Runner struct {
	client *dash.Client
	muxer  merge.Muxer
	logger logger.Logger
	opts   Options
}

// NewRunner creates a new runner.
func NewRunner(client *dash.Client, muxer merge.Muxer, log logger.Logger, opts Options) *Runner {
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Progress == nil {
		opts.Progress = func(int, string) progress.Tracker { return progress.Nop{} }
	}
	return &Runner{
		client: client,
		muxer:  muxer,
		logger: log,
		opts:   opts,
	}
}

// Run downloads the video behind pageURL into output and returns the output path.
// An empty output derives "<publish date> <title>.mp4" inside OutputDir.
func (r *Runner) Run(ctx context.Context, pageURL, output string) (string, error) {
	out, err := r.run(ctx, pageURL, output)
	if err != nil {
		metrics.RecordVideo("failed")
		return out, err
	}
	metrics.RecordVideo("completed")
	return out, nil
}

func (r *Runner) run(ctx context.Context, pageURL, output string) (string, error) {
	r.logger.Infof("Fetching video page %s", pageURL)
	p, err := page.Fetch(ctx, r.client, pageURL)
	if err != nil {
		return "", err
	}

	manifestURL, err := p.ManifestURL()
	if err != nil {
		return "", err
	}
	r.logger.Infof("Title: %s", p.Title)
	r.logger.Infof("Manifest URL: %s", manifestURL)

	mpd, finalURL, err := r.client.FetchMPD(ctx, manifestURL)
	if err != nil {
		return "", err
	}
	if d, err := mpd.Duration(); err == nil && d > 0 {
		r.logger.Infof("Presentation duration: %s", d)
	}

	if output == "" {
		output = filepath.Join(r.opts.OutputDir, page.OutputName(mpd.PublishDate(), p.Title))
	}
	r.logger.Infof("Saving to '%s'", output)

	baseURL, err := dash.BaseURL(finalURL, &mpd.Periods[0])
	if err != nil {
		return output, fmt.Errorf("%w: %w", dash.ErrManifestParse, err)
	}

	id := uuid.NewString()
	video, err := r.prepareTrack(mpd.VideoSet, dash.ByWidth, models.TrackVideo, filepath.Join(r.opts.WorkDir, "__"+id+".video.mp4"))
	if err != nil {
		return output, err
	}
	audio, err := r.prepareTrack(mpd.AudioSet, dash.BySamplingRate, models.TrackAudio, filepath.Join(r.opts.WorkDir, "__"+id+".audio.mp4"))
	if err != nil {
		return output, err
	}

	if err := r.download(ctx, baseURL, filepath.Base(output), video, audio); err != nil {
		return output, err
	}

	r.logger.Infof("Merging streams into %s", output)
	started := time.Now()
	if err := r.muxer.Merge(ctx, video.Path, audio.Path, output); err != nil {
		r.logger.Errorf("Merge failed, keeping %s and %s", video.Path, audio.Path)
		return output, err
	}
	metrics.RecordMerge(time.Since(started).Seconds())

	for _, path := range []string{video.Path, audio.Path} {
		if err := os.Remove(path); err != nil {
			r.logger.Warnf("Failed to delete intermediate file %s: %v", path, err)
		}
	}

	r.logger.Infof("Done: %s", output)
	return output, nil
}

// prepareTrack selects the best representation of an adaptation set and expands its timeline.
func (r *Runner) prepareTrack(find func() (*dash.AdaptationSet, error), quality dash.Quality, track models.Track, path string) (models.DownloadTarget, error) {
	as, err := find()
	if err != nil {
		return models.DownloadTarget{}, err
	}

	rep, err := dash.SelectBest(as.Representations, quality)
	if err != nil {
		return models.DownloadTarget{}, fmt.Errorf("%s adaptation set %q: %w", track, as.ID, err)
	}
	r.logger.Infof("Selected %s representation %s (width %d, height %d, sampling rate %d, codecs %s, bandwidth %d)",
		track, rep.ID, rep.Width, rep.Height, rep.AudioSamplingRate, rep.Codecs, rep.Bandwidth)

	segments, err := dash.ExpandTimeline(as.SegmentTemplate, rep)
	if err != nil {
		return models.DownloadTarget{}, fmt.Errorf("%w: %s track: %w", dash.ErrManifestParse, track, err)
	}

	return models.DownloadTarget{Track: track, Path: path, Segments: segments}, nil
}

// download assembles both tracks concurrently. The first failure cancels the
// other track; partial intermediate files stay on disk.
func (r *Runner) download(ctx context.Context, baseURL, description string, targets ...models.DownloadTarget) error {
	total := 0
	for _, t := range targets {
		total += len(t.Segments)
	}
	tracker := r.opts.Progress(total, description)
	defer tracker.Finish()

	assembler := dash.NewAssembler(r.client, r.logger, tracker)

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			return assembler.Assemble(gctx, baseURL, target)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
