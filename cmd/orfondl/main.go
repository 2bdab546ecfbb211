package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"orfondl/internal/config"
	"orfondl/internal/dash"
	"orfondl/internal/job"
	"orfondl/internal/logger"
	"orfondl/internal/merge"
	"orfondl/internal/metrics"
	"orfondl/internal/progress"
)

// exitFailure is the status for every unrecoverable error.
const exitFailure = 255

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return exitFailure
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "orfondl <video-page-url | url-list-file> [output-file]",
		Short: "Download a DASH video from its web page and merge it into one file",
		Long: `orfondl finds the MPEG-DASH manifest on a video page, downloads the
best video and audio representations and merges them with ffmpeg.

If the first argument is not an http(s) URL it is read as a text file with
one video page URL per line; the output file argument is then ignored.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return execute(cmd.Context(), cfg, cmd.ErrOrStderr(), args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	flags.StringP("log-level", "L", "info", "Log level (error, warn, info, debug)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.Duration("timeout", 30*time.Second, "Timeout for every single HTTP request")
	flags.String("user-agent", "orfondl/1.0", "User-Agent header sent with every request")
	flags.Float64("rate-limit", 0, "Maximum requests per second, 0 for unlimited")
	flags.String("work-dir", ".", "Directory for intermediate video and audio files")
	flags.String("output-dir", ".", "Directory for outputs named after the video page")
	flags.String("ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	flags.Bool("continue-on-error", false, "Keep processing a URL list after a failed video")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	flags.Bool("no-progress", false, "Disable the progress bar")

	return cmd
}

func execute(ctx context.Context, cfg *config.Config, stderr io.Writer, args []string) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format, stderr)

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		srv := metrics.NewServer(addr)
		bound, err := srv.Start()
		if err != nil {
			return err
		}
		log.Infof("Serving metrics on http://%s/metrics", bound)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	client := dash.NewClient(log, dash.Options{
		UserAgent:      cfg.HTTP.UserAgent,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimit:      cfg.HTTP.RateLimit,
		RateBurst:      cfg.HTTP.RateBurst,
	})

	runner := job.NewRunner(client, merge.NewFFmpeg(cfg.Merge.FFmpegPath), log, job.Options{
		WorkDir:         cfg.Download.WorkDir,
		OutputDir:       cfg.Download.OutputDir,
		ContinueOnError: cfg.Batch.ContinueOnError,
		Progress:        trackerFactory(cfg.Download.Progress, stderr),
	})

	if isURL(args[0]) {
		var output string
		if len(args) > 1 {
			output = args[1]
		}
		_, err := runner.Run(ctx, args[0], output)
		return err
	}

	if len(args) > 1 {
		log.Warnf("Ignoring output file name %q in batch mode", args[1])
	}
	urls, err := job.ReadURLList(args[0])
	if err != nil {
		return err
	}

	result, err := runner.RunBatch(ctx, urls)
	log.Infof("Batch finished: %d completed, %d failed, %d skipped",
		len(result.Completed), len(result.Failed), len(result.Skipped))
	return err
}

func trackerFactory(enabled bool, w io.Writer) job.TrackerFactory {
	if !enabled {
		return nil
	}
	return func(total int, description string) progress.Tracker {
		return progress.NewBar(w, total, description)
	}
}

func isURL(arg string) bool {
	lower := strings.ToLower(arg)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
