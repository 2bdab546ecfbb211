package job

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrBatchFailed is returned when at least one batch entry failed.
var ErrBatchFailed = errors.New("batch had failures")

// BatchResult summarizes a batch run.
type BatchResult struct {
	Completed []string
	Failed    map[string]error
	// Skipped lists entries never started because the batch was aborted.
	Skipped []string
}

// RunBatch downloads every URL in order, one video at a time. Without
// ContinueOnError the first failure stops the batch.
func (r *Runner) RunBatch(ctx context.Context, urls []string) (*BatchResult, error) {
	result := &BatchResult{Failed: make(map[string]error)}

	for i, u := range urls {
		if err := ctx.Err(); err != nil {
			result.Skipped = append(result.Skipped, urls[i:]...)
			return result, err
		}

		r.logger.Infof("Batch entry %d/%d: %s", i+1, len(urls), u)
		output, err := r.Run(ctx, u, "")
		if err != nil {
			result.Failed[u] = err
			if !r.opts.ContinueOnError {
				result.Skipped = append(result.Skipped, urls[i+1:]...)
				return result, fmt.Errorf("batch aborted at %s: %w", u, err)
			}
			r.logger.Errorf("Skipping %s: %v", u, err)
			continue
		}
		result.Completed = append(result.Completed, output)
	}

	if len(result.Failed) > 0 {
		return result, fmt.Errorf("%w: %d of %d videos failed", ErrBatchFailed, len(result.Failed), len(urls))
	}
	return result, nil
}

// ReadURLList reads one video page URL per line, skipping blank lines and
// lines starting with '#'.
func ReadURLList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL list %s: %w", path, err)
	}
	defer file.Close()

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list %s: %w", path, err)
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("URL list %s contains no URLs", path)
	}
	return urls, nil
}
