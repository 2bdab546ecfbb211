package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker counts finished segments. Implementations must be safe for
// concurrent use because both tracks report into the same tracker.
type Tracker interface {
	Add(n int)
	Finish()
}

// Bar is a terminal progress bar over the segments of one video.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar creates a bar with total segments, drawn on w.
func NewBar(w io.Writer, total int, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)}
}

func (b *Bar) Add(n int) {
	_ = b.bar.Add(n)
}

func (b *Bar) Finish() {
	_ = b.bar.Finish()
}

// Nop discards progress.
type Nop struct{}

func (Nop) Add(int) {}
func (Nop) Finish() {}
