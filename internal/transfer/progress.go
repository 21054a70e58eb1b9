package transfer

import (
	"sync"
	"time"

	"github.com/sparkdrop/sparkdrop/internal/ui"
)

// Reporter turns engine progress events into terminal output. Its only
// state is the last percentage shown, kept to skip redundant redraws; the
// percentages themselves come from the engine.
type Reporter struct {
	bar       *ui.TransferBar
	fileName  string
	totalSize int64
	startTime time.Time

	mu          sync.Mutex
	lastPercent int
}

// NewReporter creates a reporter for one transfer.
func NewReporter(fileName string, totalSize int64) *Reporter {
	return &Reporter{
		bar:         ui.NewTransferBar(fileName, totalSize),
		fileName:    fileName,
		totalSize:   totalSize,
		lastPercent: -1,
	}
}

// Start marks the beginning of the transfer for duration accounting.
func (r *Reporter) Start() {
	r.startTime = time.Now()
}

// Handle consumes one progress event. Events that do not change the
// displayed percentage are dropped.
func (r *Reporter) Handle(p Progress) {
	r.mu.Lock()
	if p.Percent == r.lastPercent {
		r.mu.Unlock()
		return
	}
	r.lastPercent = p.Percent
	r.mu.Unlock()

	r.bar.Update(p.Bytes)
}

// View renders the current progress line.
func (r *Reporter) View() string {
	return r.bar.View()
}

// RunLoop redraws the progress line until done is closed.
func (r *Reporter) RunLoop(done <-chan struct{}) {
	ui.RunRedrawLoop(done, r.View)
}

// Summary prints the terminal stats table.
func (r *Reporter) Summary(status string) {
	duration := time.Since(r.startTime)
	seconds := duration.Seconds()
	var speed float64
	if seconds > 0 {
		speed = float64(r.totalSize) / seconds
	}

	ui.RenderTransferSummary(ui.TransferSummary{
		Status:   status,
		FileName: r.fileName,
		Size:     ui.FormatBytes(r.totalSize),
		Duration: ui.FormatDuration(duration),
		Speed:    ui.FormatSpeed(speed),
	})
}
