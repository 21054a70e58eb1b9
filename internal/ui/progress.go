package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// TransferBar is a single-file progress bar with speed and byte counts.
type TransferBar struct {
	progress  progress.Model
	label     string
	current   int64
	total     int64
	startTime time.Time
	started   bool
	mu        sync.RWMutex
}

// NewTransferBar creates a progress bar for one transfer.
func NewTransferBar(label string, total int64) *TransferBar {
	p := progress.New(
		progress.WithGradient("#34d399", "#0ea5e9"),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &TransferBar{
		progress: p,
		label:    label,
		total:    total,
	}
}

// Update records transferred bytes. Timing starts from the first byte,
// not from bar creation, so the speed reading is not skewed by setup.
func (b *TransferBar) Update(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started && current > 0 {
		b.started = true
		b.startTime = time.Now()
	}
	b.current = current
}

func (b *TransferBar) View() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	percent := 1.0
	if b.total > 0 {
		percent = float64(b.current) / float64(b.total)
	}

	var speed float64
	if b.started {
		if elapsed := time.Since(b.startTime).Seconds(); elapsed > 0 {
			speed = float64(b.current) / elapsed
		}
	}

	return fmt.Sprintf("%s %s %s %s %s\n",
		IconFile,
		truncateString(b.label, 30),
		b.progress.ViewAs(percent),
		MutedStyle.Render(FormatSpeed(speed)),
		MutedStyle.Render(fmt.Sprintf("(%s/%s)", FormatBytes(b.current), FormatBytes(b.total))),
	)
}

// RunRedrawLoop redraws view on a ticker until done is closed, clearing
// the previous line before each redraw. It prints a final frame on exit.
func RunRedrawLoop(done <-chan struct{}, view func() string) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	firstPrint := true
	for {
		select {
		case <-done:
			if !firstPrint {
				fmt.Print("\033[A\033[2K")
			}
			fmt.Print(view())
			return
		case <-ticker.C:
			if !firstPrint {
				fmt.Print("\033[A\033[2K")
			}
			firstPrint = false
			fmt.Print(view())
		}
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FormatBytes renders a byte count in human units.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed renders a transfer rate in human units.
func FormatSpeed(bytesPerSecond float64) string {
	const (
		KB = 1024.0
		MB = KB * 1024.0
		GB = MB * 1024.0
	)

	switch {
	case bytesPerSecond >= GB:
		return fmt.Sprintf("%.2f GB/s", bytesPerSecond/GB)
	case bytesPerSecond >= MB:
		return fmt.Sprintf("%.2f MB/s", bytesPerSecond/MB)
	case bytesPerSecond >= KB:
		return fmt.Sprintf("%.2f KB/s", bytesPerSecond/KB)
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	}
}

// FormatDuration renders an elapsed time compactly.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	if seconds < 1 {
		return "<1s"
	}
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	mins := int(seconds) / 60
	secs := int(seconds) % 60
	return fmt.Sprintf("%dm%ds", mins, secs)
}
