package display

import (
	"fmt"
	"math"
	"strings"

	"github.com/backmassage/dlogconv/internal/term"
)

// FormatBytes returns a human-readable size (B, KiB, MiB, GiB, TiB, PiB).
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	if exp >= len(suffixes) {
		exp = len(suffixes) - 1
		div = 1
		for i := 0; i <= exp; i++ {
			div *= unit
		}
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}

// FormatSeconds renders a media duration as H:MM:SS.ss, or M:SS.ss under an
// hour. Negative and NaN values render as "0:00.00".
func FormatSeconds(sec float64) string {
	if sec < 0 || math.IsNaN(sec) {
		sec = 0
	}
	h := int(sec) / 3600
	m := (int(sec) % 3600) / 60
	s := sec - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
	}
	return fmt.Sprintf("%d:%05.2f", m, s)
}

// ProgressBar renders percent (clamped to 0..100) as a bar of width cells
// followed by the numeric percentage, e.g. "[#####-----]  50%".
func ProgressBar(percent float64, width int) string {
	if width < 1 {
		width = 1
	}
	if percent < 0 || math.IsNaN(percent) {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))
	bar := term.Green.Render(strings.Repeat("#", filled)) +
		term.Faint.Render(strings.Repeat("-", width-filled))
	return fmt.Sprintf("[%s] %3.0f%%", bar, percent)
}
