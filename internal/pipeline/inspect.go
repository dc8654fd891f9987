package pipeline

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/dlogconv/internal/display"
	"github.com/backmassage/dlogconv/internal/probe"
	"github.com/backmassage/dlogconv/internal/term"
)

// MetadataProber returns full stream metadata. probe.Client satisfies it.
type MetadataProber interface {
	Metadata(ctx context.Context, path string) (*probe.Result, error)
}

// ClipInfo is the probe outcome for one file. Exactly one of Result and
// Err is set.
type ClipInfo struct {
	Path   string
	Result *probe.Result
	Err    error
}

// Inspect probes files in order. It stops early (returning what it has)
// when ctx is canceled.
func Inspect(ctx context.Context, prober MetadataProber, files []string) []ClipInfo {
	clips := make([]ClipInfo, 0, len(files))
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		res, err := prober.Metadata(ctx, f)
		clips = append(clips, ClipInfo{Path: f, Result: res, Err: err})
	}
	return clips
}

// PrintClipTable writes one row per probed clip. Clips that look like
// camera log footage are flagged [log], interlaced ones [i]; bitrates far outside the batch's
// interquartile range are flagged [*] (outlier) or [!] (extreme), which
// usually means a proxy or a clip from another camera mode.
func PrintClipTable(w io.Writer, clips []ClipInfo) {
	headers := []string{"File", "Resolution", "FPS", "Pix Fmt", "Transfer", "Duration", "Bitrate", ""}

	var kbps []float64
	for _, c := range clips {
		if c.Result != nil && c.Result.Format.BitRate > 0 {
			kbps = append(kbps, float64(c.Result.Format.BitRate/1000))
		}
	}
	bounds := computeBounds(kbps)

	rows := make([][]string, 0, len(clips))
	for _, c := range clips {
		name := filepath.Base(c.Path)
		if c.Err != nil || c.Result == nil {
			rows = append(rows, []string{name, "probe failed", "", "", "", "", "", term.Red.Render("[!]")})
			continue
		}
		r := c.Result
		br := r.Format.BitRate / 1000
		var flags []string
		if r.IsLogEncoded() {
			flags = append(flags, term.Cyan.Render("[log]"))
		}
		if r.IsInterlaced() {
			flags = append(flags, term.Yellow.Render("[i]"))
		}
		switch bounds.classify(float64(br)) {
		case "extreme":
			flags = append(flags, term.Red.Render("[!]"))
		case "outlier":
			flags = append(flags, term.Yellow.Render("[*]"))
		}
		pixFmt, transfer := "", ""
		if r.Video != nil {
			pixFmt, transfer = r.Video.PixFmt, r.Video.ColorTransfer
		}
		if transfer == "" {
			transfer = "unset"
		}
		rows = append(rows, []string{
			name,
			r.Resolution(),
			fmt.Sprintf("%.2f", r.FrameRate()),
			pixFmt,
			transfer,
			display.FormatSeconds(r.Format.Duration),
			formatKbps(br),
			strings.Join(flags, " "),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row[:len(row)-1] {
			if cw := lipgloss.Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	if widths[0] > maxNameWidth {
		widths[0] = maxNameWidth
	}

	writeRow := func(cells []string) {
		var b strings.Builder
		b.WriteString(" ")
		for i, cell := range cells {
			if i == 0 {
				cell = truncate(cell, widths[0])
			}
			if i == len(cells)-1 {
				b.WriteString(" " + cell)
				continue
			}
			// Pad plain text; the flag column (last) carries the only styling.
			b.WriteString(" " + cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell)))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}

	writeRow(headers)
	total := 0
	for _, wd := range widths[:len(widths)-1] {
		total += wd + 1
	}
	fmt.Fprintln(w, "  "+strings.Repeat("─", total))
	for _, row := range rows {
		writeRow(row)
	}
}

// maxNameWidth caps the File column, in terminal cells.
const maxNameWidth = 50

// truncate shortens s to at most width terminal cells, ending in "…". It
// cuts on rune boundaries.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

func formatKbps(kbps int64) string {
	if kbps <= 0 {
		return "n/a"
	}
	if kbps < 1000 {
		return fmt.Sprintf("%d kbps", kbps)
	}
	return fmt.Sprintf("%.1f Mbps", float64(kbps)/1000)
}

// iqrBounds holds the interquartile-range thresholds for outlier flags.
type iqrBounds struct {
	outlierLo, outlierHi float64 // Q1 - 1.5*IQR, Q3 + 1.5*IQR
	extremeLo, extremeHi float64 // Q1 - 3*IQR, Q3 + 3*IQR
	valid                bool
}

// computeBounds needs at least four samples; with fewer nothing is flagged.
func computeBounds(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1
	return iqrBounds{
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3*iqr,
		extremeHi: q3 + 3*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "", "outlier" or "extreme".
func (b iqrBounds) classify(v float64) string {
	switch {
	case !b.valid || v <= 0:
		return ""
	case v < b.extremeLo || v > b.extremeHi:
		return "extreme"
	case v < b.outlierLo || v > b.outlierHi:
		return "outlier"
	}
	return ""
}

// percentile computes the p-th percentile of sorted using linear
// interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
