// Package display renders the CLI's human-facing output: banner, progress
// bars, the end-of-batch summary box, and size/duration formatting.
package display

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/backmassage/dlogconv/internal/term"
)

const banner = `     _ _                                  
  __| | | ___   __ _  ___ ___  _ ____   __
 / _` + "`" + ` | |/ _ \ / _` + "`" + ` |/ __/ _ \| '_ \ \ / /
| (_| | | (_) | (_| | (_| (_) | | | \ V / 
 \__,_|_|\___/ \__, |\___\___/|_| |_|\_/  
               |___/                      `

// PrintBanner writes the ASCII art banner and tagline to w. Magenta when
// colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprintln(w, term.Magenta.Render(banner))
	fmt.Fprintln(w, term.Faint.Render("  D-Log -> Rec.709 batch converter"))
	fmt.Fprintln(w)
}

// SummaryBox renders the end-of-batch totals inside a rounded border.
func SummaryBox(total, succeeded, failed int, elapsed string) string {
	label := term.Renderer().NewStyle().Width(10)
	status := term.Green
	if failed > 0 {
		status = term.Red
	}
	rows := lipgloss.JoinVertical(lipgloss.Left,
		label.Render("Total")+fmt.Sprintf("%d", total),
		label.Render("Success")+term.Green.Render(fmt.Sprintf("%d", succeeded)),
		label.Render("Failed")+status.Render(fmt.Sprintf("%d", failed)),
		label.Render("Elapsed")+elapsed,
	)
	return term.Renderer().NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("13")).
		Padding(0, 1).
		Render(rows)
}
