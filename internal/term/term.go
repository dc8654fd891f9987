// Package term provides color state and terminal detection.
//
// Styles are package-level because logging and display both render with
// them. [Configure] resolves the color mode once during startup; when colors
// are disabled the shared renderer drops to the ASCII profile and every
// style renders as plain text.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/backmassage/dlogconv/internal/config"
)

var (
	renderer = lipgloss.NewRenderer(os.Stdout)
	enabled  bool
)

// Shared styles. Colors follow the 16-color bright palette so output looks
// the same on terminals without 256-color support.
var (
	Red     = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	Green   = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	Yellow  = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	Blue    = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	Magenta = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	Cyan    = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	Faint   = renderer.NewStyle().Faint(true)
)

func init() {
	Configure(config.ColorNever)
}

// Configure resolves the color mode and sets the renderer profile. Call once
// during startup (from [logging.NewLogger]).
func Configure(mode config.ColorMode) {
	enabled = resolve(mode)
	if enabled {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
}

// Enabled reports whether colors are currently active.
func Enabled() bool { return enabled }

// Renderer returns the renderer behind the shared styles, for packages that
// build their own.
func Renderer() *lipgloss.Renderer { return renderer }

// resolve applies mode; auto honors the TTY, NO_COLOR
// (https://no-color.org) and TERM=dumb.
func resolve(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	default: // ColorAuto
		return IsTerminal(os.Stdout) &&
			os.Getenv("NO_COLOR") == "" &&
			strings.ToLower(os.Getenv("TERM")) != "dumb"
	}
}

// IsTerminal reports whether f is a character device.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
