// Package term holds the process-wide color decision.
//
// Logging and display concatenate the exported sequences directly, so they
// are empty strings while colors are off. The lipgloss profile is switched
// together with them and styled tables stay plain in a pipe.
package term

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/backmassage/beatcut/internal/config"
)

// Bright bold SGR sequences, empty while colors are off.
var (
	Red, Green, Yellow, Blue, Cyan, Magenta string

	// NC resets all attributes.
	NC string
)

// sgr builds a bold bright-foreground sequence for color code c (91..96).
func sgr(c string) string {
	return termenv.CSI + termenv.BoldSeq + ";" + c + "m"
}

// Configure decides on colors for stdout and applies the result.
func Configure(mode config.ColorMode) {
	set(resolve(mode, os.Getenv, IsTerminal(os.Stdout)))
}

func set(on bool) {
	if !on {
		Red, Green, Yellow, Blue, Cyan, Magenta, NC = "", "", "", "", "", "", ""
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	Red, Green, Yellow = sgr("91"), sgr("92"), sgr("93")
	Blue, Magenta, Cyan = sgr("94"), sgr("95"), sgr("96")
	NC = termenv.CSI + termenv.ResetSeq + "m"
	lipgloss.SetColorProfile(termenv.ANSI256)
}

// Enabled reports whether colors are on.
func Enabled() bool { return NC != "" }

// Paint wraps s in color when colors are enabled.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + NC
}

// resolve applies the --color mode. Auto mode needs a TTY and honours
// NO_COLOR (https://no-color.org) and TERM=dumb.
func resolve(mode config.ColorMode, getenv func(string) string, tty bool) bool {
	if mode == config.ColorAlways || mode == config.ColorNever {
		return mode == config.ColorAlways
	}
	if !tty || getenv("NO_COLOR") != "" {
		return false
	}
	return !strings.EqualFold(getenv("TERM"), "dumb")
}

// IsTerminal reports whether f is a terminal, including Cygwin/MSYS ptys.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
