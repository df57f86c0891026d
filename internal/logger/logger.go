// Package logger provides tagged console output for the CLI.
package logger

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

var quiet bool

// SetQuiet suppresses all output except errors.
func SetQuiet(q bool) {
	quiet = q
}

func colorized() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func paint(color, s string) string {
	if !colorized() {
		return s
	}
	return color + s + colorReset
}

func emit(color, tag, msg string) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stdout, "%s %s\n", paint(color, "["+tag+"]"), msg)
}

// Info logs a neutral progress message.
func Info(tag, format string, args ...interface{}) {
	emit(colorCyan, tag, fmt.Sprintf(format, args...))
}

// Success logs a completed step.
func Success(tag, format string, args ...interface{}) {
	emit(colorGreen, tag, fmt.Sprintf(format, args...))
}

// Warn logs a recoverable problem.
func Warn(tag, format string, args ...interface{}) {
	emit(colorYellow, tag, fmt.Sprintf(format, args...))
}

// Error logs a failure. Not suppressed by quiet mode.
func Error(tag, format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", paint(colorRed, "["+tag+"]"), fmt.Sprintf(format, args...))
}

// Banner prints the startup header with the build version.
func Banner(version string) {
	if quiet {
		return
	}
	title := "eve-tradeworks"
	if version != "" {
		title += " " + version
	}
	fmt.Fprintln(os.Stdout, paint(colorBold, title))
}

// Section prints a visual divider before a block of related output.
func Section(name string) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stdout, "\n%s\n", paint(colorBold, "--- "+name+" ---"))
}

// Stats prints a single key/value statistic line.
func Stats(key string, value interface{}) {
	if quiet {
		return
	}
	fmt.Fprintf(os.Stdout, "  %s %v\n", paint(colorDim, key+":"), value)
}
