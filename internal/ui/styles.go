package ui

import "fmt"

// ANSI256 color codes used by the CLI output.
const (
	colorTopic = 74  // blue, event subjects
	colorOK    = 114 // green, healthy engine state
	colorWarn  = 215 // orange, degraded or blocked state
	colorMuted = 245 // medium gray, timestamps and trace IDs
)

var noColor bool

// RenderTopic returns s styled as an event subject.
func RenderTopic(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorTopic, s)
}

// RenderOK returns s in the healthy (green) color.
func RenderOK(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorOK, s)
}

// RenderWarn returns s in the warning (orange) color.
func RenderWarn(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorWarn, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", colorMuted, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
