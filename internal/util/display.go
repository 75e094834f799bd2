package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal control sequences
const (
	ColorReset   = "\033[0m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorRed     = "\033[31m"
	ColorMagenta = "\033[35m"
	ColorWhite   = "\033[37m"
	ColorGray    = "\033[90m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"

	// Terminal control sequences
	ClearScreen         = "\033[2J"     // Clear entire screen
	ClearLine           = "\033[2K"     // Clear entire line
	ClearLineFromCursor = "\033[0K"     // Clear from cursor to end of line
	ClearToScreenEnd    = "\033[0J"     // Clear from cursor to end of screen
	ClearScrollback     = "\033[3J"     // Clear scrollback buffer
	MoveCursorHome      = "\033[H"      // Move cursor to home position
	HideCursor          = "\033[?25l"   // Hide cursor
	ShowCursor          = "\033[?25h"   // Show cursor
	EnterAltScreen      = "\033[?1049h" // Switch to alternate screen buffer
	ExitAltScreen       = "\033[?1049l" // Return to main screen buffer
)

// GetDisplayWidth calculates the actual display width of a string, accounting for emojis
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// CreateProgressBar renders a bar for a ratio in [0, 1] at the given total width
// (including the surrounding brackets).
func CreateProgressBar(ratio float64, width int) string {
	if width < 4 {
		width = 4
	}
	barWidth := width - 2
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// MoveCursor returns ANSI sequence to move cursor to specific position
func MoveCursor(row, col int) string {
	return fmt.Sprintf("\033[%d;%dH", row, col)
}

// CenterText centers text within the given width, measured in display cells
func CenterText(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return TruncateText(text, width)
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-padding-w)
}

// PadRight pads text with spaces up to width display cells
func PadRight(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return TruncateText(text, width)
	}
	return text + strings.Repeat(" ", width-w)
}

// TruncateText cuts text down to at most width display cells, appending an
// ellipsis when something was removed.
func TruncateText(text string, width int) string {
	if GetDisplayWidth(text) <= width {
		return text
	}
	if width <= 1 {
		return strings.Repeat(".", width)
	}
	return runewidth.Truncate(text, width-1, "") + "…"
}
