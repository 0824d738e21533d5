package styles

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/rivo/uniseg"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
// Widths are measured per grapheme cluster so wide runes are never split.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	var b strings.Builder
	width := 0
	state := -1
	rest := s
	for len(rest) > 0 {
		var cluster string
		var boundaries int
		cluster, rest, boundaries, state = uniseg.StepString(rest, state)
		w := boundaries >> uniseg.ShiftWidth
		if width+w > maxWidth-3 {
			break
		}
		b.WriteString(cluster)
		width += w
	}
	return b.String() + "..."
}

// PadRight pads s with spaces to width cells. Escape sequences take no
// cells.
func PadRight(s string, width int) string {
	if gap := width - ansi.StringWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
