package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// truncateCell cuts s (ANSI-aware) to at most width columns, ending in an ellipsis.
// Newlines are folded so a multi-line value never breaks a table row.
func truncateCell(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return xansi.Truncate(s, 1, "")
	}
	return xansi.Truncate(s, width, "…")
}

// normalizePane forces s to exactly width columns and height lines so fixed chrome
// (header, footer) never shifts when content changes. height <= 0 keeps the line count.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = truncateLine(ln, width)
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

func truncateLine(ln string, width int) string {
	switch {
	case width <= 0:
		return ""
	case width == 1:
		return xansi.Cut(ln, 0, 1)
	default:
		return xansi.Cut(ln, 0, width-1) + "…"
	}
}
