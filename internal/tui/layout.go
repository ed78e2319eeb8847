package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// fitWidth forces s to exactly width columns (ANSI-aware), cutting with an
// ellipsis or padding with spaces.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		ell := glyphEllipsis()
		ew := xansi.StringWidth(ell)
		if width <= ew {
			return xansi.Cut(s, 0, width)
		}
		s = xansi.Cut(s, 0, width-ew) + ell
		w = xansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// truncate cuts s to at most width columns without padding.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return xansi.Truncate(s, width, glyphEllipsis())
}

func hrule(width int) string {
	if width <= 0 {
		return ""
	}
	return styleMuted().Render(strings.Repeat(glyphHRule(), width))
}
