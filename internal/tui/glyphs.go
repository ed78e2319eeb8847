package tui

import (
	"os"
	"strings"
	"sync"
)

// Some fonts render box-drawing and check marks poorly, so every affordance
// has an ASCII fallback (TASKDECK_TUI_GLYPHS=ascii).

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TASKDECK_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	default:
		// Unknown value: ignore.
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphChecked() string {
	if glyphs() == glyphSetASCII {
		return "[x]"
	}
	return "☑"
}

func glyphUnchecked() string {
	if glyphs() == glyphSetASCII {
		return "[ ]"
	}
	return "☐"
}

// glyphGrab marks the task being reordered.
func glyphGrab() string {
	if glyphs() == glyphSetASCII {
		return "="
	}
	return "≡"
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}

func glyphEllipsis() string {
	if glyphs() == glyphSetASCII {
		return "..."
	}
	return "…"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}
