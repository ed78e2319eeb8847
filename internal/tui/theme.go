package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The task list has to stay readable on light and dark terminals, so colors
// are adaptive and "faint" is only used on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted      lipgloss.TerminalColor = ac("240", "243")
	colorSelectedBg lipgloss.TerminalColor = ac("#e9e9e9", "#262626")
	colorSelectedFg lipgloss.TerminalColor = ac("235", "255")
	colorAccent     lipgloss.TerminalColor = ac("27", "62")
	colorAccentFg   lipgloss.TerminalColor = ac("255", "235")
	colorSurfaceFg  lipgloss.TerminalColor = ac("235", "252")
	colorControlBg  lipgloss.TerminalColor = ac("252", "235")
	colorBorder     lipgloss.TerminalColor = ac("250", "243")

	colorError   lipgloss.TerminalColor = ac("160", "203")
	colorOverdue lipgloss.TerminalColor = ac("160", "209")
	colorDone    lipgloss.TerminalColor = ac("28", "78")
	colorWorking lipgloss.TerminalColor = ac("130", "214")

	colorPriorityHigh lipgloss.TerminalColor = ac("160", "203")
	colorPriorityLow  lipgloss.TerminalColor = ac("244", "246")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

func styleError() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(colorError).Bold(true)
}

func styleHeader() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func styleStatus(s string) lipgloss.Style {
	st := lipgloss.NewStyle()
	switch s {
	case "done":
		return st.Foreground(colorDone)
	case "in-progress":
		return st.Foreground(colorWorking)
	default:
		return styleMuted()
	}
}

func stylePriority(p string) lipgloss.Style {
	st := lipgloss.NewStyle()
	switch p {
	case "high":
		return st.Foreground(colorPriorityHigh).Bold(true)
	case "low":
		return st.Foreground(colorPriorityLow)
	default:
		return st
	}
}

// applyColorProfilePreference sets Lip Gloss's color profile. Only NO_COLOR
// turns colors off; CLICOLOR is meant for non-interactive output.
func applyColorProfilePreference() {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	switch {
	case strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit"):
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	case strings.Contains(term, "256color"):
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}
	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures background detection.
//
// Priority:
// 1) TASKDECK_THEME=light|dark|auto
// 2) COLORFGBG heuristic ("fg;bg", last segment is the background)
func applyThemePreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TASKDECK_THEME"))) {
	case "light":
		lipgloss.SetHasDarkBackground(false)
		return
	case "dark":
		lipgloss.SetHasDarkBackground(true)
		return
	}

	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
		}
	}
}
