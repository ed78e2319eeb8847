package docs

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
)

//go:embed content/*.md
var contentFS embed.FS

func Topics() []string {
	entries, err := fs.Glob(contentFS, "content/*.md")
	if err != nil {
		return []string{}
	}
	var topics []string
	for _, p := range entries {
		base := path.Base(p)
		topic := strings.TrimSuffix(base, path.Ext(base))
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

func Get(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	b, err := contentFS.ReadFile(path.Join("content", topic+".md"))
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Render renders markdown for a terminal of the given width. On any renderer
// failure the raw markdown is returned.
func Render(md string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		// WithAutoStyle can block on terminal queries; pick the style up front.
		glamour.WithStandardStyle(Style()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// Style returns "dark", "light" or "notty" for the current terminal.
// TASKDECK_THEME=light|dark overrides detection.
func Style() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("TASKDECK_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	out := termenv.NewOutput(os.Stdout)
	if out.Profile == termenv.Ascii {
		return "notty"
	}
	if out.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
