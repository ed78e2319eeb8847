package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"taskdeck/internal/model"
)

type RenderOptions struct {
	Title  string
	Filter model.Filter
	// Now decides which tasks are overdue. Zero means time.Now.
	Now time.Time
	// Links makes index entries link to the per-task files.
	Links bool
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// RenderIndexMarkdown renders tasks as a checklist in list order.
func RenderIndexMarkdown(tasks []model.Task, opt RenderOptions) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(opt.Title)
	if title == "" {
		title = "Tasks"
	}
	writeLn("# " + title)
	writeLn("")

	filter := opt.Filter
	if !filter.Valid() {
		filter = model.FilterAll
	}
	done := 0
	for _, t := range tasks {
		if t.Status == model.StatusDone {
			done++
		}
	}
	writeLn(fmt.Sprintf("Filter: %s. %d tasks, %d done.", filter, len(tasks), done))
	writeLn("")

	if len(tasks) == 0 {
		writeLn("_" + filter.EmptyMessage() + "_")
		return buf.String()
	}

	now := opt.now()
	for _, t := range tasks {
		box := "[ ]"
		if t.Status == model.StatusDone {
			box = "[x]"
		}
		text := escapeInline(t.Text)
		if opt.Links {
			text = fmt.Sprintf("[%s](tasks/%s.md)", text, t.ID)
		}
		line := "- " + box + " " + text
		if meta := metaSuffix(t, now); meta != "" {
			line += " " + meta
		}
		writeLn(line)
	}
	return buf.String()
}

// RenderTaskMarkdown renders a single task as its own document.
func RenderTaskMarkdown(t model.Task, now time.Time) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + escapeInline(t.Text))
	writeLn("")
	writeLn("- ID: " + t.ID)
	writeLn("- Status: " + t.Status.Label())
	writeLn("- Priority: " + string(t.Priority))
	if t.DueDate != "" {
		due := "- Due: " + t.DueDate
		if t.Overdue(now) {
			due += " (overdue)"
		}
		writeLn(due)
	}
	if t.HasOrder() {
		writeLn(fmt.Sprintf("- Order: %g", t.OrderValue()))
	}
	return buf.String()
}

func metaSuffix(t model.Task, now time.Time) string {
	var parts []string
	if t.Status == model.StatusInProgress {
		parts = append(parts, "in progress")
	}
	if t.Priority == model.PriorityHigh {
		parts = append(parts, "**high**")
	} else if t.Priority == model.PriorityLow {
		parts = append(parts, "low")
	}
	if t.DueDate != "" {
		if t.Overdue(now) {
			parts = append(parts, "**overdue** "+t.DueDate)
		} else {
			parts = append(parts, "due "+t.DueDate)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var inlineEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

func escapeInline(s string) string {
	return inlineEscaper.Replace(strings.TrimSpace(s))
}
