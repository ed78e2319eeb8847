// Package publish writes a task list out as markdown files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskdeck/internal/model"
)

type WriteOptions struct {
	Title     string
	Filter    model.Filter
	Overwrite bool
	Now       time.Time
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteTasks writes <toDir>/index.md plus one <toDir>/tasks/<id>.md per task.
func WriteTasks(tasks []model.Task, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if opt.Now.IsZero() {
		opt.Now = time.Now()
	}

	tasksDir := filepath.Join(toDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	var written []string
	indexPath := filepath.Join(toDir, "index.md")
	index := RenderIndexMarkdown(tasks, RenderOptions{Title: opt.Title, Filter: opt.Filter, Now: opt.Now, Links: true})
	if err := writeFile(indexPath, []byte(index), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written = append(written, indexPath)

	for _, t := range tasks {
		id := strings.TrimSpace(t.ID)
		if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
			return WriteResult{Written: written}, errors.New("unsafe task id for a file name: " + t.ID)
		}
		p := filepath.Join(tasksDir, id+".md")
		if err := writeFile(p, []byte(RenderTaskMarkdown(t, opt.Now)), opt.Overwrite); err != nil {
			return WriteResult{Written: written}, err
		}
		written = append(written, p)
	}

	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
