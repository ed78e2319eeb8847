package main

import (
	"os"
	"strings"

	"taskdeck/internal/cli"

	"github.com/google/uuid"
)

// isTaskID recognizes the ids backends hand out: UUIDs from `taskdeck serve`
// and integers from json-server.
func isTaskID(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Persistent flags that take a value; their value must not be mistaken for
// the first positional token.
var valueFlags = map[string]bool{
	"--api":       true,
	"--format":    true,
	"--timeout":   true,
	"--page-size": true,
}

// rewriteTaskShortcut turns `taskdeck [flags] <task-id>` into
// `taskdeck [flags] tasks show <task-id>`. Cobra would otherwise read the id
// as a subcommand.
func rewriteTaskShortcut(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	insertAt := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "tasks", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		switch {
		case a == "":
			continue
		case a == "--":
			if i+1 < len(argv) && isTaskID(argv[i+1]) {
				return insertAt(i + 1)
			}
			return argv
		case strings.HasPrefix(a, "-"):
			// Unknown and bool flags take no value; --flag=value is one token.
			if valueFlags[a] {
				i++
			}
			continue
		case isTaskID(a):
			return insertAt(i)
		default:
			return argv
		}
	}
	return argv
}

func main() {
	os.Args = rewriteTaskShortcut(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
