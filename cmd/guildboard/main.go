package main

import (
	"os"
	"strings"

	"guildboard-cli/internal/cli"
)

// entityKinds maps id prefixes to the kind argument of `guildboard open`.
var entityKinds = map[string]string{
	"task-":    "task",
	"project-": "project",
	"doc-":     "document",
	"init-":    "initiative",
}

func entityKind(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for prefix, kind := range entityKinds {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) {
			return kind, true
		}
	}
	return "", false
}

// rewriteDirectOpenArgs makes `guildboard <entity-id>` work like
// `guildboard open <kind> <entity-id>`.
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten
// before parsing. Users often pass persistent flags first (`guildboard
// --guild g1 task-42`), so we look for the first positional token, skipping
// flags we recognize and never consuming a value that could be the id.
func rewriteDirectOpenArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--server": true,
		"--guild":  true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insert := func(i int, kind string) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "open", kind)
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if kind, ok := entityKind(argv[i+1]); ok {
					return insert(i+1, kind)
				}
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
				continue
			}
			continue
		}
		if kind, ok := entityKind(a); ok {
			return insert(i, kind)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectOpenArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
