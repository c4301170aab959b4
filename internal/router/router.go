// Package router classifies one line of terminal input and maps it to a
// catalog response. It is pure: it never touches session state.
package router

import (
	"fmt"
	"path"
	"strings"

	"github.com/user/simterm/internal/catalog"
	"github.com/user/simterm/internal/types"
)

// Context is the read-only view of the session the router needs.
type Context struct {
	Project          *types.Project
	CurrentDirectory string
}

// Result is the outcome of routing one line. Directory is non-empty when the
// command changed the cosmetic working directory.
type Result struct {
	Response      types.CommandResponse `json:"response"`
	ClearTerminal bool                  `json:"clear_terminal,omitempty"`
	Directory     string                `json:"directory,omitempty"`
}

// Router dispatches input through literal tables first and the
// natural-language intent table last.
type Router struct {
	intents []Intent
}

// New creates a Router with the default intent table.
func New() *Router {
	return &Router{intents: DefaultIntents()}
}

// NewWithIntents creates a Router with a custom intent table.
func NewWithIntents(intents []Intent) *Router {
	return &Router{intents: intents}
}

// Intents returns the intent table in precedence order.
func (r *Router) Intents() []Intent {
	return r.intents
}

var slashCommands = map[string]func() types.CommandResponse{
	"/help":    catalog.SlashHelp,
	"/model":   catalog.ModelReport,
	"/status":  catalog.StatusReport,
	"/clear":   catalog.Cleared,
	"/compact": catalog.Compacted,
	"/cost":    catalog.CostReport,
}

var cliLiterals = map[string]func() types.CommandResponse{
	"claude --version": catalog.VersionBanner,
	"claude -v":        catalog.VersionBanner,
	"claude --help":    catalog.CLIHelp,
	"claude -h":        catalog.CLIHelp,
	"claude":           catalog.CLIHelp,
}

// Route classifies raw. The first matching rule wins.
func (r *Router) Route(raw string, ctx Context) Result {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Result{Response: types.Text("", 0)}
	}

	// Shell literals.
	switch line {
	case "clear":
		return Result{Response: types.Text("", 0), ClearTerminal: true}
	case "help":
		return Result{Response: catalog.Help()}
	case "pwd":
		return Result{Response: types.Text(ctx.CurrentDirectory, 0)}
	case "ls", "ls -l", "ls -la":
		if ctx.Project == nil {
			return noProject()
		}
		return Result{Response: catalog.LsFiles(ctx.Project)}
	}

	// Shell prefixes.
	if line == "cat" || strings.HasPrefix(line, "cat ") {
		return r.cat(strings.TrimSpace(strings.TrimPrefix(line, "cat")), ctx)
	}
	if line == "cd" || strings.HasPrefix(line, "cd ") {
		dir := changeDirectory(ctx.CurrentDirectory, strings.TrimSpace(strings.TrimPrefix(line, "cd")))
		return Result{Response: types.Text(dir, 0), Directory: dir}
	}

	// CLI literals.
	if fn, ok := cliLiterals[line]; ok {
		return Result{Response: fn()}
	}
	if fn, ok := slashCommands[line]; ok {
		return Result{Response: fn()}
	}

	// Parametric CLI forms.
	if q, ok := extractQuery(line); ok {
		if q == "" {
			return Result{Response: types.Error("Error: a prompt is required, e.g. claude -p \"describe this project\"")}
		}
		if ctx.Project == nil {
			return noProject()
		}
		return Result{Response: r.Ask(q, ctx.Project)}
	}

	return Result{Response: catalog.UnknownCommand(line)}
}

// Ask matches a free-text query against the intent table.
func (r *Router) Ask(query string, p *types.Project) types.CommandResponse {
	for _, in := range r.intents {
		file, ok := in.Match(query)
		if !ok {
			continue
		}
		if in.NeedsFile {
			file = pickFile(file, query, p)
			if file == "" {
				file = p.DefaultFile
			}
		}
		return in.Handle(file, p)
	}
	return catalog.Query(query)
}

func (r *Router) cat(name string, ctx Context) Result {
	if name == "" {
		return Result{Response: types.Error("cat: missing file operand")}
	}
	if ctx.Project == nil {
		return noProject()
	}
	f, ok := catalog.Resolve(name, ctx.Project)
	if !ok {
		return Result{Response: types.Error(fmt.Sprintf("cat: %s: No such file or directory", name))}
	}
	return Result{Response: types.Text(f.Content, 0)}
}

// extractQuery recognises claude --print/-p "<q>" and claude "<q>". Leading
// and trailing spaces and a missing closing quote are tolerated.
func extractQuery(line string) (string, bool) {
	for _, prefix := range []string{"claude --print", "claude -p"} {
		if line == prefix {
			return "", true
		}
		if strings.HasPrefix(line, prefix+" ") {
			return unquote(strings.TrimPrefix(line, prefix)), true
		}
	}
	if !strings.HasPrefix(line, "claude ") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "claude "))
	if strings.HasPrefix(rest, "-") {
		return "", false
	}
	return unquote(rest), true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`} {
		if strings.HasPrefix(s, q) {
			s = strings.TrimPrefix(s, q)
			s = strings.TrimSuffix(strings.TrimSpace(s), q)
			break
		}
	}
	return strings.TrimSpace(s)
}

// changeDirectory is cosmetic; it never checks that target exists.
func changeDirectory(cwd, target string) string {
	switch {
	case target == "" || target == "~":
		return "~"
	case strings.HasPrefix(target, "/"), strings.HasPrefix(target, "~/"):
		return path.Clean(target)
	case cwd == "":
		return path.Clean(target)
	default:
		return path.Join(cwd, target)
	}
}

func noProject() Result {
	return Result{Response: types.Error("No project loaded.")}
}

var defaultRouter = New()

// Route classifies raw with the default intent table.
func Route(raw string, ctx Context) Result {
	return defaultRouter.Route(raw, ctx)
}
