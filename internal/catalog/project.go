package catalog

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/user/simterm/internal/types"
)

// Step delays for the fix and test walkthroughs.
var (
	analyzeDelay = 800 * time.Millisecond
	planDelay    = 1000 * time.Millisecond
	applyDelay   = 1200 * time.Millisecond
	verifyDelay  = 700 * time.Millisecond
)

// Describe summarizes the project. The bug section is present only when at
// least one file is flagged.
func Describe(p *types.Project) types.CommandResponse {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", p.Name)
	if p.Description != "" {
		b.WriteString(p.Description)
		b.WriteString("\n\n")
	}
	if p.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n\n", p.Difficulty)
	}

	fmt.Fprintf(&b, "Files (%d):\n", len(p.Files))
	for _, f := range p.Files {
		lang := ""
		if f.Language != "" {
			lang = " (" + f.Language + ")"
		}
		fmt.Fprintf(&b, "  - %s%s\n", f.Path, lang)
	}

	if bugged := p.BuggedFiles(); len(bugged) > 0 {
		fmt.Fprintf(&b, "\n⚠ Potential issues found (%d):\n", len(bugged))
		for _, f := range bugged {
			fmt.Fprintf(&b, "  • %s: %s\n", f.Path, f.BugDescription)
		}
		b.WriteString("\nAsk me to fix them, e.g. claude \"fix the bug in " + bugged[0].Name + "\"")
	} else {
		b.WriteString("\nNo known issues. Try asking me to explain a file or write tests.")
	}
	return types.AIResponse(b.String(), AITypingSpeed)
}

// ListFiles enumerates every path, marking bugged files.
func ListFiles(p *types.Project) types.CommandResponse {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files in %s:\n", len(p.Files), p.Name)
	for _, f := range p.Files {
		if f.HasBug {
			fmt.Fprintf(&b, "  ✗ %s  [bug]\n", f.Path)
		} else {
			fmt.Fprintf(&b, "  · %s\n", f.Path)
		}
	}
	return types.Text(strings.TrimRight(b.String(), "\n"), 0)
}

// LsFiles is the shell listing: literal paths in project order, no markers.
func LsFiles(p *types.Project) types.CommandResponse {
	return types.FileList(p.Paths())
}

// Explain walks through one file. A miss lists the available paths instead.
func Explain(name string, p *types.Project) types.CommandResponse {
	f, ok := Resolve(name, p)
	if !ok {
		return types.AIResponse(notFoundText(name, p), AITypingSpeed)
	}

	lines := strings.Split(strings.TrimRight(f.Content, "\n"), "\n")
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", f.Path)
	fmt.Fprintf(&b, "Language: %s, %d lines.\n\n", orUnknown(f.Language), len(lines))
	b.WriteString("What it does:\n")
	for _, l := range outline(lines) {
		fmt.Fprintf(&b, "  - %s\n", l)
	}
	if f.HasBug {
		fmt.Fprintf(&b, "\n⚠ Heads up: %s", f.BugDescription)
	}
	return types.AIResponse(strings.TrimRight(b.String(), "\n"), AITypingSpeed)
}

// FixBug walks through a fix when the file has a bug. Missing and clean
// files get distinct single-shot answers.
func FixBug(name string, p *types.Project) types.CommandResponse {
	f, ok := Resolve(name, p)
	if !ok {
		return types.AIResponse(notFoundText(name, p), AITypingSpeed)
	}
	if !f.HasBug {
		return types.AIResponse(fmt.Sprintf("I looked through %s and found no bug to fix. The code looks correct.", f.Path), AITypingSpeed)
	}
	return types.MultiStep(
		types.SimulationStep{Label: "analyze", Content: fmt.Sprintf("🔍 Analyzing %s...", f.Path), Delay: analyzeDelay},
		types.SimulationStep{Label: "plan", Content: fmt.Sprintf("📋 Found the issue: %s\n   Planning a minimal fix.", f.BugDescription), Delay: planDelay},
		types.SimulationStep{Label: "apply", Content: fmt.Sprintf("✏️  Applying fix to %s...", f.Path), Delay: applyDelay},
		types.SimulationStep{Label: "verify", Content: fmt.Sprintf("✅ Verified. The bug in %s is fixed.", f.Path), Delay: verifyDelay},
	)
}

// WriteTests generates a test walkthrough. A missing file is an error since
// nothing further can be done.
func WriteTests(name string, p *types.Project) types.CommandResponse {
	f, ok := Resolve(name, p)
	if !ok {
		return types.Error(fmt.Sprintf("Cannot write tests: file not found: %s", name))
	}
	testFile := TestFileName(f.Path)
	passed := passCount(f.Content)
	return types.MultiStep(
		types.SimulationStep{Label: "analyze", Content: fmt.Sprintf("🔍 Reading %s to find testable behavior...", f.Path), Delay: analyzeDelay},
		types.SimulationStep{Label: "plan", Content: fmt.Sprintf("📋 Planning %d test cases covering happy paths and edge cases.", passed), Delay: planDelay},
		types.SimulationStep{Label: "apply", Content: fmt.Sprintf("✏️  Writing %s...", testFile), Delay: applyDelay},
		types.SimulationStep{Label: "verify", Content: fmt.Sprintf("✅ Created %s. %d tests passed.", testFile, passed), Delay: verifyDelay},
	)
}

// TestFileName inserts ".test" before the extension: todos.js → todos.test.js.
func TestFileName(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return p + ".test"
	}
	return strings.TrimSuffix(p, ext) + ".test" + ext
}

func passCount(content string) int {
	n := 3 + strings.Count(content, "\n")/8
	if n > 12 {
		n = 12
	}
	return n
}

func notFoundText(name string, p *types.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I couldn't find a file named %q in this project.\n\nAvailable files:\n", name)
	for _, path := range p.Paths() {
		fmt.Fprintf(&b, "  - %s\n", path)
	}
	return strings.TrimRight(b.String(), "\n")
}

// outline picks up to five non-trivial lines as talking points.
func outline(lines []string) []string {
	var out []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if len(l) < 8 || strings.HasPrefix(l, "//") || strings.HasPrefix(l, "#") || l == "});" {
			continue
		}
		out = append(out, "`"+l+"`")
		if len(out) == 5 {
			break
		}
	}
	if len(out) == 0 {
		out = append(out, "a short file with no notable statements")
	}
	return out
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
