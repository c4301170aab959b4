package catalog

import (
	"fmt"
	"time"

	"github.com/user/simterm/internal/types"
)

const (
	// AITypingSpeed paces assistant-style answers.
	AITypingSpeed = 12 * time.Millisecond
	// BannerTypingSpeed paces short CLI banners.
	BannerTypingSpeed = 4 * time.Millisecond

	// Version is reported by `claude --version`.
	Version = "1.0.0"
	// Model is the simulated model name shown by /model and /status.
	Model = "claude-sonnet (simulated)"
)

func VersionBanner() types.CommandResponse {
	return types.Text(fmt.Sprintf("%s (simulated claude CLI)", Version), 0)
}

func Help() types.CommandResponse {
	return types.Text(`Available commands:

  Shell
    ls, ls -l, ls -la     List project files
    cat <file>            Print a file
    cd [dir]              Change directory
    pwd                   Print working directory
    clear                 Clear the terminal
    help                  Show this help

  Claude CLI
    claude                Show CLI help
    claude --version      Show version
    claude "<question>"   Ask about the project
    claude -p "<question>" Ask and print the answer

  Slash commands
    /help /model /status /cost /compact /clear

Try: claude "describe this project"`, 0)
}

func CLIHelp() types.CommandResponse {
	return types.Text(`Usage: claude [options] [prompt]

Options:
  -p, --print <prompt>   Print the response and exit
  -v, --version          Output the version number
  -h, --help             Display help for command

Examples:
  claude "describe this project"
  claude "explain index.js"
  claude "fix the bug in index.js"
  claude -p "write tests for routes/todos.js"`, BannerTypingSpeed)
}

func SlashHelp() types.CommandResponse {
	return types.Text(`Slash commands:
  /help      Show this help
  /model     Show the current model
  /status    Show session status
  /cost      Show token usage and cost for this session
  /compact   Compact the conversation
  /clear     Clear conversation history`, 0)
}

func ModelReport() types.CommandResponse {
	return types.Text(fmt.Sprintf("Current model: %s\nContext window: 200k tokens", Model), 0)
}

func StatusReport() types.CommandResponse {
	return types.Text(fmt.Sprintf(`Status
  Version:  %s
  Model:    %s
  Mode:     interactive (simulated)
  Auth:     demo account`, Version, Model), 0)
}

func CostReport() types.CommandResponse {
	return types.Text(`Total cost:            $0.0000
Total duration (API):  0.0s
Total code changes:    0 lines added, 0 lines removed
Usage:                 this is a simulation, no tokens were used`, 0)
}

func Refactor() types.CommandResponse {
	return types.MultiStep(
		types.SimulationStep{Label: "analyze", Content: "Scanning the project for duplicated logic...", Delay: 700 * time.Millisecond},
		types.SimulationStep{Label: "plan", Content: "Plan: extract shared helpers, tighten naming, split long functions.", Delay: 900 * time.Millisecond},
		types.SimulationStep{Label: "apply", Content: "Applying refactor in small, behavior-preserving steps...", Delay: 1100 * time.Millisecond},
		types.SimulationStep{Label: "verify", Content: "Refactor complete. Behavior unchanged, code is easier to read.", Delay: 600 * time.Millisecond},
	)
}

func Cleared() types.CommandResponse {
	return types.Text("Conversation history cleared.", 0)
}

func Compacted() types.CommandResponse {
	return types.Text("Conversation compacted. Summary kept in context.", 0)
}

// UnknownCommand echoes raw verbatim.
func UnknownCommand(raw string) types.CommandResponse {
	return types.Error(fmt.Sprintf("command not found: %s\nType 'help' to see available commands.", raw))
}

// Query answers a question none of the known intents matched. An
// unrecognized question is not an unrecognized command, so this is never an
// error.
func Query(q string) types.CommandResponse {
	return types.AIResponse(fmt.Sprintf(`I received your question: "%s"

This demo understands a handful of requests. Try one of:
  - describe this project
  - list files
  - explain <file>
  - fix the bug in <file>
  - write tests for <file>
  - refactor`, q), AITypingSpeed)
}
