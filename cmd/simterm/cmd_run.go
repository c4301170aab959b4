package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/user/simterm/internal/types"
)

var (
	runProject    string
	runTranscript bool
)

func init() {
	runCmd.Flags().StringVarP(&runProject, "project", "p", "", "project to open")
	runCmd.Flags().BoolVar(&runTranscript, "transcript", false, "print the session transcript instead of live output")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [command]...",
	Short: "Run commands non-interactively",
	Long:  "Run each argument as a terminal command. With no arguments, commands are read from stdin one per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg, os.Stderr)

		e, err := newEngine(cfg, true)
		if err != nil {
			return err
		}
		start, err := e.startProject(runProject, cfg)
		if err != nil {
			return err
		}
		if !runTranscript {
			e.sinks.Register("stdout", newPrintSink(cmd.OutOrStdout()))
		}

		if err := runCommands(cmd.Context(), e, start, args, cmd.InOrStdin()); err != nil {
			return err
		}

		if runTranscript {
			text, err := e.runtime.Transcript()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
		}
		return nil
	},
}

// runCommands opens a session on project and feeds it each command in
// turn. Commands come from args, or from r when args is empty.
func runCommands(ctx context.Context, e *engine, project string, args []string, r io.Reader) error {
	if _, err := e.runtime.InitSession(project); err != nil {
		return err
	}

	if len(args) > 0 {
		for _, line := range args {
			if err := e.runtime.ProcessTurn(ctx, line); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := e.runtime.ProcessTurn(ctx, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read commands: %w", err)
	}
	return nil
}

var (
	printInput  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	printError  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	printSystem = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	printAI     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// printSink writes terminal lines to a plain writer with ANSI colour.
type printSink struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrintSink(w io.Writer) *printSink {
	return &printSink{w: w}
}

func (s *printSink) Write(text string, lineType types.LineType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch lineType {
	case types.LineInput:
		fmt.Fprintln(s.w, printInput.Render("$ "+text))
	case types.LineError:
		fmt.Fprintln(s.w, printError.Render(text))
	case types.LineSystem:
		fmt.Fprintln(s.w, printSystem.Render(text))
	case types.LineAIResponse:
		fmt.Fprintln(s.w, printAI.Render(strings.TrimRight(text, "\n")))
	default:
		fmt.Fprintln(s.w, text)
	}
}
