package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/simterm/internal/transcript"
	"github.com/user/simterm/internal/types"
)

var (
	transcriptProject string
	transcriptTokens  bool
	transcriptModel   string
)

func init() {
	transcriptCmd.Flags().StringVarP(&transcriptProject, "project", "p", "", "project to open")
	transcriptCmd.Flags().BoolVar(&transcriptTokens, "tokens", false, "report token counts instead of the transcript")
	transcriptCmd.Flags().StringVar(&transcriptModel, "model", "gpt-4o", "tokenizer model for --tokens")
	rootCmd.AddCommand(transcriptCmd)
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript [command]...",
	Short: "Run commands and export the session transcript",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg, os.Stderr)

		e, err := newEngine(cfg, true)
		if err != nil {
			return err
		}
		start, err := e.startProject(transcriptProject, cfg)
		if err != nil {
			return err
		}
		if err := runCommands(cmd.Context(), e, start, args, cmd.InOrStdin()); err != nil {
			return err
		}

		if !transcriptTokens {
			text, err := e.runtime.Transcript()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		}

		sess, _ := e.runtime.Snapshot()
		counter, err := transcript.NewTokenCounter(transcriptModel)
		if err != nil {
			return err
		}
		stats := counter.Measure(sess)

		lineTypes := make([]string, 0, len(stats.ByType))
		for t := range stats.ByType {
			lineTypes = append(lineTypes, string(t))
		}
		sort.Strings(lineTypes)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tTOKENS")
		for _, t := range lineTypes {
			fmt.Fprintf(w, "%s\t%d\n", t, stats.ByType[types.LineType(t)])
		}
		fmt.Fprintf(w, "total\t%d\n", stats.Total)
		return w.Flush()
	},
}
