package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/simterm/internal/tui"
)

var playProject string

func init() {
	playCmd.Flags().StringVarP(&playProject, "project", "p", "", "project to open")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the interactive terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		// Logs would corrupt the full-screen UI; send them to a file.
		var logOut io.Writer = io.Discard
		if err := os.MkdirAll(cfg.DataDir, 0755); err == nil {
			f, err := os.OpenFile(filepath.Join(cfg.DataDir, "simterm.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				defer f.Close()
				logOut = f
			}
		}
		setupLogging(cfg, logOut)

		e, err := newEngine(cfg, false)
		if err != nil {
			return err
		}
		start, err := e.startProject(playProject, cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		e.gateway.Start(ctx)
		defer e.gateway.Stop()

		sink := tui.NewSink()
		e.sinks.Register("tui", sink)
		defer e.sinks.Unregister("tui")

		model := tui.New(e.gateway, e.runtime, e.projectIDs(), start)
		if err := tui.Run(ctx, model, sink); err != nil {
			return fmt.Errorf("play: %w", err)
		}
		return nil
	},
}
