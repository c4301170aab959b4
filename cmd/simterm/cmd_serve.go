package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/user/simterm/internal/config"
	"github.com/user/simterm/internal/projects"
	"github.com/user/simterm/internal/scheduler"
	"github.com/user/simterm/internal/telegram"
	"github.com/user/simterm/internal/webhook"
)

var serveProject string

func init() {
	serveCmd.Flags().StringVarP(&serveProject, "project", "p", "", "project to open at startup")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the terminal as a daemon behind HTTP, Telegram and the scheduler",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "simterm.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

// scheduleEntries turns the schedule config section into cron entries.
func scheduleEntries(cfg *config.Config) []scheduler.Entry {
	var entries []scheduler.Entry
	if cfg.Schedule.Reset != "" {
		entries = append(entries, scheduler.Entry{Name: "reset", Schedule: cfg.Schedule.Reset})
	}
	for i, a := range cfg.Schedule.Autoplay {
		entries = append(entries, scheduler.Entry{
			Name:     fmt.Sprintf("autoplay-%d", i+1),
			Schedule: a.Schedule,
			Command:  a.Command,
		})
	}
	return entries
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg, os.Stderr)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	entries := scheduleEntries(cfg)
	if err := scheduler.Validate(entries); err != nil {
		return err
	}

	e, err := newEngine(cfg, false)
	if err != nil {
		return err
	}
	start, err := e.startProject(serveProject, cfg)
	if err != nil {
		return err
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e.gateway.Start(ctx)
	defer e.gateway.Stop()

	events := webhook.NewEventBuffer(0)
	e.sinks.Register("http", events)
	e.gateway.Observe(events)

	turn, err := e.gateway.SwitchProject("serve", start)
	if err != nil {
		return err
	}
	if err := turn.Wait(ctx); err != nil {
		return fmt.Errorf("open project %s: %w", start, err)
	}

	slog.Info("simterm started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"project", start,
		"projects", len(e.library.List()),
		"instant_typing", cfg.Typing.Instant,
		"speed_scale", cfg.Typing.SpeedScale,
		"pid_file", pidPath,
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.ChatID, e.gateway)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		e.sinks.Register("telegram", adapter)
		g.Go(func() error { return adapter.Start(gctx) })
		slog.Info("telegram adapter enabled", "chat_id", cfg.Telegram.ChatID)
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	sched := scheduler.New(e.gateway, entries)
	slog.Info("scheduler started", "entries", sched.Start())
	defer sched.Stop()

	if cfg.WatchProjects && cfg.ProjectsFile != "" {
		watcher := projects.NewWatcher(cfg.ProjectsFile, e.library, func() {
			slog.Info("projects reloaded", "count", len(e.library.List()))
		})
		g.Go(func() error { return watcher.Run(gctx) })
	}

	if cfg.HTTP.Enabled {
		httpServer := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           webhook.NewServer(e.gateway, e.runtime, e.library, events),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			slog.Info("http server started", "listen", cfg.HTTP.Listen)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return httpServer.Close()
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-gctx.Done():
			cancel()
			return g.Wait()
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				slog.Info("received SIGHUP, restarting")
				restart(cfg.DataDir, pidPath)
				continue
			}
			slog.Info("shutting down", "signal", sig)
			cancel()
			return g.Wait()
		}
	}
}

// restart replaces the process image. It only returns if exec fails.
func restart(dataDir, pidPath string) {
	execPath, err := os.Executable()
	if err != nil {
		slog.Error("failed to get executable path", "error", err)
		return
	}
	os.Remove(pidPath)
	if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
		slog.Error("failed to re-exec", "error", err)
		if _, writeErr := writePIDFile(dataDir); writeErr != nil {
			slog.Error("failed to re-write PID file", "error", writeErr)
		}
	}
}
