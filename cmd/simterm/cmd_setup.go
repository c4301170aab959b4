package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/simterm/internal/config"
	"github.com/user/simterm/internal/projects"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("simterm setup")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		cfg.ProjectsFile = prompt(scanner, "Projects file (empty for built-in samples)", cfg.ProjectsFile)

		library, err := projects.Load(cfg.ProjectsFile)
		if err != nil {
			return err
		}
		def := cfg.DefaultProject
		if def == "" {
			def = library.Default().ID
		}
		def = prompt(scanner, "Default project", def)
		if _, ok := library.Get(def); !ok {
			fmt.Printf("Unknown project %q, using %s. Available: %s\n", def, library.Default().ID, strings.Join(libraryIDs(library), ", "))
			def = library.Default().ID
		}
		cfg.DefaultProject = def

		scale := prompt(scanner, "Typing speed scale (0 for instant)", strconv.FormatFloat(cfg.Typing.SpeedScale, 'g', -1, 64))
		if f, err := strconv.ParseFloat(scale, 64); err == nil && f >= 0 {
			cfg.Typing.SpeedScale = f
			cfg.Typing.Instant = f == 0
		}

		cfg.HTTP.Listen = prompt(scanner, "HTTP listen address", cfg.HTTP.Listen)

		cfg.Telegram.Token = prompt(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)
		if cfg.Telegram.Token != "" {
			chat := prompt(scanner, "Telegram chat ID (0 binds to the first chat)", strconv.FormatInt(cfg.Telegram.ChatID, 10))
			if n, err := strconv.ParseInt(chat, 10, 64); err == nil {
				cfg.Telegram.ChatID = n
			}
		}

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

func libraryIDs(library *projects.Library) []string {
	var ids []string
	for _, p := range library.List() {
		ids = append(ids, p.ID)
	}
	return ids
}

// prompt displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func prompt(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}
