package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/simterm/internal/projects"
)

func init() {
	rootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsShowCmd, projectsValidateCmd)
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect practice projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		library, err := projects.Load(cfg.ProjectsFile)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDIFFICULTY\tFILES\tBUGS")
		for _, p := range library.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, p.Difficulty, len(p.Files), len(p.BuggedFiles()))
		}
		return w.Flush()
	},
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		library, err := projects.Load(cfg.ProjectsFile)
		if err != nil {
			return err
		}
		p, ok := library.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", projects.ErrUnknownProject, args[0])
		}

		fmt.Printf("ID:           %s\n", p.ID)
		fmt.Printf("Name:         %s\n", p.Name)
		fmt.Printf("Difficulty:   %s\n", p.Difficulty)
		fmt.Printf("Default file: %s\n", p.DefaultFile)
		fmt.Printf("Description:  %s\n", strings.TrimSpace(p.Description))
		fmt.Println()
		fmt.Println("Files:")
		for _, f := range p.Files {
			fmt.Printf("  %s (%d lines)\n", f.Path, strings.Count(f.Content, "\n")+1)
		}
		if bugs := p.BuggedFiles(); len(bugs) > 0 {
			fmt.Println()
			fmt.Println("Bugs:")
			for _, f := range bugs {
				fmt.Printf("  - %s: %s\n", f.Path, f.BugDescription)
			}
		}
		return nil
	},
}

var projectsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a projects file for errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := projects.ReadFile(args[0])
		if err != nil {
			return err
		}
		if _, err := projects.NewLibrary(list); err != nil {
			return err
		}
		fmt.Printf("%s: %d projects OK\n", args[0], len(list))
		return nil
	},
}
