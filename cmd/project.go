package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/project"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage project lifecycle",
}

var projectShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a project and its last integration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(args[0], true)
		if err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		list, err := projectDatasets(cmd.Context(), st, p)
		if err != nil {
			return err
		}
		normalized := 0
		for _, ds := range list {
			if ds.Normalized {
				normalized++
			}
		}
		fmt.Printf("Project: %s (%s)\n", p.Name, p.Status)
		if p.Description != "" {
			fmt.Printf("Description: %s\n", p.Description)
		}
		fmt.Printf("Datasets: %d (%d normalized)\n", len(list), normalized)
		if s := p.LastIntegration; s != nil {
			fmt.Printf("Last integration: %d records from %d datasets, %d data types\n", s.Records, s.NormalizedDatasets, s.DataTypes)
			fmt.Printf("Unified model: %s\n", p.UnifiedPath())
		}
		return nil
	},
}

func lifecycleCmd(use, short, done string, apply func(*project.Project)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(args[0], true)
			if err != nil {
				return err
			}
			apply(p)
			if err := p.Save(); err != nil {
				return err
			}
			fmt.Printf("✓ Project %s %s\n", p.Name, done)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(lifecycleCmd("archive", "Archive a project; it stops accepting datasets and runs", "archived", (*project.Project).Archive))
	projectCmd.AddCommand(lifecycleCmd("restore", "Make an archived or deleted project active again", "restored", (*project.Project).Restore))
	projectCmd.AddCommand(lifecycleCmd("delete", "Mark a project deleted (files stay on disk)", "deleted", (*project.Project).Delete))
}
