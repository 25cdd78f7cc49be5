package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/project"
)

var (
	listProjects bool
	listDatasets bool
	listProjName string
	listAll      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --datasets")
		}
		if listProjects {
			return listAllProjects()
		}
		p, err := loadProject(listProjName, true)
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
		printDatasets(list)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find datasets by name or type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		list, err := st.Search(cmd.Context(), currentUser(), args[0])
		if err != nil {
			return err
		}
		printDatasets(list)
		return nil
	},
}

func printDatasets(list []dataset.Dataset) {
	if len(list) == 0 {
		fmt.Println("(no datasets)")
		return
	}
	for _, ds := range list {
		state := "raw"
		if ds.Normalized {
			state = "normalized/" + string(ds.NormalizationMethod)
		}
		fmt.Printf("- %s: %s [%s] %d records (%s)\n", ds.ID, ds.Name, ds.Type, len(ds.Data), state)
	}
}

func listAllProjects() error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	statuses := []project.Status{project.StatusActive}
	if listAll {
		statuses = nil
	}
	projects, err := project.ListProjects(root, statuses...)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("(no projects)")
		return nil
	}
	for _, p := range projects {
		line := fmt.Sprintf("- %s", p.Name)
		if p.Status != project.StatusActive {
			line += fmt.Sprintf(" (%s)", p.Status)
		}
		if p.Description != "" {
			line += ": " + p.Description
		}
		fmt.Println(line)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --datasets")
	listCmd.Flags().BoolVar(&listAll, "all", false, "include archived and deleted projects")
}
