package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/petroloom-cli/internal/project"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var initDescription string

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new PetroLoom project",
	Long: `Init creates <projects_dir>/<name>/project.json. Datasets added to the
project are stored under data_dir; integration writes the unified model
into the project directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projDir, err := resolveProjectDirByName(args[0])
		if err != nil {
			return err
		}
		if err := ensureFreshDir(projDir); err != nil {
			return err
		}
		p := project.NewProject(args[0], initDescription, projDir)
		p.UserID = currentUser()
		if err := p.Validate(); err != nil {
			return err
		}
		if err := utils.EnsureDir(projDir); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		okColor.Printf("✓ Project initialized: %s\n", projDir)
		logger.WithField("project_id", p.ID).Debug("project created")
		return nil
	},
}

// ensureFreshDir fails when dir already holds a project or any other files.
func ensureFreshDir(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("inspect project directory: %w", err)
	}
	for _, e := range entries {
		if e.Name() == "project.json" {
			return fmt.Errorf("project already exists at %s", dir)
		}
	}
	if len(entries) > 0 {
		return fmt.Errorf("directory %s is not empty; refusing to initialize project", dir)
	}
	return nil
}

func expandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~") {
		return filepath.Clean(dir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir = strings.TrimPrefix(dir, "~")
	dir = strings.TrimPrefix(dir, string(os.PathSeparator))
	dir = strings.TrimPrefix(dir, "/")
	return filepath.Join(home, dir), nil
}

func defaultProjectsDir() (string, error) {
	var dir string
	if cfg != nil && cfg.ProjectsDir != "" {
		d, err := expandHome(cfg.ProjectsDir)
		if err != nil {
			return "", err
		}
		dir = d
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".petroloom", "projects")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid project name: %q", name)
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
}
