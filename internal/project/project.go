package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/integrate"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	projectFileName = "project.json"

	maxNameLen        = 100
	maxDescriptionLen = 500
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusDeleted  Status = "deleted"
)

// Project groups the datasets of one reservoir study and remembers the last
// unified model built from them.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// UnifiedFile is where the last integration was exported, relative to
	// the project directory.
	UnifiedFile     string             `json:"unified_file,omitempty"`
	LastIntegration *integrate.Summary `json:"last_integration,omitempty"`

	// Not serialized: on-disk location of the project.json
	rootDir string `json:"-"`
}

// NewProject constructs an in-memory project. Call Save() to persist.
func NewProject(name, description, rootDir string) *Project {
	now := time.Now()
	return &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// LoadProject loads a project.json from the provided directory.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, projectFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("project not found at %s: %w", path, errs.ErrNotFound)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var p Project
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	p.rootDir = dir
	return &p, nil
}

// ListProjects loads every project under root whose status is in statuses
// (all statuses when none are given), most recently updated first.
func ListProjects(root string, statuses ...Status) ([]*Project, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var out []*Project
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, projectFileName)); err != nil {
			continue
		}
		p, err := LoadProject(dir)
		if err != nil {
			return nil, err
		}
		if len(statuses) > 0 && !hasStatus(statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func hasStatus(list []Status, s Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// RootDir returns the on-disk project directory path.
func (p *Project) RootDir() string { return p.rootDir }

// Validate enforces the name and description limits.
func (p *Project) Validate() error {
	name := strings.TrimSpace(p.Name)
	switch {
	case name == "":
		return errors.New("project name is required")
	case len(name) > maxNameLen:
		return fmt.Errorf("project name too long (max %d characters)", maxNameLen)
	case len(p.Description) > maxDescriptionLen:
		return fmt.Errorf("project description too long (max %d characters)", maxDescriptionLen)
	case strings.ContainsAny(name, `/\`):
		return errors.New("project name must not contain path separators")
	}
	return nil
}

// Save writes project.json using atomic write.
func (p *Project) Save() error {
	if p.rootDir == "" {
		return errors.New("project root directory not set")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(p)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(p.rootDir, projectFileName), data)
}

// Active reports whether the project accepts new datasets and runs.
func (p *Project) Active() bool { return p.Status == "" || p.Status == StatusActive }

func (p *Project) Archive() { p.setStatus(StatusArchived) }

// Delete marks the project deleted; files stay on disk.
func (p *Project) Delete() { p.setStatus(StatusDeleted) }

func (p *Project) Restore() { p.setStatus(StatusActive) }

func (p *Project) setStatus(s Status) {
	p.Status = s
	p.UpdatedAt = time.Now()
}

// RecordIntegration stores the outcome of an integration run exported to file.
func (p *Project) RecordIntegration(s integrate.Summary, file string) {
	if rel, err := filepath.Rel(p.rootDir, file); err == nil && !strings.HasPrefix(rel, "..") {
		file = rel
	}
	p.UnifiedFile = file
	p.LastIntegration = &s
	p.UpdatedAt = time.Now()
}

// UnifiedPath resolves UnifiedFile against the project directory.
func (p *Project) UnifiedPath() string {
	if p.UnifiedFile == "" || filepath.IsAbs(p.UnifiedFile) {
		return p.UnifiedFile
	}
	return filepath.Join(p.rootDir, p.UnifiedFile)
}
