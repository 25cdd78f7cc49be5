package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/logging"
	"github.com/KaramelBytes/petroloom-cli/internal/notify"
	"github.com/KaramelBytes/petroloom-cli/internal/pipeline"
	"github.com/KaramelBytes/petroloom-cli/internal/project"
	"github.com/KaramelBytes/petroloom-cli/internal/store"
	"github.com/KaramelBytes/petroloom-cli/internal/utils"
)

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

// consoleNotifier prints pipeline events for a human at a terminal.
type consoleNotifier struct {
	w io.Writer
}

func (c consoleNotifier) Notify(e notify.Event) {
	switch e.Type {
	case notify.TypeError:
		errColor.Fprintf(c.w, "✗ %s: %s\n", e.Stage, e.Message)
	case notify.TypeSuccess:
		okColor.Fprintf(c.w, "✓ %s\n", e.Message)
	default:
		if e.Progress > 0 && e.Progress < 100 {
			dimColor.Fprintf(c.w, "  [%3d%%] %s\n", e.Progress, e.Message)
			return
		}
		dimColor.Fprintf(c.w, "  %s\n", e.Message)
	}
}

func notifier() notify.Notifier {
	console := consoleNotifier{w: os.Stdout}
	if debug {
		return notify.Multi{console, notify.LogNotifier{Log: logger}}
	}
	return console
}

func currentUser() string {
	if cfg != nil && cfg.UserID != "" {
		return cfg.UserID
	}
	return "local"
}

func openStore() (*store.FileStore, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.DataDir
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".petroloom")
	}
	dir, err := expandHome(dir)
	if err != nil {
		return nil, err
	}
	return store.NewFileStore(dir), nil
}

// newRunner wires the pipeline to the configured logger, metrics and console.
func newRunner(opts ...pipeline.Option) *pipeline.Runner {
	log := logger
	if log == nil {
		log = logging.Discard()
	}
	base := []pipeline.Option{
		pipeline.WithNotifier(notifier()),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(recorder),
	}
	if cfg != nil {
		base = append(base, pipeline.WithWorkers(cfg.Workers), pipeline.WithMinQuality(cfg.MinQualityScore))
	}
	return pipeline.NewRunner(append(base, opts...)...)
}

// loadProject resolves a project by name, or by walking up from the working
// directory when name is empty. Archived and deleted projects are refused
// unless allowInactive is set.
func loadProject(name string, allowInactive bool) (*project.Project, error) {
	var (
		dir string
		err error
	)
	if name == "" {
		dir, err = utils.FindProjectRoot("")
		if err != nil {
			return nil, fmt.Errorf("--project is required outside a project directory: %w", err)
		}
	} else {
		dir, err = resolveProjectDirByName(name)
		if err != nil {
			return nil, err
		}
	}
	p, err := project.LoadProject(dir)
	if err != nil {
		return nil, err
	}
	if !allowInactive && !p.Active() {
		return nil, fmt.Errorf("project %s is %s", p.Name, p.Status)
	}
	return p, nil
}

// getDataset loads a dataset owned by the current user.
func getDataset(ctx context.Context, st store.DatasetStore, id string) (*dataset.Dataset, error) {
	ds, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ds == nil || (ds.UserID != "" && ds.UserID != currentUser()) {
		return nil, fmt.Errorf("dataset %s: %w", id, errs.ErrNotFound)
	}
	return ds, nil
}

func projectDatasets(ctx context.Context, st store.DatasetStore, p *project.Project) ([]dataset.Dataset, error) {
	return st.List(ctx, currentUser(), p.ID)
}

// parseSeparator maps flag spellings onto a rune; empty means auto.
func parseSeparator(flag, val string, allowed map[string]rune) (rune, error) {
	v := strings.ToLower(val)
	if v == "" {
		return 0, nil
	}
	if r, ok := allowed[v]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("unsupported --%s: %s", flag, val)
}

var (
	delimiterNames = map[string]rune{",": ',', "comma": ',', ";": ';', "semicolon": ';', "\t": '\t', "tab": '\t', "|": '|', "pipe": '|'}
	decimalNames   = map[string]rune{".": '.', "dot": '.', ",": ',', "comma": ','}
	thousandsNames = map[string]rune{",": ',', "comma": ',', ".": '.', "dot": '.', " ": ' ', "space": ' '}
)

func warnf(format string, args ...any) {
	warnColor.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}
