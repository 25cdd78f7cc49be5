package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// resetFlags puts every flag back to its default so state from one
// invocation does not leak into the next.
func resetFlags(c interface {
	Flags() *pflag.FlagSet
	PersistentFlags() *pflag.FlagSet
}) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
		for _, sub := range c.Commands() {
			resetFlags(sub)
		}
	}
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "tester")
	for _, k := range []string{"PETROLOOM_DEFAULT_METHOD", "PETROLOOM_EXPORT_FORMAT", "PETROLOOM_MIN_QUALITY_SCORE", "PETROLOOM_DATA_DIR", "PETROLOOM_PROJECTS_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func datasetIDs(t *testing.T, home string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(home, ".petroloom", "datasets"))
	if err != nil {
		t.Fatalf("read datasets dir: %v", err)
	}
	var ids []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".json") {
			ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	return ids
}

func TestCLI_Init_Add_Normalize_Integrate(t *testing.T) {
	home := isolateHome(t)

	prod := filepath.Join(home, "production_rates.csv")
	writeFile(t, prod, "date,oil_rate,gas_rate,water_cut\n2024-01-01,120.5,800,0.1\n2024-02-01,118,790,0.12\n2024-03-01,,785,0.15\n")
	core := filepath.Join(home, "core_plugs.csv")
	writeFile(t, core, "depth;porosity;permeability\n2500,5;0,21;150\n2501,0;0,19;120\n")

	runCmd(t, "init", "northsea", "-d", "north sea field")
	runCmd(t, "add", "-p", "northsea", prod)
	runCmd(t, "add", "-p", "northsea", "--decimal", "comma", core)
	runCmd(t, "list", "--datasets", "-p", "northsea")

	ids := datasetIDs(t, home)
	if len(ids) != 2 {
		t.Fatalf("expected 2 stored datasets, got %d", len(ids))
	}
	runCmd(t, "preview", ids[0])
	runCmd(t, "validate", ids[0])
	runCmd(t, "clean", "-p", "northsea", "--dry-run")

	runCmd(t, "normalize", "-p", "northsea", "-m", "minmax")
	for _, id := range ids {
		b, err := os.ReadFile(filepath.Join(home, ".petroloom", "datasets", id+".json"))
		if err != nil {
			t.Fatalf("read dataset: %v", err)
		}
		if !strings.Contains(string(b), `"normalized": true`) || !strings.Contains(string(b), `"normalization_method": "minmax"`) {
			t.Fatalf("dataset %s not normalized: %s", id, b)
		}
	}
	// Already normalized datasets are skipped without error.
	runCmd(t, "normalize", "-p", "northsea")

	runCmd(t, "integrate", "-p", "northsea")
	projDir := filepath.Join(home, ".petroloom", "projects", "northsea")
	unified, err := os.ReadFile(filepath.Join(projDir, "unified_reservoir_model.json"))
	if err != nil {
		t.Fatalf("expected unified model: %v", err)
	}
	for _, want := range []string{`"dataType"`, `"production"`, `"core"`, `"source"`} {
		if !strings.Contains(string(unified), want) {
			t.Fatalf("unified model missing %s", want)
		}
	}
	pj, err := os.ReadFile(filepath.Join(projDir, "project.json"))
	if err != nil {
		t.Fatalf("read project.json: %v", err)
	}
	if !strings.Contains(string(pj), `"last_integration"`) || !strings.Contains(string(pj), `"records": 5`) {
		t.Fatalf("project.json missing integration summary: %s", pj)
	}

	csvOut := filepath.Join(home, "model.csv")
	runCmd(t, "integrate", "-p", "northsea", "--format", "csv", "-o", csvOut)
	if b, err := os.ReadFile(csvOut); err != nil || !strings.HasPrefix(string(b), "id,") {
		t.Fatalf("expected csv export with header, got %q (%v)", b, err)
	}
}

func TestCLI_ArchivedProjectRejectsWrites(t *testing.T) {
	home := isolateHome(t)
	doc := filepath.Join(home, "well_logs.csv")
	writeFile(t, doc, "depth,gr\n1000,45\n1001,47\n")

	runCmd(t, "init", "legacy")
	runCmd(t, "project", "archive", "legacy")
	if err := execCmd("add", "-p", "legacy", doc); err == nil {
		t.Fatalf("expected add to archived project to fail")
	}
	if err := execCmd("normalize", "-p", "legacy"); err == nil {
		t.Fatalf("expected normalize on archived project to fail")
	}
	runCmd(t, "project", "show", "legacy")
	runCmd(t, "project", "restore", "legacy")
	runCmd(t, "add", "-p", "legacy", doc)
}

func TestCLI_InitRefusesExistingProject(t *testing.T) {
	isolateHome(t)
	runCmd(t, "init", "dup")
	if err := execCmd("init", "dup"); err == nil {
		t.Fatalf("expected second init to fail")
	}
	if err := execCmd("init", "../escape"); err == nil {
		t.Fatalf("expected invalid project name to fail")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolateHome(t)
	runCmd(t, "config", "set", "default_method", "robust")
	runCmd(t, "config", "show")
	b, err := os.ReadFile(filepath.Join(home, ".petroloom", "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "default_method: robust") {
		t.Fatalf("config not saved: %s", b)
	}
	if err := execCmd("config", "set", "workers", "0"); err == nil {
		t.Fatalf("expected invalid workers value to fail")
	}
	if err := execCmd("config", "set", "no_such_key", "x"); err == nil {
		t.Fatalf("expected unknown key to fail")
	}
}

func TestCLI_DeleteUnknownDataset(t *testing.T) {
	isolateHome(t)
	if err := execCmd("delete", "does-not-exist"); err == nil {
		t.Fatalf("expected delete of unknown dataset to fail")
	}
}
