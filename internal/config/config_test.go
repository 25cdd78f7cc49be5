package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "geo")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "geo", c.UserID)
	assert.Equal(t, filepath.Join(home, ".petroloom", "projects"), c.ProjectsDir)
	assert.Equal(t, filepath.Join(home, ".petroloom"), c.DataDir)
	assert.Equal(t, "zscore", c.DefaultMethod)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 0.0, c.MinQualityScore)
	assert.Equal(t, "json", c.ExportFormat)
	assert.Equal(t, 5, c.SampleRows)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Empty(t, c.MetricsFile)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfgPath := filepath.Join(t.TempDir(), "petroloom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("default_method: robust\nworkers: 2\n"), 0o644))
	t.Setenv("PETROLOOM_WORKERS", "8")

	c, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "robust", c.DefaultMethod)
	assert.Equal(t, 8, c.Workers)
}

func TestSaveRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("default_method", "MinMax"))
	require.NoError(t, c.Set("min_quality_score", "70"))
	require.NoError(t, c.Set("export_format", "csv"))
	require.NoError(t, Save(c, ""))

	_, err = os.Stat(filepath.Join(home, ".petroloom", "config.yaml"))
	require.NoError(t, err)

	again, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "minmax", again.DefaultMethod)
	assert.Equal(t, 70.0, again.MinQualityScore)
	assert.Equal(t, "csv", again.ExportFormat)
	v, err := again.Get("min_quality_score")
	require.NoError(t, err)
	assert.Equal(t, "70", v)
}

func TestSetRejectsBadValues(t *testing.T) {
	c := &Global{}
	assert.True(t, errors.Is(c.Set("default_method", "log"), errs.ErrUnknownMethod))
	assert.True(t, errors.Is(c.Set("export_format", "xml"), errs.ErrUnsupportedFormat))
	assert.Error(t, c.Set("workers", "0"))
	assert.Error(t, c.Set("min_quality_score", "101"))
	assert.Error(t, c.Set("log_format", "yaml"))
	assert.Error(t, c.Set("user_id", " "))
	assert.Error(t, c.Set("nope", "1"))

	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
}
