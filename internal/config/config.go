package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/export"
)

const dirName = ".petroloom"

// Global configuration structure.
type Global struct {
	UserID      string `mapstructure:"user_id" yaml:"user_id"`
	ProjectsDir string `mapstructure:"projects_dir" yaml:"projects_dir"`
	// DataDir holds the dataset store (<data_dir>/datasets/<id>.json).
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// Pipeline
	DefaultMethod   string  `mapstructure:"default_method" yaml:"default_method"`
	Workers         int     `mapstructure:"workers" yaml:"workers"`
	MinQualityScore float64 `mapstructure:"min_quality_score" yaml:"min_quality_score"`
	ExportFormat    string  `mapstructure:"export_format" yaml:"export_format"`
	SampleRows      int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	// Observability
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat   string `mapstructure:"log_format" yaml:"log_format"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"user_id", "projects_dir", "data_dir",
	"default_method", "workers", "min_quality_score", "export_format", "sample_rows",
	"log_level", "log_format", "metrics_file",
}

// Dir is the per-user configuration directory, ~/.petroloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.petroloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("PETROLOOM")
	v.AutomaticEnv()

	// Defaults; every key needs one for AutomaticEnv to reach Unmarshal
	v.SetDefault("user_id", defaultUser())
	v.SetDefault("projects_dir", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("default_method", string(dataset.MethodZScore))
	v.SetDefault("workers", 4)
	v.SetDefault("min_quality_score", 0.0)
	v.SetDefault("export_format", string(export.FormatJSON))
	v.SetDefault("sample_rows", 5)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_file", "")

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ProjectsDir == "" {
		c.ProjectsDir = filepath.Join(dir, "projects")
	}
	if c.DataDir == "" {
		c.DataDir = dir
	}
	return &c, nil
}

func defaultUser() string {
	if u := strings.TrimSpace(os.Getenv("USER")); u != "" {
		return u
	}
	return "local"
}

// Get renders the value of key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "user_id":
		return c.UserID, nil
	case "projects_dir":
		return c.ProjectsDir, nil
	case "data_dir":
		return c.DataDir, nil
	case "default_method":
		return c.DefaultMethod, nil
	case "workers":
		return strconv.Itoa(c.Workers), nil
	case "min_quality_score":
		return strconv.FormatFloat(c.MinQualityScore, 'f', -1, 64), nil
	case "export_format":
		return c.ExportFormat, nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_format":
		return c.LogFormat, nil
	case "metrics_file":
		return c.MetricsFile, nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}

// Set validates val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "user_id":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("user_id must not be empty")
		}
		c.UserID = strings.TrimSpace(val)
	case "projects_dir":
		c.ProjectsDir = val
	case "data_dir":
		c.DataDir = val
	case "default_method":
		m, err := dataset.ParseMethod(val)
		if err != nil {
			return err
		}
		c.DefaultMethod = string(m)
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 1 {
			return fmt.Errorf("invalid int for workers: %v (must be >= 1)", val)
		}
		c.Workers = i
	case "min_quality_score":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 100 {
			return fmt.Errorf("invalid float for min_quality_score: %v (use 0..100)", val)
		}
		c.MinQualityScore = f
	case "export_format":
		f, err := export.ParseFormat(val)
		if err != nil {
			return err
		}
		c.ExportFormat = string(f)
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for sample_rows: %v", val)
		}
		c.SampleRows = i
	case "log_level":
		switch strings.ToLower(val) {
		case "trace", "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "metrics_file":
		c.MetricsFile = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
