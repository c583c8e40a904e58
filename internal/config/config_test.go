package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Faultbox/auroramdl/pkg/mdl"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Import.Walkmesh || !cfg.Import.Decompile {
		t.Error("expected walkmesh and decompile imports to be enabled by default")
	}
	if cfg.Export.UVMode != "active" {
		t.Errorf("expected uv mode 'active', got %s", cfg.Export.UVMode)
	}
	if cfg.Export.Smoothing != "direct" {
		t.Errorf("expected smoothing 'direct', got %s", cfg.Export.Smoothing)
	}
	if cfg.Export.DefaultAnimation != "default" {
		t.Errorf("expected default animation 'default', got %s", cfg.Export.DefaultAnimation)
	}
	if cfg.Decompiler.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Decompiler.Timeout)
	}
	if cfg.Batch.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Batch.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "mdltool.yaml")

	yamlContent := `
import:
  mtr_paths: ["override", "textures/mtr"]
  walkmesh: false

export:
  metadata: false
  uv_mode: activefirst
  merge_uvs: true
  smoothing: auto
  normals: true

decompiler:
  command: ["cleanmodels", "-d", "{in}", "{out}"]
  timeout: 5s

batch:
  workers: 8
  fail_fast: true

logging:
  level: debug
  log_file: mdltool.log
  format: json
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(cfg.Import.MtrPaths, []string{"override", "textures/mtr"}) {
		t.Errorf("mtr paths = %v", cfg.Import.MtrPaths)
	}
	if cfg.Import.Walkmesh {
		t.Error("expected walkmesh to be false")
	}
	if !cfg.Import.Decompile {
		t.Error("decompile should keep its default")
	}
	if cfg.Decompiler.Timeout != 5*time.Second || len(cfg.Decompiler.Command) != 4 {
		t.Errorf("decompiler = %+v", cfg.Decompiler)
	}
	if cfg.Batch.Workers != 8 || !cfg.Batch.FailFast {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json log format, got %s", cfg.Logging.Format)
	}

	opts, err := cfg.Export.Options()
	if err != nil {
		t.Fatalf("Options() error = %v", err)
	}
	if opts.Metadata || opts.UVMode != mdl.UVActiveFirst || !opts.MergeUVs || opts.Smoothing != mdl.SmoothAuto || !opts.ExportNormals {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "batch:\n  workers: not a number\n  invalid syntax here\n"},
		{"unknown key", "batch:\n  wokers: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}
			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Errorf("empty file should load, got %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Error("empty file changed the defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"uv mode", func(c *Config) { c.Export.UVMode = "random" }},
		{"smoothing", func(c *Config) { c.Export.Smoothing = "blurry" }},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"timeout", func(c *Config) { c.Decompiler.Timeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HOME", tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "mdltool.yaml"), []byte("batch:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find mdltool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "workers flag",
			setup: func() { *flagWorkers = 16 },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Batch.Workers != 16 {
					t.Errorf("expected 16 workers, got %d", cfg.Batch.Workers)
				}
			},
			teardown: func() { *flagWorkers = 0 },
		},
		{
			name:  "mtr flag",
			setup: func() { *flagMtr = "a, b,," },
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg.Import.MtrPaths, []string{"a", "b"}) {
					t.Errorf("mtr paths = %v", cfg.Import.MtrPaths)
				}
			},
			teardown: func() { *flagMtr = "" },
		},
		{
			name:  "decompiler flag",
			setup: func() { *flagDecompiler = "nwnmdlcomp -d {in} {out}" },
			verify: func(t *testing.T, cfg *Config) {
				want := []string{"nwnmdlcomp", "-d", "{in}", "{out}"}
				if !reflect.DeepEqual(cfg.Decompiler.Command, want) {
					t.Errorf("command = %v", cfg.Decompiler.Command)
				}
			},
			teardown: func() { *flagDecompiler = "" },
		},
		{
			name:  "log file flag",
			setup: func() { *flagLogFile = "run.log" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("log file = %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() { *flagLogFile = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := "batch:\n  workers: 6\n  output_dir: out\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWorkers = 12
	defer func() {
		*flagConfig = ""
		*flagWorkers = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Batch.Workers != 12 {
		t.Errorf("expected 12 workers from flag, got %d", cfg.Batch.Workers)
	}
	if cfg.Batch.OutputDir != "out" {
		t.Errorf("expected output dir from file, got %s", cfg.Batch.OutputDir)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Import.MtrPaths = []string{"mtr"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}

	back := Default()
	if err := loadFromFile(back, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if !reflect.DeepEqual(back, cfg) {
		t.Errorf("reloaded %+v, want %+v", back, cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "tool.yaml")
	yamlContent := "import:\n  mtr_paths: [\"mtr\", \"/abs/mtr\"]\n"
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv(EnvConfig, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	want := []string{filepath.Join(dir, "mtr"), "/abs/mtr"}
	if !reflect.DeepEqual(cfg.Import.MtrPaths, want) {
		t.Errorf("mtr paths = %v, want %v resolved against the config file", cfg.Import.MtrPaths, want)
	}
}
