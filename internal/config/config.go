// Package config handles mdltool configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/auroramdl/pkg/mdl"
)

// Config holds all tool settings.
type Config struct {
	Import     ImportConfig     `yaml:"import"`
	Export     ExportConfig     `yaml:"export"`
	Decompiler DecompilerConfig `yaml:"decompiler"`
	Batch      BatchConfig      `yaml:"batch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ImportConfig controls how models are read.
type ImportConfig struct {
	MtrPaths  []string `yaml:"mtr_paths,omitempty"` // directories searched for materialname files
	Walkmesh  bool     `yaml:"walkmesh"`  // load .pwk/.dwk companions
	Decompile bool     `yaml:"decompile"` // run the decompiler on binary models
}

// ExportConfig mirrors the serializer options.
type ExportConfig struct {
	Metadata         bool   `yaml:"metadata"`
	UVMode           string `yaml:"uv_mode"`
	MergeUVs         bool   `yaml:"merge_uvs"`
	Smoothing        string `yaml:"smoothing"`
	Normals          bool   `yaml:"normals"`
	Tangents         bool   `yaml:"tangents"`
	Colors           bool   `yaml:"colors"`
	DefaultAnimation string `yaml:"default_animation"`
}

// DecompilerConfig describes the external binary model decompiler.
// Command is an argv template; {in} and {out} are replaced with the binary
// input and the ascii output paths.
type DecompilerConfig struct {
	Command []string      `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Workers   int    `yaml:"workers"`
	FailFast  bool   `yaml:"fail_fast"`
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := mdl.DefaultOptions()
	return &Config{
		Import: ImportConfig{
			Walkmesh:  true,
			Decompile: true,
		},
		Export: ExportConfig{
			Metadata:         opts.Metadata,
			UVMode:           opts.UVMode.String(),
			MergeUVs:         opts.MergeUVs,
			Smoothing:        opts.Smoothing.String(),
			Normals:          opts.ExportNormals,
			Tangents:         opts.ExportTangents,
			Colors:           opts.ExportColors,
			DefaultAnimation: opts.DefaultAnimation,
		},
		Decompiler: DecompilerConfig{
			Timeout: 30 * time.Second,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Options converts the export section into serializer options.
func (e ExportConfig) Options() (mdl.Options, error) {
	opts := mdl.DefaultOptions()
	uv, err := mdl.ParseUVMode(e.UVMode)
	if err != nil {
		return opts, fmt.Errorf("export.uv_mode: %w", err)
	}
	smooth, err := mdl.ParseSmoothMode(e.Smoothing)
	if err != nil {
		return opts, fmt.Errorf("export.smoothing: %w", err)
	}
	opts.Metadata = e.Metadata
	opts.UVMode = uv
	opts.MergeUVs = e.MergeUVs
	opts.Smoothing = smooth
	opts.ExportNormals = e.Normals
	opts.ExportTangents = e.Tangents
	opts.ExportColors = e.Colors
	opts.DefaultAnimation = e.DefaultAnimation
	return opts, nil
}

// Validate checks values the YAML decoder cannot.
func (c *Config) Validate() error {
	if _, err := c.Export.Options(); err != nil {
		return err
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}
	if c.Decompiler.Timeout < 0 {
		return fmt.Errorf("decompiler.timeout must not be negative")
	}
	return nil
}
