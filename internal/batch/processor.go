// Package batch loads and converts many models concurrently. Each file gets
// its own session, material cache and logger; one broken file never stops
// the others unless fail-fast is requested.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/auroramdl/internal/config"
	"github.com/Faultbox/auroramdl/internal/decompile"
	"github.com/Faultbox/auroramdl/internal/logger"
	"github.com/Faultbox/auroramdl/pkg/mdl"
)

// ErrPanic marks a file whose processing panicked.
var ErrPanic = errors.New("panic while processing model")

// Config holds the shared settings for a batch run.
type Config struct {
	Import     config.ImportConfig
	Options    mdl.Options
	Decompiler *decompile.Decompiler
	Workers    int
	FailFast   bool
	Progress   time.Duration // progress log interval, 0 for 2s
	Log        *zap.Logger
}

// NewConfig builds a batch config from the tool configuration.
func NewConfig(cfg *config.Config) (Config, error) {
	opts, err := cfg.Export.Options()
	if err != nil {
		return Config{}, err
	}
	bc := Config{
		Import:   cfg.Import,
		Options:  opts,
		Workers:  cfg.Batch.Workers,
		FailFast: cfg.Batch.FailFast,
		Log:      logger.Log,
	}
	if len(cfg.Decompiler.Command) > 0 {
		bc.Decompiler = decompile.New(cfg.Decompiler.Command, cfg.Decompiler.Timeout, logger.Log)
	}
	return bc, nil
}

// Job is one loaded model handed to a Handler.
type Job struct {
	Path    string
	Model   *mdl.Model
	Session *mdl.Session
	Output  string // set by handlers that write files
}

// Handler acts on a loaded model.
type Handler func(ctx context.Context, job *Job) error

// Result holds the outcome of processing one file.
type Result struct {
	Path     string        `json:"path"`
	Output   string        `json:"output,omitempty"`
	Model    string        `json:"model,omitempty"`
	Nodes    int           `json:"nodes"`
	Warnings []string      `json:"warnings,omitempty"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`

	Err error `json:"-"`
}

// Load reads, decompiles if needed, and parses one model. Companion
// walkmeshes are attached and the model is validated.
func Load(ctx context.Context, cfg Config, path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}

	s := mdl.NewSession(cfg.Options, logger.ForFile(path))
	s.Mtrs = mdl.NewMtrCache(cfg.Import.MtrPaths...)
	s.DefaultName = modelName(path)

	if mdl.IsBinary(data) {
		if !cfg.Import.Decompile {
			return nil, mdl.ErrBinaryModel
		}
		data, err = cfg.Decompiler.Decompile(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	m, err := mdl.Parse(data, s)
	if err != nil {
		return nil, err
	}
	if cfg.Import.Walkmesh {
		if err := mdl.LoadCompanionWalkmesh(m, path, s); err != nil {
			return nil, err
		}
	}
	m.Validate(s)
	return &Job{Path: path, Model: m, Session: s}, nil
}

// Run processes all paths using a worker pool. Results keep the order of
// paths. A nil handler only loads and validates.
func Run(ctx context.Context, cfg Config, paths []string, handle Handler) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	interval := cfg.Progress
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	total := len(paths)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					cfg.Log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.String("rate", fmt.Sprintf("%.1f files/sec", rate)))
				}
			}
		}
	}()

	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFile(ctx, cfg, paths[idx], handle)
				if !results[idx].Success && cfg.FailFast {
					cancel()
				}
				processed.Add(1)
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(done)

	return results
}

func processFile(ctx context.Context, cfg Config, path string, handle Handler) Result {
	res := Result{Path: path}
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("skipped: %w", err)
		res.Error = res.Err.Error()
		return res
	}

	start := time.Now()
	job, err := guard(func() (*Job, error) {
		job, err := Load(ctx, cfg, path)
		if err == nil && handle != nil {
			err = handle(ctx, job)
		}
		return job, err
	})
	res.Elapsed = time.Since(start)

	if job != nil {
		res.Output = job.Output
		res.Model = job.Model.Name
		res.Nodes = len(job.Model.Nodes)
		for _, w := range job.Session.Warnings {
			res.Warnings = append(res.Warnings, w.String())
		}
	}
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		cfg.Log.Error("model failed", zap.String("file", path), zap.Error(err))
		return res
	}
	res.Success = true
	return res
}

// guard turns a panic while handling one file into that file's error.
func guard(fn func() (*Job, error)) (job *Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			job, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}

// Summary counts successful and failed results.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// Errors joins every failure in results.
func Errors(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(r.Path), r.Err))
		}
	}
	return errors.Join(errs...)
}

func modelName(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
