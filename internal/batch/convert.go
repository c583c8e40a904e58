package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/auroramdl/pkg/mdl"
)

// ErrNoOutputDir is returned by Convert when no output directory is set.
var ErrNoOutputDir = errors.New("no output directory")

// Convert returns a handler that re-serializes each model into outDir,
// along with its companion walkmesh when one was loaded.
func Convert(outDir string) Handler {
	return func(ctx context.Context, job *Job) error {
		if outDir == "" {
			return ErrNoOutputDir
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}

		out := filepath.Join(outDir, filepath.Base(job.Path))
		if same(out, job.Path) {
			return fmt.Errorf("output %s would overwrite the input", out)
		}
		if job.Session.Options.Source == "" {
			job.Session.Options.Source = filepath.Base(job.Path)
		}
		if err := mdl.WriteFile(out, job.Model, job.Session); err != nil {
			return err
		}
		job.Output = out

		m := job.Model
		nodes, ext := m.PwkNodes, ".pwk"
		if len(m.DwkNodes) > 0 {
			nodes, ext = m.DwkNodes, ".dwk"
		}
		if len(nodes) == 0 {
			return nil
		}
		wok := strings.TrimSuffix(out, filepath.Ext(out)) + ext
		lines := mdl.SerializeWalkmesh(m.Name, nodes, job.Session)
		if err := os.WriteFile(wok, mdl.Bytes(lines), 0644); err != nil {
			return fmt.Errorf("writing walkmesh: %w", err)
		}
		return nil
	}
}

func same(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// Collect expands directories into the .mdl files they contain. Plain file
// arguments are kept as given. The result is sorted and free of duplicates.
func Collect(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mdl") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
	}

	sort.Strings(paths)
	return paths, nil
}
