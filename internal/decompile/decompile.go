// Package decompile runs an external tool that turns compiled (binary)
// models into ascii MDL text.
package decompile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/auroramdl/pkg/mdl"
)

// Decompiler errors.
var (
	ErrNoDecompiler    = errors.New("no decompiler configured")
	ErrDecompileFailed = errors.New("decompiler failed")
)

// Placeholders substituted in the command template.
const (
	InputToken  = "{in}"
	OutputToken = "{out}"
)

// Decompiler invokes the configured command once per model. Without an
// {out} argument the tool's stdout is taken as the ascii model.
type Decompiler struct {
	Command []string
	Timeout time.Duration
	Log     *zap.Logger
}

// New creates a decompiler from a command template.
func New(command []string, timeout time.Duration, log *zap.Logger) *Decompiler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decompiler{Command: command, Timeout: timeout, Log: log.Named("decompile")}
}

// Decompile converts the binary model at path and returns the ascii text.
// The command must exit zero and produce ascii output; anything else fails
// the file without a partial result.
func (d *Decompiler) Decompile(ctx context.Context, path string) ([]byte, error) {
	if d == nil || len(d.Command) == 0 {
		return nil, ErrNoDecompiler
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	tmp, err := os.MkdirTemp("", "auroramdl-decompile-")
	if err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	out := filepath.Join(tmp, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".mdl")
	args := make([]string, len(d.Command))
	usesOut := false
	for i, arg := range d.Command {
		if strings.Contains(arg, OutputToken) {
			usesOut = true
		}
		arg = strings.ReplaceAll(arg, InputToken, path)
		args[i] = strings.ReplaceAll(arg, OutputToken, out)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	d.Log.Debug("running decompiler", zap.String("file", path), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrDecompileFailed, filepath.Base(path), err, strings.TrimSpace(stderr.String()))
	}
	d.Log.Debug("decompiler finished", zap.String("file", path), zap.Duration("elapsed", time.Since(start)))

	data := stdout.Bytes()
	if usesOut {
		data, err = os.ReadFile(out)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: no output: %v", ErrDecompileFailed, filepath.Base(path), err)
		}
	}
	if len(bytes.TrimSpace(data)) == 0 || mdl.IsBinary(data) {
		return nil, fmt.Errorf("%w: %s: output is not an ascii model", ErrDecompileFailed, filepath.Base(path))
	}
	return data, nil
}
