// Package launcher starts the mod loader against a profile directory.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"

	"smapi-profiles/logger"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when no loader executable is set.
var ErrNotConfigured = errors.New("loader executable not configured")

// ModsPathFlag is the loader argument that overrides its mods directory.
const ModsPathFlag = "--mods-path"

// Exec launches the loader executable as a detached child process.
type Exec struct {
	Path string
	log  *zap.SugaredLogger

	// start is swapped in tests.
	start func(cmd *exec.Cmd) error
}

// NewExec returns a launcher for the executable at path.
func NewExec(path string, log *zap.SugaredLogger) *Exec {
	return &Exec{Path: path, log: logger.Or(log), start: startDetached}
}

// Command builds the loader invocation for modsRoot.
func (e *Exec) Command(modsRoot string) *exec.Cmd {
	cmd := exec.Command(e.Path, ModsPathFlag, modsRoot)
	cmd.Dir = filepath.Dir(e.Path)
	return cmd
}

// Launch starts the loader and returns once the process is running. The
// game outlives this process, so ctx only guards the start.
func (e *Exec) Launch(ctx context.Context, modsRoot string) error {
	if e.Path == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := e.Command(modsRoot)
	if err := e.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.Path, err)
	}
	e.log.Infow("Loader started",
		zap.String("executable", e.Path),
		zap.String("mods_path", modsRoot),
	)
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
