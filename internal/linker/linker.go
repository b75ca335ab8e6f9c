package linker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/maskedsyntax/jrtbuild/internal/modlist"
	"github.com/maskedsyntax/jrtbuild/internal/paths"
	"github.com/maskedsyntax/jrtbuild/internal/platform"
)

// Request describes one link.
type Request struct {
	JDKHome string
	// ModuleDirs are searched in order; the JDK's jmods directory comes first.
	ModuleDirs []string
	Modules    []string
	OutputDir  string
}

// Linker produces a runtime image for a request.
type Linker interface {
	Link(ctx context.Context, req Request) error
}

// ExitError reports a linker run that exited non-zero.
type ExitError struct {
	Code   int
	Stderr string
	Err    error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("linker exited with status %d", e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ModulePath joins dirs with the platform list separator.
func ModulePath(p platform.Descriptor, dirs ...string) string {
	return strings.Join(dirs, p.ListSeparator)
}

// Args returns the linker command line (without the executable).
func Args(p platform.Descriptor, req Request) []string {
	return []string{
		"--output=" + req.OutputDir,
		"--module-path=" + ModulePath(p, req.ModuleDirs...),
		"--add-modules=" + modlist.Join(req.Modules),
	}
}

// Exec runs the linker shipped inside the JDK.
type Exec struct {
	Platform platform.Descriptor
	Logger   *log.Logger
}

func New(p platform.Descriptor, logger *log.Logger) *Exec {
	return &Exec{Platform: p, Logger: logger}
}

func (e *Exec) Link(ctx context.Context, req Request) error {
	if err := os.RemoveAll(req.OutputDir); err != nil {
		return fmt.Errorf("failed to remove existing output directory: %w", err)
	}

	binary := paths.LinkerPath(req.JDKHome, e.Platform.LinkerName)
	if _, err := os.Stat(binary); err != nil {
		return fmt.Errorf("failed to find linker: %w", err)
	}

	args := Args(e.Platform, req)
	e.Logger.Debug("running linker", "binary", binary, "args", args)

	var stderr bytes.Buffer
	out := e.Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel}).Writer()

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = out
	cmd.Stderr = io.MultiWriter(out, &stderr)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Code:   exitErr.ExitCode(),
				Stderr: strings.TrimSpace(stderr.String()),
				Err:    err,
			}
		}
		return fmt.Errorf("failed to run linker: %w", err)
	}
	return nil
}
