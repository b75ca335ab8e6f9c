package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/maskedsyntax/jrtbuild/internal/paths"
)

// ErrLocked means another build is targeting the same output directory.
var ErrLocked = errors.New("another build is already using this output directory")

type Workspace struct {
	outputDir string
	lock      *flock.Flock
	dirs      []string
	logger    *log.Logger
	closed    bool
}

// Open locks outputDir for this process. The output directory's parent is
// created if needed since it receives the lock file and the archives.
func Open(outputDir string, logger *log.Logger) (*Workspace, error) {
	if err := os.MkdirAll(filepath.Dir(outputDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output parent directory: %w", err)
	}

	lock := flock.New(paths.LockPath(outputDir))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputDir)
	}

	return &Workspace{
		outputDir: outputDir,
		lock:      lock,
		logger:    logger,
	}, nil
}

// TempDir returns the scratch directory for label and schedules it for
// removal. The directory itself is not created.
func (w *Workspace) TempDir(label string) string {
	dir := paths.TempRoot(w.outputDir, label)
	w.Track(dir)
	return dir
}

// Track schedules dir for removal on Close. The output directory is only
// tracked once something is about to write into it.
func (w *Workspace) Track(dir string) {
	w.dirs = append(w.dirs, dir)
}

// Close removes the tracked directories in the order they were tracked and
// releases the lock. Missing directories are not an error. The lock file
// stays behind: removing it would let a later build lock a fresh inode while
// another still holds the old one. Close is idempotent.
func (w *Workspace) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	for _, dir := range w.dirs {
		w.logger.Debug("removing", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", dir, err))
		}
	}

	if err := w.lock.Unlock(); err != nil {
		errs = append(errs, fmt.Errorf("failed to release build lock: %w", err))
	}

	return errors.Join(errs...)
}
