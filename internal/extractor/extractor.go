package extractor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotSingleRoot means the archive did not unpack to exactly one directory.
var ErrNotSingleRoot = errors.New("archive must contain exactly one top-level directory")

type Extractor interface {
	// Extract unpacks archivePath into a fresh destDir and returns the path of
	// the archive's top-level directory.
	Extract(archivePath, destDir string) (string, error)
}

func ForFile(filename string) Extractor {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".zip") {
		return &ZipExtractor{}
	}
	return &TarExtractor{}
}

// Extract picks the extractor from archivePath's extension.
func Extract(archivePath, destDir string) (string, error) {
	return ForFile(archivePath).Extract(archivePath, destDir)
}

// prepareDest recreates destDir so stale content from a failed run never
// leaks into the new extraction.
func prepareDest(destDir string) error {
	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("failed to remove stale destination directory: %w", err)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	return nil
}

// safeTarget joins name under destDir. It rejects names that would escape
// destDir and names below an already extracted symlink, which could redirect
// the write anywhere.
func safeTarget(destDir, name string) (string, bool) {
	cleanName := filepath.Clean(filepath.FromSlash(name))
	if cleanName == "." || filepath.IsAbs(cleanName) || escapes(cleanName) {
		return "", false
	}

	dir := destDir
	parts := strings.Split(cleanName, string(filepath.Separator))
	for _, part := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, part)
		if isSymlink(dir) {
			return "", false
		}
	}
	return filepath.Join(destDir, cleanName), true
}

// linkInside reports whether a symlink at target pointing to linkname stays
// within destDir.
func linkInside(destDir, target, linkname string) bool {
	if linkname == "" || filepath.IsAbs(linkname) || filepath.VolumeName(linkname) != "" {
		return false
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkname))
	rel, err := filepath.Rel(destDir, resolved)
	return err == nil && !escapes(rel)
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func findRoot(extractedDir string) (string, error) {
	entries, err := os.ReadDir(extractedDir)
	if err != nil {
		return "", err
	}

	if len(entries) != 1 || !entries[0].IsDir() {
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			names = append(names, entry.Name())
		}
		return "", fmt.Errorf("%w: found %d entries %v", ErrNotSingleRoot, len(entries), names)
	}

	return filepath.Join(extractedDir, entries[0].Name()), nil
}

func writeDir(target string, mode os.FileMode) error {
	if err := os.MkdirAll(target, mode.Perm()|0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", target, err)
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", target, err)
	}
	if mode.Perm() == 0 {
		mode = 0644
	}
	// A symlink from an earlier entry must be replaced, not written through.
	if isSymlink(target) {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf("failed to replace symlink %s: %w", target, err)
		}
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return out.Close()
}

// writeLink creates a symlink to linkname, or a hard link to the already
// extracted oldPath when oldPath is set. Symlinks leaving destDir are skipped.
func writeLink(destDir, target, linkname, oldPath string) error {
	if oldPath == "" && !linkInside(destDir, target, linkname) {
		return nil
	}
	// Some platforms follow symlinks when hard linking.
	if oldPath != "" && isSymlink(oldPath) {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", target, err)
	}
	_ = os.Remove(target)

	if oldPath != "" {
		if err := os.Link(oldPath, target); err != nil {
			return fmt.Errorf("failed to link %s: %w", target, err)
		}
		return nil
	}
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("failed to symlink %s: %w", target, err)
	}
	return nil
}
