package archiver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/maskedsyntax/jrtbuild/internal/params"
)

const srcSuffix = "-src"

type Archiver interface {
	// Archive writes srcDir as a new archive at destPath.
	Archive(srcDir, destPath string) error
}

func ForKind(kind params.Kind) (Archiver, error) {
	switch kind {
	case params.TarGz:
		return &TarGzArchiver{}, nil
	case params.Zip:
		return &ZipArchiver{}, nil
	default:
		return nil, fmt.Errorf("unsupported archive kind: %q", kind)
	}
}

// Name returns <parent>/<name>-<tag>[-src].<kind> for imageDir.
func Name(imageDir, tag string, kind params.Kind, withSource bool) string {
	base := filepath.Base(imageDir) + "-" + tag
	if withSource {
		base += srcSuffix
	}
	return filepath.Join(filepath.Dir(imageDir), base+"."+string(kind))
}

// Create replaces destPath with an archive of srcDir.
func Create(kind params.Kind, srcDir, destPath string) error {
	a, err := ForKind(kind)
	if err != nil {
		return err
	}

	info, err := os.Stat(srcDir)
	if err != nil {
		return fmt.Errorf("failed to stat source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to archive %q: not a directory", srcDir)
	}

	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing archive: %w", err)
	}

	if err := a.Archive(srcDir, destPath); err != nil {
		os.Remove(destPath)
		return err
	}
	return nil
}

// walk visits srcDir in lexical order, passing each entry's archive name
// (slash separated, prefixed by the base name of srcDir).
func walk(srcDir string, fn func(path, name string, d fs.DirEntry) error) error {
	root := filepath.Base(srcDir)
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := root
		if rel != "." {
			name = root + "/" + filepath.ToSlash(rel)
		}
		return fn(path, name, d)
	})
}
