package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

type ZipExtractor struct{}

func (e *ZipExtractor) Extract(archivePath, destDir string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer zr.Close()

	if err := prepareDest(destDir); err != nil {
		return "", err
	}

	for _, zf := range zr.File {
		if err := writeZipEntry(destDir, zf); err != nil {
			return "", err
		}
	}

	return findRoot(destDir)
}

func writeZipEntry(destDir string, zf *zip.File) error {
	target, ok := safeTarget(destDir, zf.Name)
	if !ok {
		return nil
	}
	mode := zf.Mode()
	if mode.IsDir() {
		return writeDir(target, mode)
	}

	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("failed to open zip entry %s: %w", zf.Name, err)
	}
	defer rc.Close()

	if mode&os.ModeSymlink != 0 {
		// The entry body is the link target.
		linkname, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("failed to read zip entry %s: %w", zf.Name, err)
		}
		return writeLink(destDir, target, string(linkname), "")
	}
	return writeFile(target, rc, mode)
}
