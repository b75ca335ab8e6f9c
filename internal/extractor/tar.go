package extractor

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
)

type TarExtractor struct{}

func (e *TarExtractor) Extract(archivePath, destDir string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to read %s as gzip: %w", archivePath, err)
	}
	defer gz.Close()

	if err := prepareDest(destDir); err != nil {
		return "", err
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read tar entry: %w", err)
		}
		if err := writeTarEntry(destDir, hdr, tr); err != nil {
			return "", err
		}
	}

	return findRoot(destDir)
}

func writeTarEntry(destDir string, hdr *tar.Header, body io.Reader) error {
	target, ok := safeTarget(destDir, hdr.Name)
	if !ok {
		return nil
	}
	mode := os.FileMode(hdr.Mode)

	switch hdr.Typeflag {
	case tar.TypeDir:
		return writeDir(target, mode)
	case tar.TypeReg:
		return writeFile(target, body, mode)
	case tar.TypeSymlink:
		return writeLink(destDir, target, hdr.Linkname, "")
	case tar.TypeLink:
		old, ok := safeTarget(destDir, hdr.Linkname)
		if !ok {
			return nil
		}
		return writeLink(destDir, target, hdr.Linkname, old)
	}
	// Device nodes, fifos and pax metadata never matter for a JDK.
	return nil
}
