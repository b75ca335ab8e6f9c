package archiver

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
)

type ZipArchiver struct{}

func (a *ZipArchiver) Archive(srcDir, destPath string) error {
	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)

	err = walk(srcDir, func(path, name string, d fs.DirEntry) error {
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("failed to create zip header: %w", err)
		}
		header.Name = name

		switch {
		case info.IsDir():
			header.Name += "/"
			header.Method = zip.Store
			_, err := zipWriter.CreateHeader(header)
			return err

		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("failed to read symlink: %w", err)
			}
			header.Method = zip.Store
			w, err := zipWriter.CreateHeader(header)
			if err != nil {
				return err
			}
			_, err = w.Write([]byte(link))
			return err

		case info.Mode().IsRegular():
			header.Method = zip.Deflate
			w, err := zipWriter.CreateHeader(header)
			if err != nil {
				return fmt.Errorf("failed to write zip header: %w", err)
			}
			return copyFileTo(w, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finish zip archive: %w", err)
	}
	return file.Close()
}
