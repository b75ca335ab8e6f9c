package copylist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const separator = ";"

// Directive is one "source;destination" line. Dest is a directory relative
// to the image root.
type Directive struct {
	// Number is the 1-based line number in the copy list.
	Number int
	Source string
	Dest   string
}

// MalformedLineError is returned for a line that is not "source;destination".
type MalformedLineError struct {
	Number int
	Line   string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("malformed copy-list line %d: %q (want \"source;destination\")", e.Number, e.Line)
}

// Parse reads path and returns its directives in file order. Blank lines are
// skipped.
func Parse(path string) ([]Directive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open copy list: %w", err)
	}
	defer file.Close()

	return parse(file)
}

func parse(r io.Reader) ([]Directive, error) {
	var directives []Directive
	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		source, dest, found := strings.Cut(line, separator)
		source = strings.TrimSpace(source)
		dest = strings.TrimSpace(dest)
		if !found || dest == "" {
			return nil, &MalformedLineError{Number: number, Line: line}
		}

		directives = append(directives, Directive{Number: number, Source: source, Dest: dest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read copy list: %w", err)
	}

	return directives, nil
}

// Apply copies every directive's source into <imageDir>/<dest>. Destination
// directories must already exist; later directives overwrite earlier ones.
// It returns the paths written.
func Apply(imageDir string, directives []Directive) ([]string, error) {
	var written []string
	for _, d := range directives {
		files, err := apply(imageDir, d)
		written = append(written, files...)
		if err != nil {
			return written, fmt.Errorf("copy-list line %d: %w", d.Number, err)
		}
	}
	return written, nil
}

func apply(imageDir string, d Directive) ([]string, error) {
	destDir := filepath.Join(imageDir, d.Dest)
	info, err := os.Stat(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to copy %q: destination %q: %w", d.Source, d.Dest, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to copy %q: destination %q is not a directory", d.Source, d.Dest)
	}

	sources, err := expand(d.Source)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, src := range sources {
		target := filepath.Join(destDir, filepath.Base(src))
		if err := CopyFile(src, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func expand(source string) ([]string, error) {
	if !hasMeta(source) {
		return []string{source}, nil
	}

	matches, err := doublestar.FilepathGlob(source, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid copy-list pattern %q: %w", source, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("copy-list pattern %q matched no files", source)
	}
	return matches, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// CopyFile copies the regular file src to dst, replacing dst and keeping
// src's permission bits.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("failed to copy %q: not a regular file", src)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	return out.Close()
}
