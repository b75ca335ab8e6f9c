package params

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the archive format of the produced artifacts.
type Kind string

const (
	TarGz Kind = "tar.gz"
	Zip   Kind = "zip"
)

// SkipJavaFX is the javafx-archive value meaning "no JavaFX modules".
const SkipJavaFX = "null"

// Parameter names, in positional order.
const (
	ParamKind       = "output-kind"
	ParamOutputDir  = "output-directory"
	ParamJDK        = "jdk-archive"
	ParamJavaFX     = "javafx-archive"
	ParamModuleList = "module-list"
	ParamCopyList   = "copy-list"
)

const maxArgs = 6

// Params is the validated input of one build.
type Params struct {
	Kind Kind
	// OutputDir is absolute and always has a parent directory.
	OutputDir string
	// JDKArchive is a local file or an http(s) URL.
	JDKArchive string
	// JavaFXArchive is empty when JavaFX was skipped.
	JavaFXArchive string
	ModuleList    string
	// CopyList is empty when no copy-list was given.
	CopyList string
}

// Error reports the first invalid or missing argument.
type Error struct {
	Param  string
	Value  string
	Reason string
}

func (e *Error) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Param, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", e.Param, e.Value, e.Reason)
}

// Parse validates args in positional order and stops at the first problem.
// It never touches the filesystem beyond stat calls.
func Parse(args []string) (*Params, error) {
	if len(args) > maxArgs {
		return nil, &Error{Param: "arguments", Reason: fmt.Sprintf("expected at most %d, got %d", maxArgs, len(args))}
	}

	arg := func(i int) (string, bool) {
		if i < len(args) {
			return args[i], true
		}
		return "", false
	}

	p := &Params{}

	kind, _ := arg(0)
	switch Kind(kind) {
	case TarGz, Zip:
		p.Kind = Kind(kind)
	default:
		return nil, &Error{Param: ParamKind, Value: kind, Reason: fmt.Sprintf("must be %q or %q", TarGz, Zip)}
	}

	out, ok := arg(1)
	if !ok || out == "" {
		return nil, &Error{Param: ParamOutputDir, Reason: "missing"}
	}
	outputDir, err := outputDirectory(out)
	if err != nil {
		return nil, err
	}
	p.OutputDir = outputDir

	jdk, ok := arg(2)
	if !ok || jdk == "" {
		return nil, &Error{Param: ParamJDK, Reason: "missing"}
	}
	if err := archiveSource(ParamJDK, jdk); err != nil {
		return nil, err
	}
	p.JDKArchive = jdk

	fx, ok := arg(3)
	if !ok || fx == "" {
		return nil, &Error{Param: ParamJavaFX, Reason: fmt.Sprintf("missing (use %q to skip JavaFX)", SkipJavaFX)}
	}
	if fx != SkipJavaFX {
		if err := archiveSource(ParamJavaFX, fx); err != nil {
			return nil, err
		}
		p.JavaFXArchive = fx
	}

	modules, ok := arg(4)
	if !ok || modules == "" {
		return nil, &Error{Param: ParamModuleList, Reason: "missing"}
	}
	if err := regularFile(ParamModuleList, modules); err != nil {
		return nil, err
	}
	p.ModuleList = modules

	if copyList, ok := arg(5); ok {
		if err := regularFile(ParamCopyList, copyList); err != nil {
			return nil, err
		}
		p.CopyList = copyList
	}

	return p, nil
}

// HasJavaFX reports whether a JavaFX archive takes part in the build.
func (p *Params) HasJavaFX() bool {
	return p.JavaFXArchive != ""
}

// IsRemote reports whether an archive argument is an http(s) URL.
func IsRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

const checksumPrefix = "sha256="

// SplitChecksum separates an optional "#sha256=<hex>" fragment from an
// archive URL. sum is empty when the URL carries no fragment.
func SplitChecksum(rawURL string) (u, sum string, err error) {
	u, frag, found := strings.Cut(rawURL, "#")
	if !found {
		return rawURL, "", nil
	}
	sum, ok := strings.CutPrefix(frag, checksumPrefix)
	if !ok || len(sum) != 64 {
		return "", "", fmt.Errorf("fragment must be %s<64 hex digits>", checksumPrefix)
	}
	sum = strings.ToLower(sum)
	if _, err := hex.DecodeString(sum); err != nil {
		return "", "", fmt.Errorf("fragment must be %s<64 hex digits>", checksumPrefix)
	}
	return u, sum, nil
}

func outputDirectory(raw string) (string, error) {
	trimmed := strings.TrimRight(raw, `/\`)
	dir, leaf := filepath.Split(trimmed)
	if dir == "" || leaf == "" || leaf == "." || leaf == ".." {
		return "", &Error{Param: ParamOutputDir, Value: raw, Reason: "must have a parent directory and a name"}
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", &Error{Param: ParamOutputDir, Value: raw, Reason: err.Error()}
	}
	return abs, nil
}

func archiveSource(param, value string) error {
	if IsRemote(value) {
		rawURL, _, err := SplitChecksum(value)
		if err != nil {
			return &Error{Param: param, Value: value, Reason: err.Error()}
		}
		u, err := url.Parse(rawURL)
		if err != nil || u.Host == "" {
			return &Error{Param: param, Value: value, Reason: "invalid URL"}
		}
		return nil
	}
	return regularFile(param, value)
}

func regularFile(param, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Error{Param: param, Value: path, Reason: "file does not exist"}
		}
		return &Error{Param: param, Value: path, Reason: err.Error()}
	}
	if !info.Mode().IsRegular() {
		return &Error{Param: param, Value: path, Reason: "not a regular file"}
	}
	return nil
}
