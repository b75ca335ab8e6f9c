package build

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/maskedsyntax/jrtbuild/internal/archiver"
	"github.com/maskedsyntax/jrtbuild/internal/cache"
	"github.com/maskedsyntax/jrtbuild/internal/copylist"
	"github.com/maskedsyntax/jrtbuild/internal/downloader"
	"github.com/maskedsyntax/jrtbuild/internal/extractor"
	"github.com/maskedsyntax/jrtbuild/internal/linker"
	"github.com/maskedsyntax/jrtbuild/internal/modlist"
	"github.com/maskedsyntax/jrtbuild/internal/params"
	"github.com/maskedsyntax/jrtbuild/internal/paths"
	"github.com/maskedsyntax/jrtbuild/internal/platform"
	"github.com/maskedsyntax/jrtbuild/internal/workspace"
)

// ErrEmptyModuleList is returned when the module list has no module names.
var ErrEmptyModuleList = errors.New("module list contains no modules")

// UnknownModulesError lists modules missing from every module directory.
type UnknownModulesError struct {
	Modules []string
}

func (e *UnknownModulesError) Error() string {
	return "unknown modules: " + strings.Join(e.Modules, ", ")
}

type Options struct {
	Platform platform.Descriptor
	// Linker defaults to the JDK's own jlink.
	Linker linker.Linker
	Logger *log.Logger
	// Downloader is only needed for URL inputs.
	Downloader *downloader.Downloader
	// Cache is optional; without it downloads land in the workspace.
	Cache *cache.Cache
	// CheckModules verifies module names before linking.
	CheckModules bool
}

type Result struct {
	Archive       string
	SourceArchive string
	Modules       []string
}

type Builder struct {
	opts Options
}

func New(opts Options) *Builder {
	if opts.Platform == (platform.Descriptor{}) {
		opts.Platform = platform.Host()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Linker == nil {
		opts.Linker = linker.New(opts.Platform, opts.Logger)
	}
	return &Builder{opts: opts}
}

// run carries the state of a single invocation.
type run struct {
	*Builder
	p           *params.Params
	ws          *workspace.Workspace
	downloadDir string
}

// Run builds both archives for p. Scratch directories are removed on every
// return path, and so is the output directory once linking has started.
func (b *Builder) Run(ctx context.Context, p *params.Params) (res *Result, err error) {
	logger := b.opts.Logger

	ws, err := workspace.Open(p.OutputDir, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			if err == nil {
				err = fmt.Errorf("cleanup failed: %w", cerr)
			} else {
				logger.Warn("cleanup failed", "err", cerr)
			}
		}
	}()

	r := &run{Builder: b, p: p, ws: ws}
	return r.build(ctx)
}

func (r *run) build(ctx context.Context) (*Result, error) {
	logger := r.opts.Logger
	p := r.p

	jdkTmp := r.ws.TempDir("jdk")
	var fxTmp string
	if p.HasJavaFX() {
		fxTmp = r.ws.TempDir("javafx")
	}

	modules, err := modlist.Read(p.ModuleList)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyModuleList, p.ModuleList)
	}

	var directives []copylist.Directive
	if p.CopyList != "" {
		if directives, err = copylist.Parse(p.CopyList); err != nil {
			return nil, err
		}
	}

	jdkArchive, err := r.fetch(ctx, p.JDKArchive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JDK archive: %w", err)
	}
	logger.Info("extracting JDK", "archive", jdkArchive)
	jdkRoot, err := extractor.Extract(jdkArchive, jdkTmp)
	if err != nil {
		return nil, fmt.Errorf("failed to extract JDK archive: %w", err)
	}
	jdkHome := paths.JDKHome(jdkRoot)
	moduleDirs := []string{paths.JmodsDir(jdkHome)}

	if p.HasJavaFX() {
		fxArchive, err := r.fetch(ctx, p.JavaFXArchive)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch JavaFX archive: %w", err)
		}
		logger.Info("extracting JavaFX jmods", "archive", fxArchive)
		fxRoot, err := extractor.Extract(fxArchive, fxTmp)
		if err != nil {
			return nil, fmt.Errorf("failed to extract JavaFX archive: %w", err)
		}
		moduleDirs = append(moduleDirs, fxRoot)
	}

	if r.opts.CheckModules {
		if unknown := modlist.Check(modules, moduleDirs...); len(unknown) > 0 {
			return nil, &UnknownModulesError{Modules: unknown}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.ws.Track(p.OutputDir)
	logger.Info("linking runtime image", "output", p.OutputDir, "modules", modlist.Join(modules))
	req := linker.Request{
		JDKHome:    jdkHome,
		ModuleDirs: moduleDirs,
		Modules:    modules,
		OutputDir:  p.OutputDir,
	}
	if err := r.opts.Linker.Link(ctx, req); err != nil {
		return nil, err
	}

	if len(directives) > 0 {
		logger.Info("copying extra files", "count", len(directives))
		written, err := copylist.Apply(p.OutputDir, directives)
		if err != nil {
			return nil, err
		}
		for _, f := range written {
			logger.Debug("copied", "file", f)
		}
	}

	res := &Result{
		Archive:       archiver.Name(p.OutputDir, r.opts.Platform.Tag, p.Kind, false),
		SourceArchive: archiver.Name(p.OutputDir, r.opts.Platform.Tag, p.Kind, true),
		Modules:       modules,
	}

	logger.Info("writing archive", "path", res.Archive)
	if err := archiver.Create(p.Kind, p.OutputDir, res.Archive); err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}

	srcArchive := paths.SrcArchivePath(jdkHome)
	if err := copylist.CopyFile(srcArchive, filepath.Join(paths.LibDir(p.OutputDir), filepath.Base(srcArchive))); err != nil {
		return nil, fmt.Errorf("failed to add JDK sources: %w", err)
	}

	logger.Info("writing archive", "path", res.SourceArchive)
	if err := archiver.Create(p.Kind, p.OutputDir, res.SourceArchive); err != nil {
		return nil, fmt.Errorf("failed to create source archive: %w", err)
	}

	return res, nil
}

// fetch returns a local path for src, downloading URLs into the cache or,
// without one, into the workspace. A "#sha256=" fragment on the URL is
// verified against the downloaded bytes.
func (r *run) fetch(ctx context.Context, src string) (string, error) {
	if !params.IsRemote(src) {
		return src, nil
	}
	if r.opts.Downloader == nil {
		return "", fmt.Errorf("cannot download %s: no downloader configured", src)
	}
	src, wantSum, err := params.SplitChecksum(src)
	if err != nil {
		return "", err
	}

	c := r.opts.Cache
	destDir := ""
	if c != nil {
		if entry, ok := c.Get(src, wantSum); ok {
			r.opts.Logger.Info("using cached download", "url", src, "file", entry.FilePath)
			return entry.FilePath, nil
		}
		destDir = c.DownloadsDir()
	} else {
		if r.downloadDir == "" {
			r.downloadDir = r.ws.TempDir("download")
		}
		destDir = r.downloadDir
	}

	r.opts.Logger.Info("downloading", "url", src)
	result, err := r.opts.Downloader.Download(ctx, src, destDir, cache.FileName(src), wantSum)
	if err != nil {
		return "", err
	}

	if c != nil {
		if err := c.Put(src, result.FilePath, result.Checksum); err != nil {
			r.opts.Logger.Warn("failed to update download cache", "err", err)
		}
	}
	return result.FilePath, nil
}
