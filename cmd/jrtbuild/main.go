package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maskedsyntax/jrtbuild/internal/build"
	"github.com/maskedsyntax/jrtbuild/internal/cache"
	"github.com/maskedsyntax/jrtbuild/internal/config"
	"github.com/maskedsyntax/jrtbuild/internal/downloader"
	"github.com/maskedsyntax/jrtbuild/internal/params"
	"github.com/maskedsyntax/jrtbuild/internal/platform"
)

var (
	version = "dev"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		return 1
	}
	return 0
}

type rootFlags struct {
	configFile string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	v := config.New()
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "jrtbuild <tar.gz|zip> <output-dir> <jdk-archive> <javafx-jmods-archive|null> <module-list> [copy-list]",
		Short: "Build and package a minimal Java runtime image",
		Long: titleStyle.Render("jrtbuild") + mutedStyle.Render(" - custom Java runtime images with jlink") + `

jrtbuild extracts a JDK (and optionally the JavaFX jmods), links the modules
named in the module list into <output-dir>, copies the files named in the
copy list into the image and writes two archives next to <output-dir>:

  <name>-<platform>.<kind>       the runtime image
  <name>-<platform>-src.<kind>   the runtime image plus the JDK's src.zip

Archive arguments may also be http(s) URLs.

Examples:
  jrtbuild zip dist/myimage jdk-21_linux-x64_bin.tar.gz null modules.txt
  jrtbuild tar.gz dist/myapp jdk.tar.gz javafx-jmods-21.zip modules.txt copy.txt`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, v, flags)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&flags.configFile, "config", "", "config file (default is <user config dir>/jrtbuild/config.yaml)")
	f.String("platform-tag", "", "platform tag used in archive names (default: host platform)")
	f.Bool("check-modules", false, "verify module names against the module path before linking")
	f.Bool("no-cache", false, "do not cache downloaded archives")

	for key, flag := range map[string]string{
		config.KeyPlatformTag:  "platform-tag",
		config.KeyCheckModules: "check-modules",
		config.KeyNoCache:      "no-cache",
	} {
		if err := v.BindPFlag(key, f.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind --%s: %v", flag, err))
		}
	}

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, v *viper.Viper, flags *rootFlags) error {
	p, err := params.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(v, flags.configFile)
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, flags.verbose)

	opts := build.Options{
		Platform:     platform.Host().WithTag(cfg.PlatformTag),
		Logger:       logger,
		Downloader:   downloader.New(cfg.DownloadRetries, cmd.ErrOrStderr()),
		CheckModules: cfg.CheckModules,
	}
	if !cfg.NoCache {
		c, err := cache.New(cfg.CacheDir, cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to open download cache: %w", err)
		}
		opts.Cache = c
	}

	res, err := build.New(opts).Run(cmd.Context(), p)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Runtime image packaged (%d modules)", len(res.Modules))))
	fmt.Fprintln(out, pathStyle.Render(res.Archive))
	fmt.Fprintln(out, pathStyle.Render(res.SourceArchive))
	return nil
}

func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}

	return log.NewWithOptions(w, log.Options{
		Prefix: "jrtbuild",
		Level:  lvl,
	})
}
