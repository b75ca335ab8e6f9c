package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"

	"github.com/maskedsyntax/jrtbuild/internal/archiver"
	"github.com/maskedsyntax/jrtbuild/internal/params"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"jrtbuild": run,
	}))
}

func TestScripts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake jlink is a shell script")
	}

	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			env.Setenv("JRTBUILD_PLATFORM_TAG", "test")
			env.Setenv("JRTBUILD_NO_CACHE", "true")
			env.Setenv("NO_COLOR", "1")
			return nil
		},
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"mkjdk": cmdMkJDK,
			"mkfx":  cmdMkFX,
		},
	})
}

// fakeJlink records its arguments in $WORK/jlink.args and lays out a
// minimal image. Exit status comes from the baked-in code.
const fakeJlink = `#!/bin/sh
printf '%%s\n' "$@" > %q
for a in "$@"; do
  case "$a" in --output=*) out="${a#--output=}";; esac
done
if [ %d -ne 0 ]; then
  echo "Error: linking failed" >&2
  exit %d
fi
mkdir -p "$out/bin" "$out/conf" "$out/lib"
echo runtime > "$out/lib/modules"
`

// mkjdk [-fail] archive
func cmdMkJDK(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! mkjdk")
	}
	code := 0
	if len(args) > 0 && args[0] == "-fail" {
		code = 2
		args = args[1:]
	}
	if len(args) != 1 {
		ts.Fatalf("usage: mkjdk [-fail] archive")
	}

	root := filepath.Join(ts.MkAbs("jdk-src"), "jdk-21")
	argsLog := ts.MkAbs("jlink.args")
	files := map[string]string{
		"jmods/java.base.jmod":    "jmod",
		"jmods/java.logging.jmod": "jmod",
		"lib/src.zip":             "sources",
	}
	writeFiles(ts, root, files, 0o644)
	writeFiles(ts, root, map[string]string{
		"bin/jlink": fmt.Sprintf(fakeJlink, argsLog, code, code),
	}, 0o755)

	kind := params.TarGz
	if filepath.Ext(args[0]) == ".zip" {
		kind = params.Zip
	}
	ts.Check(archiver.Create(kind, root, ts.MkAbs(args[0])))
}

// mkfx archive
func cmdMkFX(ts *testscript.TestScript, neg bool, args []string) {
	if neg || len(args) != 1 {
		ts.Fatalf("usage: mkfx archive")
	}

	root := filepath.Join(ts.MkAbs("fx-src"), "javafx-jmods-21")
	writeFiles(ts, root, map[string]string{
		"javafx.base.jmod":     "jmod",
		"javafx.controls.jmod": "jmod",
	}, 0o644)
	ts.Check(archiver.Create(params.Zip, root, ts.MkAbs(args[0])))
}

func writeFiles(ts *testscript.TestScript, root string, files map[string]string, mode os.FileMode) {
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		ts.Check(os.MkdirAll(filepath.Dir(p), 0o755))
		ts.Check(os.WriteFile(p, []byte(body), mode))
	}
}
