package copylist

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	input := "a.txt;lib\n\n  b/c.properties ;  conf/security \r\nd.txt;bin;extra\n"
	got, err := parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	want := []Directive{
		{Number: 1, Source: "a.txt", Dest: "lib"},
		{Number: 3, Source: "b/c.properties", Dest: "conf/security"},
		{Number: 4, Source: "d.txt", Dest: "bin;extra"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parse() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		line   string
		number int
	}{
		{"no separator", "a.txt;lib\nbroken line\n", "broken line", 2},
		{"empty destination", "a.txt;   \n", "a.txt;   ", 1},
		{"only separator", ";\n", ";", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parse(strings.NewReader(tt.input))
			var merr *MalformedLineError
			if !errors.As(err, &merr) {
				t.Fatalf("parse() error = %v, want *MalformedLineError", err)
			}
			if merr.Line != tt.line || merr.Number != tt.number {
				t.Errorf("got line %d %q, want line %d %q", merr.Number, merr.Line, tt.number, tt.line)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q does not name the line", err)
			}
		})
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	image := t.TempDir()
	for _, d := range []string{"lib", "conf"} {
		if err := os.Mkdir(filepath.Join(image, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	first := filepath.Join(src, "one", "app.properties")
	second := filepath.Join(src, "two", "app.properties")
	for p, content := range map[string]string{first: "first", second: "second"} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	written, err := Apply(image, []Directive{
		{Source: first, Dest: "conf"},
		{Source: second, Dest: "conf"},
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(written) != 2 {
		t.Errorf("written = %v, want 2 entries", written)
	}

	data, err := os.ReadFile(filepath.Join(image, "conf", "app.properties"))
	if err != nil {
		t.Fatalf("failed to read copied file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want later directive to win", data)
	}
}

func TestApply_Glob(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	image := t.TempDir()
	if err := os.Mkdir(filepath.Join(image, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.so", "nested/b.so", "skip.txt"} {
		p := filepath.Join(src, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	pattern := filepath.Join(src, "**", "*.so")
	if _, err := Apply(image, []Directive{{Source: pattern, Dest: "lib"}}); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	for _, name := range []string{"a.so", "b.so"} {
		if _, err := os.Stat(filepath.Join(image, "lib", name)); err != nil {
			t.Errorf("expected %s in lib: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(image, "lib", "skip.txt")); !os.IsNotExist(err) {
		t.Errorf("skip.txt should not be copied")
	}

	if _, err := Apply(image, []Directive{{Source: filepath.Join(src, "*.none"), Dest: "lib"}}); err == nil {
		t.Error("Apply() expected error for pattern without matches")
	}
}

func TestApply_MissingDestination(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(src, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Apply(t.TempDir(), []Directive{{Number: 7, Source: src, Dest: "does/not/exist"}})
	if err == nil {
		t.Fatal("Apply() expected error for missing destination directory")
	}
	if !strings.Contains(err.Error(), "copy-list line 7") {
		t.Errorf("Apply() error = %v, want the line number", err)
	}
}

func TestApply_MissingSource(t *testing.T) {
	t.Parallel()

	image := t.TempDir()
	if err := os.Mkdir(filepath.Join(image, "lib"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Apply(image, []Directive{{Source: filepath.Join(image, "nope"), Dest: "lib"}}); err == nil {
		t.Fatal("Apply() expected error for missing source")
	}
}
