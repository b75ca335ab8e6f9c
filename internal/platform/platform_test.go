package platform

import (
	"os"
	"runtime"
	"testing"
)

func TestHost(t *testing.T) {
	d := Host()

	if d.Tag == "" {
		t.Fatal("Host().Tag is empty")
	}
	if d.ListSeparator != string(os.PathListSeparator) {
		t.Errorf("ListSeparator = %q, want %q", d.ListSeparator, string(os.PathListSeparator))
	}

	want := "jlink"
	if runtime.GOOS == "windows" {
		want = "jlink.exe"
	}
	if d.LinkerName != want {
		t.Errorf("LinkerName = %q, want %q", d.LinkerName, want)
	}
}

func TestWithTag(t *testing.T) {
	d := Descriptor{Tag: "linux", LinkerName: "jlink", ListSeparator: ":"}

	if got := d.WithTag("").Tag; got != "linux" {
		t.Errorf("WithTag(\"\").Tag = %q, want linux", got)
	}
	if got := d.WithTag("linux-musl").Tag; got != "linux-musl" {
		t.Errorf("WithTag(\"linux-musl\").Tag = %q, want linux-musl", got)
	}
	if d.Tag != "linux" {
		t.Error("WithTag mutated the receiver")
	}
}
