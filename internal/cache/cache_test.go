package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// sha256 of "jdk".
var jdkSum = func() string {
	sum := sha256.Sum256([]byte("jdk"))
	return hex.EncodeToString(sum[:])
}()

func TestCache_PutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	url := "https://example.com/jdk-21_linux-x64_bin.tar.gz"
	file := filepath.Join(c.DownloadsDir(), FileName(url))
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("jdk"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get(url, ""); ok {
		t.Fatal("Get() hit on empty cache")
	}
	if err := c.Put(url, file, jdkSum); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	reopened, err := New(dir, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := reopened.Get(url, "")
	if !ok {
		t.Fatal("Get() missed after reopening")
	}
	if entry.FilePath != file || entry.Checksum != jdkSum {
		t.Errorf("entry = %+v", entry)
	}
	if _, ok := reopened.Get(url, jdkSum); !ok {
		t.Error("Get() missed with the matching checksum")
	}
	if _, ok := reopened.Get(url, strings.Repeat("0", 64)); ok {
		t.Error("Get() hit with a different requested checksum")
	}

	if err := os.Remove(file); err != nil {
		t.Fatal(err)
	}
	if _, ok := reopened.Get(url, ""); ok {
		t.Error("Get() hit although the file is gone")
	}
}

func TestCache_Expired(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "jdk.tar.gz")
	if err := os.WriteFile(file, []byte("jdk"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, _ := New(dir, time.Hour)
	c.data.Downloads["u"] = Entry{FilePath: file, Checksum: jdkSum, UpdatedAt: time.Now().Add(-2 * time.Hour)}

	if _, ok := c.Get("u", ""); ok {
		t.Error("Get() returned an expired entry")
	}
}

func TestCache_TamperedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "jdk.tar.gz")
	if err := os.WriteFile(file, []byte("jdk"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, _ := New(dir, 0)
	if err := c.Put("u", file, jdkSum); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("jd"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("u", ""); ok {
		t.Error("Get() returned a file whose content no longer matches its checksum")
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	a := FileName("https://a.example/jdk.tar.gz")
	b := FileName("https://b.example/jdk.tar.gz")
	if a == b {
		t.Error("FileName() collides for different URLs")
	}
	if !strings.HasSuffix(a, "-jdk.tar.gz") {
		t.Errorf("FileName() = %q, want archive name suffix", a)
	}
}
