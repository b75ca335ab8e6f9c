package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/maskedsyntax/jrtbuild/internal/paths"
)

const (
	cacheFileName = "cache.json"
	DefaultTTL    = 24 * time.Hour
)

type Entry struct {
	FilePath  string    `json:"file_path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CacheData struct {
	Downloads map[string]Entry `json:"downloads"`
}

type Cache struct {
	data     CacheData
	dir      string
	filePath string
	ttl      time.Duration
}

// New opens the cache rooted at dir. A missing or unreadable index starts
// empty.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		data: CacheData{
			Downloads: make(map[string]Entry),
		},
		dir:      dir,
		filePath: filepath.Join(dir, cacheFileName),
		ttl:      ttl,
	}

	c.load()
	return c, nil
}

func (c *Cache) load() {
	data, err := os.ReadFile(c.filePath)
	if err != nil {
		return
	}

	json.Unmarshal(data, &c.data)
	if c.data.Downloads == nil {
		c.data.Downloads = make(map[string]Entry)
	}
}

func (c *Cache) save() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.filePath, data, 0644)
}

// DownloadsDir is where cached archives live.
func (c *Cache) DownloadsDir() string {
	return paths.DownloadsDir(c.dir)
}

// FileName derives a stable, collision-free file name for rawURL that keeps the
// archive's extension.
func FileName(rawURL string) string {
	name := path.Base(rawURL)
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8]) + "-" + name
}

// Get returns the cached file for rawURL if it is fresh and its content still
// hashes to the recorded checksum. A non-empty wantSum must match as well.
func (c *Cache) Get(rawURL, wantSum string) (Entry, bool) {
	entry, exists := c.data.Downloads[rawURL]
	if !exists {
		return Entry{}, false
	}

	if time.Since(entry.UpdatedAt) > c.ttl {
		return Entry{}, false
	}

	if wantSum != "" && entry.Checksum != wantSum {
		return Entry{}, false
	}

	sum, err := fileChecksum(entry.FilePath)
	if err != nil || sum != entry.Checksum {
		return Entry{}, false
	}

	return entry, true
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Cache) Put(rawURL, filePath, checksum string) error {
	c.data.Downloads[rawURL] = Entry{
		FilePath:  filePath,
		Checksum:  checksum,
		UpdatedAt: time.Now(),
	}
	return c.save()
}
