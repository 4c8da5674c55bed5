package reference

import (
	"encoding/gob"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Fingerprint holds stat-based identity for a file.
type Fingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a Fingerprint from an on-disk file.
func StatFile(path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// ParseCache stores a parsed reference table next to its source file:
//
//	<reference>.gob       (serialized rows)
//	<reference>.gob.meta  (source file fingerprint)
type ParseCache struct {
	source string
}

// NewParseCache creates a parse cache for the given reference file.
func NewParseCache(referencePath string) *ParseCache {
	return &ParseCache{source: referencePath}
}

func (pc *ParseCache) gobPath() string {
	return pc.source + ".gob"
}

func (pc *ParseCache) metaPath() string {
	return pc.source + ".gob.meta"
}

// Valid checks whether the cached rows match the given source fingerprint.
func (pc *ParseCache) Valid(src Fingerprint) bool {
	meta, err := pc.readMeta()
	if err != nil {
		return false
	}
	if meta["size"] != strconv.FormatInt(src.Size, 10) ||
		meta["modtime"] != src.ModTime.UTC().Format(time.RFC3339Nano) {
		return false
	}
	if _, err := os.Stat(pc.gobPath()); err != nil {
		return false
	}
	return true
}

// Load reads cached rows from disk into a new table.
func (pc *ParseCache) Load() (*Table, error) {
	f, err := os.Open(pc.gobPath())
	if err != nil {
		return nil, fmt.Errorf("open parse cache: %w", err)
	}
	defer f.Close()

	var rows []*Row
	if err := gob.NewDecoder(f).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode parse cache: %w", err)
	}

	t := New()
	for _, r := range rows {
		t.Add(r)
	}
	return t, nil
}

// Write serializes all rows of the table to disk.
func (pc *ParseCache) Write(t *Table, src Fingerprint) error {
	f, err := os.Create(pc.gobPath())
	if err != nil {
		return fmt.Errorf("create parse cache: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(t.Rows()); err != nil {
		f.Close()
		os.Remove(pc.gobPath())
		return fmt.Errorf("encode parse cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close parse cache: %w", err)
	}

	return pc.writeMeta(src)
}

// Clear removes the cached files.
func (pc *ParseCache) Clear() {
	os.Remove(pc.gobPath())
	os.Remove(pc.metaPath())
}

func (pc *ParseCache) writeMeta(src Fingerprint) error {
	lines := []string{
		"size=" + strconv.FormatInt(src.Size, 10),
		"modtime=" + src.ModTime.UTC().Format(time.RFC3339Nano),
		"created_at=" + time.Now().UTC().Format(time.RFC3339),
		"",
	}
	return os.WriteFile(pc.metaPath(), []byte(strings.Join(lines, "\n")), 0644)
}

func (pc *ParseCache) readMeta() (map[string]string, error) {
	data, err := os.ReadFile(pc.metaPath())
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if k, v, ok := strings.Cut(line, "="); ok {
			meta[k] = v
		}
	}
	return meta, nil
}

// LoadFileCached loads a reference file, reusing a valid parse cache when
// present and refreshing it otherwise. The boolean reports a cache hit.
// A cache that cannot be written is not an error.
func LoadFileCached(path string) (*Table, bool, error) {
	src, err := StatFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("stat reference file: %w", err)
	}

	pc := NewParseCache(path)
	if pc.Valid(src) {
		if t, err := pc.Load(); err == nil {
			return t, true, nil
		}
		pc.Clear()
	}

	t, err := LoadFile(path)
	if err != nil {
		return nil, false, err
	}
	if err := pc.Write(t, src); err != nil {
		pc.Clear()
	}
	return t, false, nil
}
