package bib

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// Cache layout, all under one directory:
//
//	bib-files-mapping.json  URL -> mapping entry
//	<hash>.meta.json        per-source fetch metadata
//	parsed_<hash>.json      per-source parsed entries
//	combined-entries.json   merged entries for the current build
const (
	mappingFile  = "bib-files-mapping.json"
	combinedFile = "combined-entries.json"
)

// URLHash returns the content-independent cache key for a source URL.
func URLHash(rawURL string) string {
	sum := blake3.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:16])
}

// FileMeta is the per-cached-file record driving fetch-skip decisions.
type FileMeta struct {
	SourceURL       string     `json:"source_url"`
	RemoteUpdatedAt *time.Time `json:"remote_updated_at"`
	EntryCount      int        `json:"entry_count"`
	FetchedAt       time.Time  `json:"fetched_at"`
	ParsedFile      string     `json:"parsed_file"`
}

// MappingEntry records where a source URL's cache files live.
type MappingEntry struct {
	CachedFile   string     `json:"cached_file"`
	OriginalFile string     `json:"original_file"`
	DownloadURL  string     `json:"download_url"`
	LastUpdated  *time.Time `json:"last_updated"`
}

// Cache is the persistent bibliography cache. Files for different URLs
// never collide (each is keyed by its own hash); concurrent access to
// the same URL is serialized by the fetch pipeline's singleflight.
type Cache struct {
	dir    string
	logger *zap.Logger
}

// NewCache opens (and creates if needed) a cache directory.
func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Meta loads the fetch metadata for a hash; a missing or unparseable
// file is a cache miss.
func (c *Cache) Meta(hash string) (FileMeta, bool) {
	var meta FileMeta
	ok := c.readJSON(hash+".meta.json", &meta)
	return meta, ok
}

// SaveMeta persists the fetch metadata for a hash.
func (c *Cache) SaveMeta(hash string, meta FileMeta) error {
	return c.writeJSON(hash+".meta.json", meta)
}

// Parsed loads the parsed-entries snapshot for a hash.
func (c *Cache) Parsed(hash string) (map[string]Entry, bool) {
	var entries map[string]Entry
	if !c.readJSON("parsed_"+hash+".json", &entries) {
		return nil, false
	}
	return entries, true
}

// SaveParsed persists the parsed-entries snapshot for a hash.
func (c *Cache) SaveParsed(hash string, entries map[string]Entry) error {
	return c.writeJSON("parsed_"+hash+".json", entries)
}

// Mapping loads the URL to cache-file mapping; missing or malformed
// mapping starts empty.
func (c *Cache) Mapping() map[string]MappingEntry {
	mapping := make(map[string]MappingEntry)
	c.readJSON(mappingFile, &mapping)
	if mapping == nil {
		mapping = make(map[string]MappingEntry)
	}
	return mapping
}

// SaveMapping persists the URL to cache-file mapping.
func (c *Cache) SaveMapping(mapping map[string]MappingEntry) error {
	return c.writeJSON(mappingFile, mapping)
}

// Combined loads the merged entries snapshot of a previous build.
func (c *Cache) Combined() (map[string]Entry, bool) {
	var entries map[string]Entry
	if !c.readJSON(combinedFile, &entries) {
		return nil, false
	}
	return entries, true
}

// SaveCombined persists the merged entries for the current build.
func (c *Cache) SaveCombined(entries map[string]Entry) error {
	return c.writeJSON(combinedFile, entries)
}

// readJSON loads one cache file. Unparseable content is treated as a
// cache miss and logged as a warning, never an abort.
func (c *Cache) readJSON(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(c.dir, name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("malformed cache file ignored", zap.String("file", name), zap.Error(err))
		return false
	}
	return true
}

// writeJSON writes a cache file atomically: a uuid-suffixed temp file
// in the same directory, then a rename.
func (c *Cache) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	tmp := filepath.Join(c.dir, name+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, filepath.Join(c.dir, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}
