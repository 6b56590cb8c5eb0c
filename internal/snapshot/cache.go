package snapshot

import (
	"encoding/json"
	"os"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
)

// FileSig is the cached (mtime, size) pair for one file.
type FileSig struct {
	ModTime int64 `json:"mtime"`
	Size    int64 `json:"size"`
}

// CacheDoc is the JSON sidecar document (spec.md §4.2):
// {signature_hash, file_index{rel: (mtime, size)}, snapshot}.
type CacheDoc struct {
	SignatureHash string             `json:"signature_hash"`
	FileIndex     map[string]FileSig `json:"file_index"`
	Snapshot      string             `json:"snapshot"`
}

// Cache persists a CacheDoc to a JSON sidecar file.
type Cache struct {
	path string
}

// NewCache creates a Cache backed by path.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load reads the cache document, returning (nil, nil) if it does not exist.
func (c *Cache) Load() (*CacheDoc, error) {
	data, err := fsutil.ReadFileScoped(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, nil //nolint:nilerr // a corrupt cache degrades to a full rebuild, not a hard failure
	}
	var doc CacheDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil //nolint:nilerr // same: corrupt cache -> rebuild
	}
	return &doc, nil
}

// Save atomically writes the cache document.
func (c *Cache) Save(doc *CacheDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.AtomicWriteFile(c.path, data, 0o644)
}
