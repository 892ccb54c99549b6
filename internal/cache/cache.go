// Package cache holds the persisted record of known documents and the
// JSON store that survives between syncs.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	syncerrors "github.com/joe/docsync/pkg/errors"
	"github.com/joe/docsync/pkg/formatters"
)

// Category identifies one of the two document collections.
type Category string

// Exported constants.
const (
	// CategoryGCF is the governance and compliance framework collection
	CategoryGCF Category = "gcf"
	// CategoryPolicy is the policy document collection
	CategoryPolicy Category = "policy"

	// StatusFailed marks a record whose last download attempt failed
	StatusFailed = "failed"
	// StatusSuccess marks a record whose contents match its last manifest entry
	StatusSuccess = "success"

	// FilePermissions is the mode used for the persisted cache file
	FilePermissions = 0o600
	// DirPermissions is the mode used for created cache directories
	DirPermissions = 0o750
)

// Categories returns both categories in their fixed processing order.
func Categories() []Category {
	return []Category{CategoryGCF, CategoryPolicy}
}

// DocumentRecord is one known file in a category.
type DocumentRecord struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	File           string `json:"file"` // "<category>/<filename>", unique within a category
	Size           string `json:"size"` // human-formatted
	Date           string `json:"date"` // local write date, YYYY-MM-DD
	RemoteModified string `json:"remoteModified,omitempty"`
	SyncStatus     string `json:"syncStatus,omitempty"`
}

// NewRecord builds a fully-derived record for a successfully synced file.
func NewRecord(category Category, name string, sizeBytes int64, date, remoteModified string) DocumentRecord {
	return DocumentRecord{
		ID:             formatters.DocumentID(string(category), name),
		Title:          formatters.TitleFromFilename(name),
		Description:    "",
		File:           string(category) + "/" + name,
		Size:           formatters.HumanSize(sizeBytes),
		Date:           date,
		RemoteModified: remoteModified,
		SyncStatus:     StatusSuccess,
	}
}

// NewFailedPlaceholder builds a record for a file whose first-ever download
// attempt failed. Metadata is derived from the manifest entry so the UI can
// still render a row for it.
func NewFailedPlaceholder(category Category, name string, sizeBytes int64, modified string) DocumentRecord {
	date := ""
	if t, err := time.Parse(time.RFC3339, modified); err == nil {
		date = formatters.LocalDate(t)
	}

	return DocumentRecord{
		ID:          formatters.DocumentID(string(category), name),
		Title:       formatters.TitleFromFilename(name),
		Description: "",
		File:        string(category) + "/" + name,
		Size:        formatters.HumanSize(sizeBytes),
		Date:        date,
		SyncStatus:  StatusFailed,
	}
}

// Cache is the top-level persisted aggregate.
type Cache struct {
	GCF      []DocumentRecord `json:"gcf"`
	Policy   []DocumentRecord `json:"policy"`
	LastSync string           `json:"lastSync,omitempty"`
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		GCF:    []DocumentRecord{},
		Policy: []DocumentRecord{},
	}
}

// Records returns the record slice for a category.
func (c *Cache) Records(category Category) []DocumentRecord {
	if category == CategoryPolicy {
		return c.Policy
	}

	return c.GCF
}

// Lookup builds a map from relative path ("<category>/<filename>") to record
// for one category. The returned pointers address the cache's own records.
func (c *Cache) Lookup(category Category) map[string]*DocumentRecord {
	records := c.recordsRef(category)
	lookup := make(map[string]*DocumentRecord, len(*records))

	for i := range *records {
		lookup[(*records)[i].File] = &(*records)[i]
	}

	return lookup
}

// Upsert replaces the record matching rec.File within the category, or
// appends it when no match exists. File uniqueness within a category is
// preserved.
func (c *Cache) Upsert(category Category, rec DocumentRecord) {
	records := c.recordsRef(category)

	for i := range *records {
		if (*records)[i].File == rec.File {
			(*records)[i] = rec
			return
		}
	}

	*records = append(*records, rec)
}

// MarkFailed flips the record matching relPath to StatusFailed in place,
// leaving the rest of its metadata untouched. Returns false when no record
// with that relative path exists.
func (c *Cache) MarkFailed(category Category, relPath string) bool {
	records := c.recordsRef(category)

	for i := range *records {
		if (*records)[i].File == relPath {
			(*records)[i].SyncStatus = StatusFailed
			return true
		}
	}

	return false
}

// FailedRecords returns the relative paths of all records currently marked
// failed, across both categories.
func (c *Cache) FailedRecords() []string {
	var failed []string

	for _, category := range Categories() {
		for _, rec := range c.Records(category) {
			if rec.SyncStatus == StatusFailed {
				failed = append(failed, rec.File)
			}
		}
	}

	return failed
}

func (c *Cache) recordsRef(category Category) *[]DocumentRecord {
	if category == CategoryPolicy {
		return &c.Policy
	}

	return &c.GCF
}

// Store reads and writes the persisted cache file.
type Store struct {
	Path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persisted cache. A missing or corrupt file degrades to an
// empty cache; the returned cache is never nil. The error, when non-nil, is
// a *PersistenceError suitable for logging only - callers must not treat it
// as fatal.
func (s *Store) Load() (*Cache, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return New(), &syncerrors.PersistenceError{Path: s.Path, Op: "read", Err: err}
	}

	var cache Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return New(), &syncerrors.PersistenceError{Path: s.Path, Op: "read", Err: err}
	}

	if cache.GCF == nil {
		cache.GCF = []DocumentRecord{}
	}
	if cache.Policy == nil {
		cache.Policy = []DocumentRecord{}
	}

	return &cache, nil
}

// Save writes the full cache back, replacing (not merging) the previous
// contents.
func (s *Store) Save(cache *Cache) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return &syncerrors.PersistenceError{Path: s.Path, Op: "write", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), DirPermissions); err != nil {
		return &syncerrors.PersistenceError{Path: s.Path, Op: "write", Err: err}
	}

	if err := os.WriteFile(s.Path, data, FilePermissions); err != nil {
		return &syncerrors.PersistenceError{Path: s.Path, Op: "write", Err: err}
	}

	return nil
}
