// Package scan rebuilds a document listing from the local directory layout.
// It is a fallback data source for when no cache exists and the remote is
// unreachable; it performs no decision logic of its own.
package scan

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/pkg/formatters"
)

// Library scans <root>/<category>/*.pdf for both categories and derives a
// record per file. Scan-created records carry no syncStatus; a later sync
// decides what is current. A missing category directory contributes no
// records rather than an error.
func Library(root string) (*cache.Cache, error) {
	result := cache.New()
	fsys := os.DirFS(root)

	for _, category := range cache.Categories() {
		matches, err := doublestar.Glob(fsys, string(category)+"/*.pdf")
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			info, err := os.Stat(filepath.Join(root, match))
			if err != nil {
				continue // file vanished between glob and stat
			}

			name := filepath.Base(match)
			result.Upsert(category, cache.DocumentRecord{
				ID:          formatters.DocumentID(string(category), name),
				Title:       formatters.TitleFromFilename(name),
				Description: "",
				File:        string(category) + "/" + name,
				Size:        formatters.HumanSize(info.Size()),
				Date:        formatters.LocalDate(info.ModTime()),
			})
		}
	}

	return result, nil
}
