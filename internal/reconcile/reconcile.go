// Package reconcile compares the remote manifest against the local cache
// and produces the download plan.
package reconcile

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/internal/manifest"
	"github.com/joe/docsync/pkg/formatters"
)

// Reason explains why a task made it into the plan.
type Reason string

// Exported constants.
const (
	// ReasonNew - no local record exists for the file
	ReasonNew Reason = "new"
	// ReasonRetry - the last attempt for this file failed; always retried
	// regardless of timestamps
	ReasonRetry Reason = "retry"
	// ReasonUpdated - the manifest lists a newer copy than the local one
	ReasonUpdated Reason = "updated"
)

// Task is one planned download, produced here and consumed by the downloader.
type Task struct {
	Category  cache.Category
	Name      string
	Size      int64
	Modified  string // ISO-8601, from the manifest entry
	SourceURL string
	DestPath  string
	RelPath   string // "<category>/<name>", the join key with the cache
	Reason    Reason
}

// Planner derives task URLs and destination paths from its configuration.
// Planning itself is side-effect-free; the cache is only read.
type Planner struct {
	BaseURL  string // remote base; files live at <base>/docs/<category>/<name>
	DocsRoot string // local documents directory root
}

// NewPlanner creates a planner.
func NewPlanner(baseURL, docsRoot string) *Planner {
	return &Planner{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		DocsRoot: docsRoot,
	}
}

// Plan walks every manifest entry in category order (all gcf before all
// policy, manifest order within each) and decides inclusion:
//
//  1. no local record for the relative path -> new
//  2. local record marked failed -> retry, independent of timestamps
//  3. manifest modified newer than the record's remoteModified (falling
//     back to the record's date when remoteModified is absent) -> updated
//  4. otherwise the local copy is current and the entry is excluded
func (p *Planner) Plan(m *manifest.Manifest, c *cache.Cache) []Task {
	var tasks []Task

	for _, category := range cache.Categories() {
		lookup := c.Lookup(category)

		for _, entry := range m.Entries(category) {
			relPath := string(category) + "/" + entry.Name

			reason, include := decide(lookup[relPath], entry)
			if !include {
				continue
			}

			tasks = append(tasks, Task{
				Category:  category,
				Name:      entry.Name,
				Size:      entry.Size,
				Modified:  entry.Modified,
				SourceURL: p.BaseURL + "/docs/" + string(category) + "/" + entry.Name,
				DestPath:  filepath.Join(p.DocsRoot, string(category), entry.Name),
				RelPath:   relPath,
				Reason:    reason,
			})
		}
	}

	return tasks
}

func decide(record *cache.DocumentRecord, entry manifest.Entry) (Reason, bool) {
	if record == nil {
		return ReasonNew, true
	}

	if record.SyncStatus == cache.StatusFailed {
		return ReasonRetry, true
	}

	if remoteNewer(entry.Modified, record) {
		return ReasonUpdated, true
	}

	return "", false
}

// remoteNewer reports whether the manifest timestamp is strictly newer than
// the record's baseline. Unparseable timestamps on either side compare as
// not-newer, which excludes the entry.
func remoteNewer(modified string, record *cache.DocumentRecord) bool {
	remote, err := time.Parse(time.RFC3339, modified)
	if err != nil {
		return false
	}

	baseline, ok := recordBaseline(record)
	if !ok {
		return false
	}

	return remote.After(baseline)
}

func recordBaseline(record *cache.DocumentRecord) (time.Time, bool) {
	if record.RemoteModified != "" {
		t, err := time.Parse(time.RFC3339, record.RemoteModified)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	}

	t, err := time.Parse(formatters.DateLayout, record.Date)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}
