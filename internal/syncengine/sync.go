// Package syncengine sequences manifest fetch, reconciliation, the
// download loop, and cache persistence for one sync attempt.
package syncengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/joe/docsync/internal/cache"
	"github.com/joe/docsync/internal/download"
	"github.com/joe/docsync/internal/manifest"
	"github.com/joe/docsync/internal/reconcile"
	"github.com/joe/docsync/pkg/logger"
)

// State identifies where the engine is in a sync attempt.
type State string

// Exported constants.
const (
	StateIdle             State = "idle"
	StateFetchingManifest State = "fetching-manifest"
	StateComparing        State = "comparing"
	StateDownloading      State = "downloading"
	StatePersisting       State = "persisting"
	StateDone             State = "done"
	StateError            State = "error"

	// StageFetchManifest tags results of syncs aborted by a manifest failure
	StageFetchManifest = "fetch-manifest"
	// StageError tags results of syncs aborted by an unexpected fault
	StageError = "error"
)

// Fetcher retrieves the remote manifest.
type Fetcher interface {
	Fetch() (*manifest.Manifest, error)
}

// Downloader fetches a single planned file.
type Downloader interface {
	Download(task reconcile.Task, onProgress download.ProgressCallback) (*download.Result, error)
}

// Result summarizes one sync attempt for the caller.
type Result struct {
	Success    bool   // the sync mechanism ran; per-file failures do not clear this
	Stage      string // set only on aborted syncs
	Message    string // human-readable summary, one per attempt
	Err        error  // underlying error for aborted syncs
	Downloaded int
	Failed     int
	Total      int
}

// Engine owns the sync state machine. All mutable sync state lives on the
// engine rather than in globals; the in-progress flag is part of this
// handle.
type Engine struct {
	Fetcher    Fetcher
	Downloader Downloader
	Planner    *reconcile.Planner
	Store      *cache.Store
	Log        logger.Logger

	// Clock is overridable for tests.
	Clock func() time.Time

	emitter EventEmitter
	mu      sync.Mutex
	state   State
	syncing bool
}

// NewEngine creates an engine wired to the given collaborators.
func NewEngine(fetcher Fetcher, downloader Downloader, planner *reconcile.Planner, store *cache.Store, log logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}

	return &Engine{
		Fetcher:    fetcher,
		Downloader: downloader,
		Planner:    planner,
		Store:      store,
		Log:        log,
		Clock:      time.Now,
		state:      StateIdle,
	}
}

// SetEventEmitter sets the event emitter for progress reporting.
// The emitter is optional - if nil, no events are emitted.
func (e *Engine) SetEventEmitter(emitter EventEmitter) {
	e.emitter = emitter
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// emit sends an event if an emitter is configured.
func (e *Engine) emit(event Event) {
	if e.emitter != nil {
		e.emitter.Emit(event)
	}
}

func (e *Engine) setState(state State) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}

// Sync runs one complete sync attempt. At most one sync runs at a time:
// when one is already in flight the new request is ignored and Sync
// returns nil. There is no cancellation once a sync has started.
//
// A manifest failure aborts before any downloads and leaves the cache
// untouched. Per-file failures are recorded against their cache entries
// and do not abort the loop. The cache is loaded once, mutated in memory
// as tasks resolve, and written back exactly once at the end.
func (e *Engine) Sync() *Result {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		e.Log.Debug("sync request ignored, sync already in progress")

		return nil
	}
	e.syncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.syncing = false
		e.mu.Unlock()
	}()

	return e.run()
}

func (e *Engine) run() (result *Result) {
	// An unexpected fault mid-sync surfaces as a stage-tagged failure.
	// Cache mutations already applied in memory are not rolled back; only
	// the unwritten tail is lost, since persistence happens once at the end.
	defer func() {
		if r := recover(); r != nil {
			e.setState(StateError)
			message := fmt.Sprintf("sync failed unexpectedly: %v", r)
			e.Log.Error("sync aborted", logger.String("reason", message))
			e.emit(SyncFailed{Message: message})
			result = &Result{Stage: StageError, Message: message}
		}
	}()

	e.setState(StateFetchingManifest)

	remote, err := e.Fetcher.Fetch()
	if err != nil {
		e.setState(StateError)
		message := fmt.Sprintf("could not retrieve the document manifest: %v", err)
		e.Log.Error("manifest fetch failed", logger.Error(err))
		e.emit(SyncFailed{Message: message})

		return &Result{Stage: StageFetchManifest, Message: message, Err: err}
	}

	e.setState(StateComparing)

	local, loadErr := e.Store.Load()
	if loadErr != nil {
		// Corrupt cache degrades to empty; recovered locally, never surfaced
		e.Log.Warn("cache unreadable, starting from empty", logger.Error(loadErr))
	}

	tasks := e.Planner.Plan(remote, local)
	e.warnOrphanedFailures(remote, local)

	if len(tasks) == 0 {
		e.setState(StateDone)
		e.Log.Info("library is current", logger.Int("known", len(local.GCF)+len(local.Policy)))
		e.emit(SyncComplete{})

		return &Result{Success: true, Message: "All documents are up to date."}
	}

	e.setState(StateDownloading)
	downloaded, failed := e.downloadAll(tasks, local)

	e.setState(StatePersisting)
	local.LastSync = e.Clock().UTC().Format(time.RFC3339)

	if err := e.Store.Save(local); err != nil {
		// Best effort: the sync itself still counts as completed
		e.Log.Warn("cache write failed", logger.Error(err))
	}

	e.setState(StateDone)
	e.emit(SyncComplete{Downloaded: downloaded, Failed: failed, Total: len(tasks)})

	return &Result{
		Success:    true,
		Message:    summaryMessage(downloaded, failed),
		Downloaded: downloaded,
		Failed:     failed,
		Total:      len(tasks),
	}
}

// downloadAll iterates the plan strictly sequentially, folding each
// outcome into the in-memory cache.
func (e *Engine) downloadAll(tasks []reconcile.Task, local *cache.Cache) (downloaded, failed int) {
	total := len(tasks)

	for i, task := range tasks {
		e.emit(DownloadStatus{
			Stage:   string(StateDownloading),
			Total:   total,
			Current: i + 1,
			File:    task.Name,
			Percent: 0,
		})
		e.Log.Info("downloading",
			logger.String("file", task.RelPath),
			logger.String("reason", string(task.Reason)),
			logger.Int("current", i+1),
			logger.Int("total", total))

		result, err := e.Downloader.Download(task, func(name string, percent int) {
			e.emit(DownloadProgress{File: name, Percent: percent})
		})
		if err != nil {
			failed++
			e.Log.Warn("download failed", logger.String("file", task.RelPath), logger.Error(err))
			e.recordFailure(task, local)

			continue
		}

		downloaded++
		local.Upsert(task.Category, cache.NewRecord(task.Category, task.Name, result.Size, result.Date, task.Modified))
	}

	return downloaded, failed
}

// recordFailure marks the existing record failed in place, keeping its
// previous successful metadata, or appends a manifest-derived placeholder
// when this was a first-ever attempt.
func (e *Engine) recordFailure(task reconcile.Task, local *cache.Cache) {
	if local.MarkFailed(task.Category, task.RelPath) {
		return
	}

	local.Upsert(task.Category, cache.NewFailedPlaceholder(task.Category, task.Name, task.Size, task.Modified))
}

// warnOrphanedFailures flags failed records the manifest no longer lists.
// Such files silently drop out of future plans without ever being
// reconciled; they are reported here rather than resolved.
func (e *Engine) warnOrphanedFailures(remote *manifest.Manifest, local *cache.Cache) {
	listed := make(map[string]bool, remote.TotalCount())

	for _, category := range cache.Categories() {
		for _, entry := range remote.Entries(category) {
			listed[string(category)+"/"+entry.Name] = true
		}
	}

	var orphaned []string

	for _, relPath := range local.FailedRecords() {
		if !listed[relPath] {
			orphaned = append(orphaned, relPath)
		}
	}

	if len(orphaned) > 0 {
		e.Log.Warn("failed records no longer listed in manifest, will not retry",
			logger.Strings("files", orphaned))
	}
}

func summaryMessage(downloaded, failed int) string {
	if failed > 0 {
		return fmt.Sprintf(
			"Synced %d document(s); %d failed. Failed files will be retried on the next sync.",
			downloaded, failed)
	}

	return fmt.Sprintf("Synced %d document(s) successfully.", downloaded)
}
