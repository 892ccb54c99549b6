package syncengine

// Event is the interface implemented by all sync engine events.
// Events for a given sync are strictly ordered: the per-file status event
// precedes its progress events, and the completion (or fatal error) event
// comes last. The single-sync-at-a-time rule means two syncs' events are
// never interleaved.
type Event interface {
	isEvent()
}

// EventEmitter is the interface for emitting events.
type EventEmitter interface {
	Emit(event Event)
}

// DownloadStatus is emitted before each file download begins.
type DownloadStatus struct {
	Stage   string // always "downloading"
	Total   int    // task count for this sync
	Current int    // one-based index of the current task
	File    string // filename being fetched
	Percent int    // always 0 at this point
}

func (DownloadStatus) isEvent() {}

// DownloadProgress is emitted per chunk while a file downloads.
// Only fires when the response declares its total size.
type DownloadProgress struct {
	File    string
	Percent int // integer 0-100, rounded
}

func (DownloadProgress) isEvent() {}

// SyncComplete is emitted once when a sync finishes, including the
// nothing-to-do case.
type SyncComplete struct {
	Downloaded int
	Failed     int
	Total      int
}

func (SyncComplete) isEvent() {}

// SyncFailed is emitted when a sync aborts before any downloads are
// attempted (manifest failure) or on an unexpected fault.
type SyncFailed struct {
	Message string
}

func (SyncFailed) isEvent() {}
