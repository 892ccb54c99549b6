package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/docsync/internal/syncengine"
)

// SyncEventMsg wraps a syncengine.Event for use as a tea.Msg.
type SyncEventMsg struct {
	Event syncengine.Event
}

// EventBridge adapts the engine's event stream to bubble tea messages.
// It implements syncengine.EventEmitter.
type EventBridge struct {
	msgs   chan tea.Msg
	closed bool
}

// NewEventBridge creates a bridge with enough buffer that the engine's
// sequential download loop never blocks on the UI.
func NewEventBridge() *EventBridge {
	return &EventBridge{
		msgs: make(chan tea.Msg, 100),
	}
}

// Emit implements syncengine.EventEmitter. The send is non-blocking; a
// full buffer drops the event rather than stalling a download.
func (b *EventBridge) Emit(event syncengine.Event) {
	if b.closed {
		return
	}

	select {
	case b.msgs <- SyncEventMsg{Event: event}:
	default:
	}
}

// ListenCmd returns a tea.Cmd that blocks until the next event arrives.
// Issue it from Init and again after handling each SyncEventMsg.
func (b *EventBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.msgs
		if !ok {
			return nil
		}

		return msg
	}
}

// Close closes the underlying channel once the sync has finished.
func (b *EventBridge) Close() {
	if !b.closed {
		b.closed = true
		close(b.msgs)
	}
}
