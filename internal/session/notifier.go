package session

import "tiersort/internal/media"

// Notifier receives session events for the user. Calls come from the
// controller's goroutine; implementations hand off to their UI thread.
type Notifier interface {
	// OnItemShown is called after an item has been loaded for display.
	OnItemShown(item media.WorkItem, stats Stats)
	// OnItemLoadFailed reports an item skipped because it could not be loaded.
	OnItemLoadFailed(err error)
	// OnRelocationFailed reports an item left in place after a failed move.
	OnRelocationFailed(err error)
	// OnWarning reports a recoverable problem such as a stalled producer.
	OnWarning(err error)
	// OnSessionComplete is called once when every item has been handled.
	OnSessionComplete(stats Stats)
}

// NopNotifier ignores every event. Embed it to implement part of Notifier.
type NopNotifier struct{}

func (NopNotifier) OnItemShown(media.WorkItem, Stats) {}
func (NopNotifier) OnItemLoadFailed(error)            {}
func (NopNotifier) OnRelocationFailed(error)          {}
func (NopNotifier) OnWarning(error)                   {}
func (NopNotifier) OnSessionComplete(Stats)           {}
