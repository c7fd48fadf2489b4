package questnotify

import (
	"time"

	"github.com/dmitrymomot/questnotify/pkg/notifications"
	"github.com/dmitrymomot/questnotify/pkg/realtime"
)

// EventKind identifies what a session Event reports.
type EventKind string

const (
	EventConnected    EventKind = "connected"
	EventDisconnected EventKind = "disconnected"
	EventNotification EventKind = "notification"
	EventError        EventKind = "error"
	EventSynced       EventKind = "synced"
)

// Event is published to session subscribers. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind EventKind
	At   time.Time

	// EventDisconnected
	Code   int
	Reason string

	// EventNotification
	Notification realtime.NotificationEvent

	// EventSynced
	Domain string
	State  notifications.State

	// EventError
	Err error
}

func newEvent(kind EventKind) Event {
	return Event{Kind: kind, At: time.Now()}
}
