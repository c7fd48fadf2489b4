// Package broadcast is a small in-memory pub/sub used to hand client
// events (connection changes, pushed notifications, sync results) to any
// number of UI consumers.
//
//	events := broadcast.New[Event](16)
//	sub := events.Subscribe(ctx)
//	for ev := range sub.C() {
//	    render(ev)
//	}
//
// Publish is non-blocking; a consumer that falls behind its buffer misses
// values instead of stalling the publisher.
package broadcast
