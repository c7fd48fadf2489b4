// Package realtime keeps one authenticated WebSocket open to the platform's
// notification endpoint and turns inbound frames into typed events.
//
// A Manager walks the phases Idle → Connecting → Open → Closed. When the
// socket closes and auto-reconnect is on, a reconnect is scheduled after a
// fixed interval (or a backoff.Strategy) until MaxReconnectAttempts
// consecutive failures have been seen; the manager then goes back to Idle
// with ErrMaxReconnectAttempts as its error state until Connect is called
// again. Disconnect and Close cancel the pending timer before closing the
// socket, so no reconnect can fire into a torn-down client.
//
// The access token travels in the connection URL (?token=...), never in a
// header:
//
//	m := realtime.NewManager("wss://api.example.com/ws", token.Env("QUESTNOTIFY_TOKEN"),
//	    realtime.OnConnect(func() { go user.Refresh(ctx) }),
//	    realtime.OnNotification(func(ctx context.Context, ev realtime.NotificationEvent) {
//	        go user.Refresh(ctx)
//	    }),
//	)
//	if err := m.Connect(ctx); err != nil { ... }
//	defer m.Close()
//
// Router parses {"type": ..., "data": ...} envelopes. Only "notification"
// frames reach subscribers; malformed frames are logged and dropped.
package realtime
