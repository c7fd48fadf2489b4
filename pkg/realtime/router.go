package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/questnotify/pkg/logger"
)

// TypeNotification is the only envelope type the router forwards.
const TypeNotification = "notification"

// Envelope is the JSON shape of every inbound text frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NotificationEvent is the payload of a "notification" frame. It only
// signals that server state changed; consumers re-fetch instead of
// applying it.
type NotificationEvent struct {
	UserID    int64  `json:"user_id"`
	QuestID   *int64 `json:"quest_id,omitempty"`
	NotifType string `json:"notif_type"`
}

// Handler receives routed notification events.
type Handler func(ctx context.Context, ev NotificationEvent)

type subscription struct {
	id uuid.UUID
	fn Handler
}

// Router decodes inbound frames and fans notification events out to
// subscribers in registration order. Malformed frames are logged and
// dropped; unknown envelope types are ignored.
type Router struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger for the Router.
func WithRouterLogger(l *slog.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewRouter(opts ...RouterOption) *Router {
	r := &Router{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn and returns a function that removes it.
func (r *Router) Subscribe(fn Handler) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	id := uuid.New()

	r.mu.Lock()
	r.subs = append(r.subs, subscription{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, s := range r.subs {
				if s.id == id {
					r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Dispatch routes one raw frame and reports whether it was forwarded as a
// notification event.
func (r *Router) Dispatch(ctx context.Context, frame []byte) bool {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		r.logger.WarnContext(ctx, "dropping malformed frame",
			logger.Component("router"),
			slog.Int("size", len(frame)),
			logger.Error(err),
		)
		return false
	}

	if env.Type != TypeNotification {
		r.logger.DebugContext(ctx, "ignoring frame", logger.Component("router"), logger.FrameType(env.Type))
		return false
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		r.logger.WarnContext(ctx, "dropping notification frame without data", logger.Component("router"))
		return false
	}

	var ev NotificationEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		r.logger.WarnContext(ctx, "dropping malformed notification payload",
			logger.Component("router"),
			logger.Error(err),
		)
		return false
	}

	r.mu.RLock()
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, s := range subs {
		s.fn(ctx, ev)
	}
	return true
}
