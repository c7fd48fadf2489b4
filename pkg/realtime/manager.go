package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/dmitrymomot/questnotify/pkg/backoff"
	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/statemachine"
	"github.com/dmitrymomot/questnotify/pkg/token"
)

// Manager owns a single authenticated socket connection and its reconnect
// policy. The socket, the reconnect timer and the attempt counter are
// written only by the Manager; other components observe them through
// Status and the lifecycle callbacks.
//
// Callbacks run on the manager's connection goroutine and must not call
// Close.
type Manager struct {
	baseURL string
	tokens  token.Provider
	opts    options
	backoff backoff.Strategy
	router  *Router
	logger  *slog.Logger
	phase   *statemachine.Machine[Phase, trigger]

	mu              sync.Mutex
	conn            Conn
	cancel          context.CancelFunc
	gen             uint64 // bumped whenever the current connection is superseded
	attempts        int
	shouldReconnect bool
	timer           *time.Timer
	closeCode       int
	closeReason     string
	err             error
	closed          bool

	wg sync.WaitGroup
}

// NewManager creates a manager for the socket at baseURL. No connection is
// made until Connect is called.
func NewManager(baseURL string, tokens token.Provider, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{
		baseURL: baseURL,
		tokens:  tokens,
		opts:    o,
		backoff: o.backoff,
		router:  o.router,
		logger:  o.logger.With(logger.Component("realtime")),
	}
	if m.backoff == nil {
		m.backoff = backoff.Fixed{Interval: o.reconnectInterval}
	}
	if m.router == nil {
		m.router = NewRouter(WithRouterLogger(o.logger))
	}
	if o.onNotification != nil {
		m.router.Subscribe(o.onNotification)
	}
	m.phase = newPhaseMachine(m.logger)
	return m
}

// Router returns the router inbound frames are dispatched to.
func (m *Manager) Router() *Router { return m.router }

// Connect starts connecting in the background. It is a no-op while a
// connection is open or being established. ctx only bounds the token
// lookup; the connection lives until Disconnect or Close.
//
// Connect clears a previous ErrMaxReconnectAttempts state and resets the
// attempt counter.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.phase.Is(PhaseOpen, PhaseConnecting) {
		return nil
	}

	tok, err := token.Require(ctx, m.tokens)
	if err != nil {
		m.logger.WarnContext(ctx, "connect without access token", logger.Error(err))
		return errors.Join(ErrUnauthenticated, err)
	}

	m.shouldReconnect = m.opts.autoReconnect
	m.attempts = 0
	m.err = nil
	return m.startLocked(tok, triggerConnect)
}

// Disconnect closes any open or pending connection, cancels a scheduled
// reconnect and resets the attempt counter. Safe to call repeatedly.
func (m *Manager) Disconnect() {
	m.teardown(ReasonDisconnect)
}

// Close tears the manager down for good: reconnects are suppressed before
// the socket is closed with ReasonUnmount, and later Connect calls fail
// with ErrClosed. Close waits for the connection goroutine to exit.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.teardown(ReasonUnmount)
	m.wg.Wait()
	return nil
}

// Status returns a snapshot of the connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Phase:       m.phase.Current(),
		CloseCode:   m.closeCode,
		CloseReason: m.closeReason,
		Attempts:    m.attempts,
		MaxAttempts: m.opts.maxReconnectAttempts,
		Err:         m.err,
	}
}

// Connected reports whether the socket is open.
func (m *Manager) Connected() bool {
	return m.phase.Is(PhaseOpen)
}

// Err returns the persistent error state, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Manager) teardown(reason string) {
	m.mu.Lock()
	m.shouldReconnect = false
	m.attempts = 0
	m.stopTimerLocked()
	m.gen++

	conn, cancel := m.conn, m.cancel
	m.conn, m.cancel = nil, nil
	wasOpen := conn != nil
	if wasOpen {
		m.closeCode, m.closeReason = int(websocket.StatusNormalClosure), reason
	}
	m.fireLocked(triggerDisconnect)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(websocket.StatusNormalClosure, reason); err != nil {
			m.logger.Debug("closing socket", logger.Error(err))
		}
	}
	if wasOpen && m.opts.onDisconnect != nil {
		m.opts.onDisconnect(int(websocket.StatusNormalClosure), reason)
	}
}

// startLocked must be called with m.mu held.
func (m *Manager) startLocked(tok string, via trigger) error {
	rawURL, err := SocketURL(m.baseURL, tok)
	if err != nil {
		return err
	}

	m.stopTimerLocked()
	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.fireLocked(via)

	connID := uuid.NewString()
	m.wg.Add(1)
	go m.run(ctx, gen, connID, rawURL)
	return nil
}

func (m *Manager) run(ctx context.Context, gen uint64, connID, rawURL string) {
	defer m.wg.Done()
	log := m.logger.With(logger.ConnectionID(connID))

	dialCtx, cancel := context.WithTimeout(ctx, m.opts.dialTimeout)
	conn, err := m.opts.dialer.Dial(dialCtx, rawURL)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn("socket dial failed", logger.Error(err))
		m.handleClose(gen, int(websocket.StatusAbnormalClosure), "", err)
		return
	}

	if !m.opened(gen, conn) {
		_ = conn.Close(websocket.StatusNormalClosure, ReasonDisconnect)
		return
	}
	log.Info("socket connected")
	if m.opts.onConnect != nil {
		m.opts.onConnect()
	}

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			code, reason, transportErr := classifyClose(err)
			log.Info("socket closed", logger.CloseCode(code), slog.String("reason", reason), logger.Error(transportErr))
			m.handleClose(gen, code, reason, transportErr)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		m.router.Dispatch(ctx, data)
	}
}

// opened records a successful handshake unless the attempt was superseded.
func (m *Manager) opened(gen uint64, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return false
	}
	m.conn = conn
	m.attempts = 0
	m.err = nil
	m.fireLocked(triggerOpened)
	return true
}

func (m *Manager) handleClose(gen uint64, code int, reason string, transportErr error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.closeCode, m.closeReason = code, reason
	m.fireLocked(triggerDropped)

	exhausted := false
	switch {
	case m.shouldReconnect && m.attempts < m.opts.maxReconnectAttempts:
		m.attempts++
		delay := m.backoff.Delay(m.attempts)
		m.timer = time.AfterFunc(delay, func() { m.retry(gen) })
		m.logger.Info("reconnect scheduled", logger.Attempt(m.attempts), slog.Duration("delay", delay))
	case m.shouldReconnect:
		exhausted = true
		m.shouldReconnect = false
		m.err = ErrMaxReconnectAttempts
		m.fireLocked(triggerHalt)
		m.logger.Error("giving up on socket", logger.Attempt(m.attempts), logger.Error(ErrMaxReconnectAttempts))
	}
	m.mu.Unlock()

	if transportErr != nil && m.opts.onError != nil {
		m.opts.onError(fmt.Errorf("%w: %w", ErrTransport, transportErr))
	}
	if m.opts.onDisconnect != nil {
		m.opts.onDisconnect(code, reason)
	}
	if exhausted && m.opts.onError != nil {
		m.opts.onError(ErrMaxReconnectAttempts)
	}
}

func (m *Manager) retry(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || !m.shouldReconnect || m.closed {
		m.mu.Unlock()
		return
	}
	m.timer = nil

	tok, err := token.Require(context.Background(), m.tokens)
	if err == nil {
		err = m.startLocked(tok, triggerRetry)
	}
	if err != nil {
		m.shouldReconnect = false
		m.err = errors.Join(ErrUnauthenticated, err)
		m.fireLocked(triggerHalt)
		m.mu.Unlock()

		m.logger.Warn("reconnect aborted", logger.Error(err))
		if m.opts.onError != nil {
			m.opts.onError(errors.Join(ErrUnauthenticated, err))
		}
		return
	}
	m.mu.Unlock()
}

// stopTimerLocked must be called with m.mu held.
func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// fireLocked must be called with m.mu held.
func (m *Manager) fireLocked(t trigger) {
	if _, err := m.phase.Fire(t); err != nil {
		m.logger.Debug("ignored connection event", logger.Event(string(t)), logger.Error(err))
	}
}

// classifyClose maps a read error to a close code and reason. Errors that
// are not close frames count as transport failures with code 1006.
func classifyClose(err error) (code int, reason string, transportErr error) {
	var ce websocket.CloseError
	if errors.As(err, &ce) {
		return int(ce.Code), ce.Reason, nil
	}
	return int(websocket.StatusAbnormalClosure), "", err
}
