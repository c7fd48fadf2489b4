package realtime_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/realtime"
	"github.com/dmitrymomot/questnotify/pkg/token"
)

const socketURL = "wss://api.example.test/ws"

type fakeConn struct {
	frames chan []byte
	drops  chan error
	closed chan struct{}
	once   sync.Once

	mu          sync.Mutex
	closeCode   websocket.StatusCode
	closeReason string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 8),
		drops:  make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case f := <-c.frames:
		return websocket.MessageText, f, nil
	case err := <-c.drops:
		return 0, nil, err
	case <-c.closed:
		return 0, nil, net.ErrClosed
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (c *fakeConn) Close(code websocket.StatusCode, reason string) error {
	c.once.Do(func() {
		c.mu.Lock()
		c.closeCode, c.closeReason = code, reason
		c.mu.Unlock()
		close(c.closed)
	})
	return nil
}

func (c *fakeConn) drop(code websocket.StatusCode, reason string) {
	c.drops <- websocket.CloseError{Code: code, Reason: reason}
}

func (c *fakeConn) closedWith() (websocket.StatusCode, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode, c.closeReason
}

type fakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns chan *fakeConn
	fail  atomic.Bool
	block chan struct{}
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(ctx context.Context, rawURL string) (realtime.Conn, error) {
	d.mu.Lock()
	d.urls = append(d.urls, rawURL)
	d.mu.Unlock()

	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.fail.Load() {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns <- c
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.urls)
}

func (d *fakeDialer) next(t *testing.T) *fakeConn {
	t.Helper()
	select {
	case c := <-d.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

type recorder struct {
	connects    atomic.Int32
	disconnects chan [2]any
	errs        chan error
}

func newRecorder() *recorder {
	return &recorder{
		disconnects: make(chan [2]any, 32),
		errs:        make(chan error, 32),
	}
}

func (r *recorder) options() []realtime.Option {
	return []realtime.Option{
		realtime.OnConnect(func() { r.connects.Add(1) }),
		realtime.OnDisconnect(func(code int, reason string) { r.disconnects <- [2]any{code, reason} }),
		realtime.OnError(func(err error) { r.errs <- err }),
	}
}

func (r *recorder) nextDisconnect(t *testing.T) (int, string) {
	t.Helper()
	select {
	case d := <-r.disconnects:
		return d[0].(int), d[1].(string)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect")
		return 0, ""
	}
}

func newManager(t *testing.T, d realtime.Dialer, tokens token.Provider, opts ...realtime.Option) *realtime.Manager {
	t.Helper()
	base := []realtime.Option{
		realtime.WithDialer(d),
		realtime.WithLogger(logger.Discard()),
	}
	m := realtime.NewManager(socketURL, tokens, append(base, opts...)...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func waitPhase(t *testing.T, m *realtime.Manager, p realtime.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Status().Phase == p }, 2*time.Second, 2*time.Millisecond,
		"expected phase %s, got %s", p, m.Status().Phase)
}

func TestSocketURL(t *testing.T) {
	t.Parallel()

	got, err := realtime.SocketURL("wss://api.example.test/ws", "a b/c+d")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.test/ws?token=a+b%2Fc%2Bd", got)

	got, err = realtime.SocketURL("https://api.example.test/ws?v=2", "t")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.example.test/ws?token=t&v=2", got)

	got, err = realtime.SocketURL("http://localhost:8080/ws", "t")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "ws://localhost:8080/ws"))

	_, err = realtime.SocketURL("ftp://example.test", "t")
	assert.Error(t, err)
}

func TestManager_ConnectWithoutToken(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	m := newManager(t, d, token.Static(""))

	err := m.Connect(context.Background())
	require.ErrorIs(t, err, realtime.ErrUnauthenticated)
	assert.ErrorIs(t, err, token.ErrNoToken)

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, d.dials())
	assert.Equal(t, realtime.PhaseIdle, m.Status().Phase)
}

func TestManager_ConnectIsIdempotentWhenOpen(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"), rec.options()...)

	require.NoError(t, m.Connect(context.Background()))
	d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	require.NoError(t, m.Connect(context.Background()))
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, d.dials())
	assert.Equal(t, int32(1), rec.connects.Load())
	assert.True(t, m.Connected())
	assert.Equal(t, socketURL+"?token=tok", d.urls[0])
}

func TestManager_ConnectIsIdempotentWhileConnecting(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	d.block = make(chan struct{})
	m := newManager(t, d, token.Static("tok"))

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, realtime.PhaseConnecting, m.Status().Phase)

	close(d.block)
	d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)
	assert.Equal(t, 1, d.dials())
}

func TestManager_AbnormalCloseSchedulesReconnect(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(),
			realtime.WithReconnectInterval(150*time.Millisecond),
			realtime.WithMaxReconnectAttempts(5),
		)...)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)
	require.Zero(t, m.Status().Attempts)

	dropped := time.Now()
	conn.drop(websocket.StatusAbnormalClosure, "")
	code, _ := rec.nextDisconnect(t)
	assert.Equal(t, 1006, code)

	st := m.Status()
	assert.Equal(t, realtime.PhaseClosed, st.Phase)
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, 1006, st.CloseCode)
	assert.Equal(t, 1, d.dials(), "reconnect must wait for the interval")

	d.next(t)
	assert.GreaterOrEqual(t, time.Since(dropped), 150*time.Millisecond)
	waitPhase(t, m, realtime.PhaseOpen)
	assert.Equal(t, 2, d.dials())
	assert.Zero(t, m.Status().Attempts, "successful open resets the counter")
	assert.Equal(t, int32(2), rec.connects.Load())
}

func TestManager_StopsAfterMaxAttempts(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	d.fail.Store(true)
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(),
			realtime.WithReconnectInterval(5*time.Millisecond),
			realtime.WithMaxReconnectAttempts(3),
		)...)

	require.NoError(t, m.Connect(context.Background()))

	require.Eventually(t, func() bool {
		return errors.Is(m.Err(), realtime.ErrMaxReconnectAttempts)
	}, 2*time.Second, 2*time.Millisecond)

	st := m.Status()
	assert.Equal(t, realtime.PhaseIdle, st.Phase)
	assert.Equal(t, 3, st.Attempts)
	assert.EqualError(t, st.Err, "maximum reconnection attempts reached")
	assert.Equal(t, 4, d.dials(), "initial dial plus three retries")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 4, d.dials(), "no reconnect after exhaustion")

	require.Eventually(t, func() bool { return len(rec.errs) == 5 }, time.Second, time.Millisecond)
	var transport, exhausted int
	for range 5 {
		err := <-rec.errs
		switch {
		case errors.Is(err, realtime.ErrMaxReconnectAttempts):
			exhausted++
		case errors.Is(err, realtime.ErrTransport):
			transport++
		}
	}
	assert.Equal(t, 4, transport)
	assert.Equal(t, 1, exhausted)

	// A manual connect clears the error state and starts over.
	d.fail.Store(false)
	require.NoError(t, m.Connect(context.Background()))
	d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)
	assert.NoError(t, m.Err())
	assert.Zero(t, m.Status().Attempts)
}

func TestManager_DisconnectCancelsPendingReconnect(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(), realtime.WithReconnectInterval(60*time.Millisecond))...)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	conn.drop(websocket.StatusAbnormalClosure, "")
	rec.nextDisconnect(t)
	require.Equal(t, 1, m.Status().Attempts)

	m.Disconnect()
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, 1, d.dials())
	st := m.Status()
	assert.Equal(t, realtime.PhaseIdle, st.Phase)
	assert.Zero(t, st.Attempts)
}

func TestManager_DisconnectClosesOpenSocket(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(), realtime.WithReconnectInterval(10*time.Millisecond))...)

	m.Disconnect() // idle: no-op

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	m.Disconnect()
	m.Disconnect()

	code, reason := conn.closedWith()
	assert.Equal(t, websocket.StatusNormalClosure, code)
	assert.Equal(t, realtime.ReasonDisconnect, reason)

	c, r := rec.nextDisconnect(t)
	assert.Equal(t, 1000, c)
	assert.Equal(t, realtime.ReasonDisconnect, r)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, d.dials())
	assert.False(t, m.Connected())
}

func TestManager_DisconnectWhileDialing(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	d.block = make(chan struct{})
	m := newManager(t, d, token.Static("tok"), realtime.WithReconnectInterval(5*time.Millisecond))

	require.NoError(t, m.Connect(context.Background()))
	require.Eventually(t, func() bool { return d.dials() == 1 }, time.Second, time.Millisecond)

	m.Disconnect()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, realtime.PhaseIdle, m.Status().Phase)
	assert.Equal(t, 1, d.dials())
}

func TestManager_CloseUsesUnmountReason(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	m := newManager(t, d, token.Static("tok"), realtime.WithReconnectInterval(5*time.Millisecond))

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	require.NoError(t, m.Close())

	code, reason := conn.closedWith()
	assert.Equal(t, websocket.StatusNormalClosure, code)
	assert.Equal(t, realtime.ReasonUnmount, reason)

	assert.ErrorIs(t, m.Connect(context.Background()), realtime.ErrClosed)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, d.dials())
	require.NoError(t, m.Close())
}

func TestManager_AutoReconnectDisabled(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(),
			realtime.WithAutoReconnect(false),
			realtime.WithReconnectInterval(5*time.Millisecond),
		)...)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	conn.drop(websocket.StatusGoingAway, "server restart")
	code, reason := rec.nextDisconnect(t)
	assert.Equal(t, 1001, code)
	assert.Equal(t, "server restart", reason)

	time.Sleep(30 * time.Millisecond)
	st := m.Status()
	assert.Equal(t, realtime.PhaseClosed, st.Phase)
	assert.Equal(t, "server restart", st.CloseReason)
	assert.Zero(t, st.Attempts)
	assert.NoError(t, st.Err)
	assert.Equal(t, 1, d.dials())
}

func TestManager_TransportErrorReportedBeforeClose(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	m := newManager(t, d, token.Static("tok"),
		append(rec.options(), realtime.WithAutoReconnect(false))...)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	conn.drops <- errors.New("read tcp: connection reset by peer")
	code, _ := rec.nextDisconnect(t)
	assert.Equal(t, 1006, code)

	require.Len(t, rec.errs, 1)
	err := <-rec.errs
	assert.ErrorIs(t, err, realtime.ErrTransport)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestManager_ReconnectAbortsWhenTokenDisappears(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	rec := newRecorder()
	var current atomic.Value
	current.Store("tok")
	tokens := token.Func(func(context.Context) (string, error) {
		return current.Load().(string), nil
	})
	m := newManager(t, d, tokens, append(rec.options(), realtime.WithReconnectInterval(10*time.Millisecond))...)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	current.Store("")
	conn.drop(websocket.StatusAbnormalClosure, "")

	require.Eventually(t, func() bool {
		return errors.Is(m.Err(), realtime.ErrUnauthenticated)
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, realtime.PhaseIdle, m.Status().Phase)
	assert.Equal(t, 1, d.dials())
}

func TestManager_RoutesFrames(t *testing.T) {
	t.Parallel()
	d := newFakeDialer()
	got := make(chan realtime.NotificationEvent, 4)
	m := newManager(t, d, token.Static("tok"),
		realtime.OnNotification(func(_ context.Context, ev realtime.NotificationEvent) { got <- ev }),
	)

	require.NoError(t, m.Connect(context.Background()))
	conn := d.next(t)
	waitPhase(t, m, realtime.PhaseOpen)

	conn.frames <- []byte(`{not json`)
	conn.frames <- []byte(`{"type":"badge","data":{}}`)
	conn.frames <- []byte(`{"type":"notification","data":{"user_id":3,"notif_type":"quest_rejected"}}`)

	select {
	case ev := <-got:
		assert.Equal(t, "quest_rejected", ev.NotifType)
		assert.Equal(t, int64(3), ev.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not routed")
	}
	assert.Empty(t, got)
	assert.True(t, m.Connected(), "malformed frames must not close the connection")
}

func TestManager_WebSocketIntegration(t *testing.T) {
	t.Parallel()

	tokens := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens <- r.URL.Query().Get("token")
		assert.Empty(t, r.Header.Get("Authorization"))

		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := r.Context()
		_ = c.Write(ctx, websocket.MessageText, []byte(`{"type":"notification","data":{"user_id":1,"quest_id":4,"notif_type":"new_quest"}}`))
		time.Sleep(50 * time.Millisecond)
		_ = c.Close(websocket.StatusGoingAway, "bye")
	}))
	defer srv.Close()

	events := make(chan realtime.NotificationEvent, 1)
	rec := newRecorder()
	m := realtime.NewManager("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", token.Static("s3cret/tok"),
		append(rec.options(),
			realtime.WithLogger(logger.Discard()),
			realtime.WithAutoReconnect(false),
			realtime.OnNotification(func(_ context.Context, ev realtime.NotificationEvent) { events <- ev }),
		)...)
	defer m.Close()

	require.NoError(t, m.Connect(context.Background()))

	select {
	case tok := <-tokens:
		assert.Equal(t, "s3cret/tok", tok)
	case <-time.After(2 * time.Second):
		t.Fatal("server not reached")
	}

	select {
	case ev := <-events:
		assert.Equal(t, "new_quest", ev.NotifType)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not received")
	}

	code, reason := rec.nextDisconnect(t)
	assert.Equal(t, 1001, code)
	assert.Equal(t, "bye", reason)
	assert.Equal(t, int32(1), rec.connects.Load())
}
