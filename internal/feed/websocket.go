package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/kingcapture/pkg/kingdto"
)

var ErrClosed = errors.New("feed transport closed")

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type StateCallback func(state State)

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// WebSocket writes events as JSON text frames to one endpoint. It dials lazily on
// the first Send when Connect was not called, and redials with backoff after a
// failed write. Incoming data frames are not expected; the peer closing the
// connection marks it disconnected.
type WebSocket struct {
	wsURL   string
	headers HeaderProvider

	maxReconnectAttempts int
	dialTimeout          time.Duration
	writeTimeout         time.Duration
	logger               *zap.Logger

	conn  *websocket.Conn
	connM sync.Mutex

	state  State
	stateM sync.RWMutex

	stateCbs []stateCallbackEntry
	nextCbID int
	cbM      sync.RWMutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type WSOption func(*WebSocket)

func WithHeaderProvider(h HeaderProvider) WSOption {
	return func(ws *WebSocket) { ws.headers = h }
}

func WithWSLogger(l *zap.Logger) WSOption {
	return func(ws *WebSocket) {
		if l != nil {
			ws.logger = l
		}
	}
}

func WithWriteTimeout(d time.Duration) WSOption {
	return func(ws *WebSocket) {
		if d > 0 {
			ws.writeTimeout = d
		}
	}
}

func NewWebSocket(wsURL string, maxReconnectAttempts int, opts ...WSOption) *WebSocket {
	ws := &WebSocket{
		wsURL:                wsURL,
		maxReconnectAttempts: maxReconnectAttempts,
		dialTimeout:          10 * time.Second,
		writeTimeout:         5 * time.Second,
		logger:               zap.NewNop(),
		state:                StateDisconnected,
		stopCh:               make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Connect dials now instead of on the first Send.
func (ws *WebSocket) Connect(ctx context.Context) error {
	ws.connM.Lock()
	defer ws.connM.Unlock()
	if ws.isStopping() {
		return ErrClosed
	}
	if ws.conn != nil {
		return nil
	}
	return ws.dialLocked(ctx)
}

func (ws *WebSocket) dialLocked(ctx context.Context) error {
	ws.setState(StateConnecting)
	dialCtx, cancel := context.WithTimeout(ctx, ws.dialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, ws.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      buildHeaders(ws.headers),
	})
	if err != nil {
		ws.setState(StateFailed)
		return fmt.Errorf("ws dial: %w", err)
	}
	ws.conn = conn
	ws.setState(StateConnected)

	readCtx := conn.CloseRead(context.Background())
	ws.wg.Add(1)
	go ws.watch(conn, readCtx)
	return nil
}

// watch clears conn once the read side ends, which happens when the peer closes.
func (ws *WebSocket) watch(conn *websocket.Conn, readCtx context.Context) {
	defer ws.wg.Done()
	<-readCtx.Done()
	ws.connM.Lock()
	defer ws.connM.Unlock()
	if ws.conn != conn {
		return
	}
	ws.conn = nil
	_ = conn.Close(websocket.StatusGoingAway, "peer closed")
	ws.setState(StateDisconnected)
	ws.logger.Info("feed_ws_disconnected", zap.String("url", ws.wsURL))
}

// Send writes ev, dialing first when needed. A failed write drops the connection
// and retries up to maxReconnectAttempts times.
func (ws *WebSocket) Send(ctx context.Context, ev kingdto.Event) error {
	ws.connM.Lock()
	defer ws.connM.Unlock()
	if ws.isStopping() {
		return ErrClosed
	}

	attempts := ws.maxReconnectAttempts + 1
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, backoffDuration(attempt-1)); err != nil {
				break
			}
		}
		if ws.conn == nil {
			if err := ws.dialLocked(ctx); err != nil {
				lastErr = err
				continue
			}
		}
		wctx, cancel := context.WithTimeout(ctx, ws.writeTimeout)
		err := wsjson.Write(wctx, ws.conn, ev)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = fmt.Errorf("ws write: %w", err)
		ws.dropLocked(websocket.StatusGoingAway, "write failed")
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return lastErr
}

func (ws *WebSocket) dropLocked(code websocket.StatusCode, reason string) {
	if ws.conn == nil {
		return
	}
	conn := ws.conn
	ws.conn = nil
	_ = conn.Close(code, reason)
	ws.setState(StateDisconnected)
}

func (ws *WebSocket) State() State {
	ws.stateM.RLock()
	defer ws.stateM.RUnlock()
	return ws.state
}

// OnStateChange registers cb and returns an id for RemoveStateCallback. Callbacks
// run synchronously and must not call Send or Connect.
func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.stateCbs = append(ws.stateCbs, stateCallbackEntry{id: ws.nextCbID, callback: cb})
	return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	for i, cb := range ws.stateCbs {
		if cb.id == id {
			ws.stateCbs = append(ws.stateCbs[:i], ws.stateCbs[i+1:]...)
			break
		}
	}
}

func (ws *WebSocket) setState(state State) {
	ws.stateM.Lock()
	ws.state = state
	ws.stateM.Unlock()

	ws.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(ws.stateCbs))
	copy(callbacks, ws.stateCbs)
	ws.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (ws *WebSocket) Close(ctx context.Context) error {
	ws.stopOnce.Do(func() { close(ws.stopCh) })
	ws.connM.Lock()
	ws.dropLocked(websocket.StatusNormalClosure, "close")
	ws.connM.Unlock()

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (ws *WebSocket) isStopping() bool {
	select {
	case <-ws.stopCh:
		return true
	default:
		return false
	}
}
