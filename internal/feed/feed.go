// Package feed pushes session notifications to a presentation endpoint over a
// websocket, an HTTP webhook, or the websocket with webhook fallback.
package feed

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/pkg/kingdto"
)

var ErrNoSink = errors.New("no feed transport configured")

// HeaderProvider supplies extra headers for the websocket handshake and webhook posts.
type HeaderProvider func() map[string]string

// Sink delivers one event. Implementations need not be safe for concurrent use;
// Feed calls Send from a single goroutine.
type Sink interface {
	Send(ctx context.Context, ev kingdto.Event) error
}

type mode string

const (
	modeWS   mode = "ws"
	modeHTTP mode = "http"
	modeAuto mode = "auto"
)

// NewSink picks the transport for mode. "auto" uses the websocket while it is
// connected and the webhook otherwise, or when the websocket write fails.
func NewSink(m string, ws *WebSocket, hook *Webhook, logger *zap.Logger) (Sink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch mode(strings.ToLower(strings.TrimSpace(m))) {
	case modeWS:
		if ws == nil {
			return nil, ErrNoSink
		}
		return ws, nil
	case modeHTTP:
		if hook == nil {
			return nil, ErrNoSink
		}
		return hook, nil
	default:
		switch {
		case ws != nil && hook != nil:
			return &autoSink{ws: ws, http: hook, logger: logger}, nil
		case ws != nil:
			return ws, nil
		case hook != nil:
			return hook, nil
		}
		return nil, ErrNoSink
	}
}

type autoSink struct {
	ws     *WebSocket
	http   *Webhook
	logger *zap.Logger
}

func (a *autoSink) Send(ctx context.Context, ev kingdto.Event) error {
	if a.ws.State() == StateConnected {
		if err := a.ws.Send(ctx, ev); err == nil {
			return nil
		}
		a.logger.Warn("feed_fallback", zap.String("type", ev.Type), zap.String("session_id", ev.SessionID))
	}
	return a.http.Send(ctx, ev)
}

// Feed is a game.Observer that queues events and delivers them on a background
// goroutine so PlayTurn never waits on the network. Events are dropped when the
// queue is full.
type Feed struct {
	sink    Sink
	queue   chan kingdto.Event
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	dropped atomic.Int64

	stopCh    chan struct{}
	stopOnce  sync.Once
	startOnce sync.Once
	wg        sync.WaitGroup
}

var _ game.Observer = (*Feed)(nil)

type Option func(*Feed)

func WithLogger(l *zap.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

func WithQueueSize(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.queue = make(chan kingdto.Event, n)
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(f *Feed) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func New(sink Sink, opts ...Option) *Feed {
	f := &Feed{
		sink:    sink,
		queue:   make(chan kingdto.Event, 64),
		timeout: 5 * time.Second,
		now:     time.Now,
		logger:  zap.NewNop(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Start launches the delivery goroutine. Calling it more than once is a no-op.
func (f *Feed) Start() {
	f.startOnce.Do(func() {
		f.wg.Add(1)
		go f.run()
	})
}

func (f *Feed) TurnChanged(ev game.TurnEvent) {
	f.enqueue(kingdto.TurnEvent(ev.SessionID, ev.WhiteToMove, f.now()))
}

func (f *Feed) ScoreUpdated(ev game.ScoreEvent) {
	f.enqueue(kingdto.ScoreEvent(ev.SessionID, ev.White, ev.Black, f.now()))
}

// Dropped counts events lost to a full queue or a closed feed.
func (f *Feed) Dropped() int64 { return f.dropped.Load() }

func (f *Feed) enqueue(ev kingdto.Event) {
	if f.isStopping() {
		f.dropped.Add(1)
		return
	}
	select {
	case f.queue <- ev:
	default:
		f.dropped.Add(1)
		f.logger.Warn("feed_queue_full", zap.String("type", ev.Type), zap.String("session_id", ev.SessionID))
	}
}

func (f *Feed) run() {
	defer f.wg.Done()
	for {
		select {
		case ev := <-f.queue:
			f.deliver(ev)
		case <-f.stopCh:
			for {
				select {
				case ev := <-f.queue:
					f.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (f *Feed) deliver(ev kingdto.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.sink.Send(ctx, ev); err != nil {
		f.logger.Warn("feed_send_failed",
			zap.String("type", ev.Type),
			zap.String("session_id", ev.SessionID),
			zap.Error(err),
		)
	}
}

// Close stops accepting events, flushes what is queued and waits for the
// delivery goroutine until ctx ends.
func (f *Feed) Close(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.stopCh) })
	f.Start()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (f *Feed) isStopping() bool {
	select {
	case <-f.stopCh:
		return true
	default:
		return false
	}
}
