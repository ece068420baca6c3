package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/pkg/kingdto"
)

// Subscription delivers decoded events until Close is called or its context ends.
type Subscription struct {
	ps     *redis.PubSub
	events chan kingdto.Event
}

// Subscribe follows one session, or every session under prefix when sessionID is
// empty. It returns once the server has confirmed the subscription.
func Subscribe(ctx context.Context, rdb *redis.Client, prefix, sessionID string, logger *zap.Logger) (*Subscription, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var ps *redis.PubSub
	if sessionID == "" {
		ps = rdb.PSubscribe(ctx, Channel(prefix, "*"))
	} else {
		ps = rdb.Subscribe(ctx, Channel(prefix, sessionID))
	}
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	s := &Subscription{ps: ps, events: make(chan kingdto.Event, 16)}
	go func() {
		defer close(s.events)
		for msg := range ps.Channel() {
			var ev kingdto.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warn("eventbus_decode_failed", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return s, nil
}

func (s *Subscription) Events() <-chan kingdto.Event { return s.events }

func (s *Subscription) Close() error { return s.ps.Close() }
