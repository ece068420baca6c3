// Package eventbus publishes session notifications to Redis pub/sub so other
// processes can follow a game.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/pkg/kingdto"
)

const (
	defaultTimeout = 2 * time.Second
	ttlScore       = 24 * time.Hour
)

var ErrRedisURL = errors.New("invalid redis url")

// Dial connects to the server named by a redis:// or rediss:// URL and pings it.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisURL, err)
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrRedisURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrRedisURL)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: db %q", ErrRedisURL, p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}

func Channel(prefix, sessionID string) string {
	return strings.TrimSpace(prefix) + ":" + strings.TrimSpace(sessionID) + ":events"
}

func scoreKey(prefix, sessionID string) string {
	return strings.TrimSpace(prefix) + ":" + strings.TrimSpace(sessionID) + ":score"
}

// Publisher is a game.Observer that forwards every notification to Redis. Observer
// callbacks cannot fail, so publish errors are logged and dropped.
type Publisher struct {
	rdb     *redis.Client
	prefix  string
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

var _ game.Observer = (*Publisher)(nil)

type Option func(*Publisher)

func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(rdb *redis.Client, prefix string, opts ...Option) *Publisher {
	p := &Publisher{
		rdb:     rdb,
		prefix:  prefix,
		timeout: defaultTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) TurnChanged(ev game.TurnEvent) {
	p.publish(kingdto.TurnEvent(ev.SessionID, ev.WhiteToMove, p.now()))
}

// ScoreUpdated publishes the event and also stores the tally under
// "<prefix>:<session>:score" so late subscribers can read it.
func (p *Publisher) ScoreUpdated(ev game.ScoreEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	key := scoreKey(p.prefix, ev.SessionID)
	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "white", ev.White, "black", ev.Black)
		pipe.Expire(ctx, key, ttlScore)
		return nil
	})
	if err != nil {
		p.logger.Warn("eventbus_score_store_failed", zap.String("key", key), zap.Error(err))
	}
	p.publish(kingdto.ScoreEvent(ev.SessionID, ev.White, ev.Black, p.now()))
}

func (p *Publisher) Publish(ctx context.Context, ev kingdto.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(p.prefix, ev.SessionID), raw).Err()
}

func (p *Publisher) publish(ev kingdto.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Warn("eventbus_publish_failed",
			zap.String("type", ev.Type),
			zap.String("session_id", ev.SessionID),
			zap.Error(err),
		)
	}
}

// LastScore reads the tally stored by ScoreUpdated. ok is false when no game of the
// session has been won yet or the record expired.
func LastScore(ctx context.Context, rdb *redis.Client, prefix, sessionID string) (score kingdto.ScoreDTO, ok bool, err error) {
	vals, err := rdb.HGetAll(ctx, scoreKey(prefix, sessionID)).Result()
	if err != nil {
		return score, false, err
	}
	if len(vals) == 0 {
		return score, false, nil
	}
	w, err := strconv.ParseUint(vals["white"], 10, 64)
	if err != nil {
		return score, false, fmt.Errorf("score white: %w", err)
	}
	b, err := strconv.ParseUint(vals["black"], 10, 64)
	if err != nil {
		return score, false, fmt.Errorf("score black: %w", err)
	}
	return kingdto.ScoreDTO{White: uint(w), Black: uint(b)}, true, nil
}
