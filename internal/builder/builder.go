// Package builder assembles a session and its optional collaborators from config.
package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/config"
	"github.com/park285/kingcapture/internal/eventbus"
	"github.com/park285/kingcapture/internal/feed"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/msgcat"
	"github.com/park285/kingcapture/internal/opponent"
	"github.com/park285/kingcapture/internal/render"
)

type Deps struct {
	Session  *game.Session
	Renderer *render.Renderer
	Messages *msgcat.Catalog

	// Opponent is nil when OpponentSide is NoTeam.
	Opponent     opponent.Opponent
	OpponentSide board.Team

	Redis     *redis.Client
	Publisher *eventbus.Publisher
	Feed      *feed.Feed

	ws     *feed.WebSocket
	logger *zap.Logger
}

type Option func(*settings)

type settings struct {
	sessionID string
}

func WithSessionID(id string) Option {
	return func(s *settings) { s.sessionID = strings.TrimSpace(id) }
}

// New wires the session with an opponent, a Redis publisher when redis_url is set
// and an event feed when a websocket or webhook URL is set. The returned Deps owns
// those connections; call Close when done.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, opts ...Option) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	d := &Deps{
		Session:      game.NewSession(game.WithID(st.sessionID), game.WithLogger(logger)),
		Renderer:     render.New(),
		Messages:     msgs,
		OpponentSide: sideFor(cfg.OpponentSide),
		logger:       logger,
	}
	if d.OpponentSide != board.NoTeam {
		d.Opponent, err = opponent.New(cfg.OpponentStrategy, cfg.OpponentSeed)
		if err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		d.Redis, err = eventbus.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		d.Publisher = eventbus.NewPublisher(d.Redis, cfg.ChannelPrefix, eventbus.WithLogger(logger))
		d.Session.Subscribe(d.Publisher)
	}

	if err := d.buildFeed(cfg); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}

	d.Session.PrepareGame(true)
	logger.Info("session_ready",
		zap.String("session_id", d.Session.ID()),
		zap.String("opponent_side", cfg.OpponentSide),
		zap.Bool("redis", d.Redis != nil),
		zap.Bool("feed", d.Feed != nil),
	)
	return d, nil
}

func (d *Deps) buildFeed(cfg *config.AppConfig) error {
	var hook *feed.Webhook
	if cfg.EventsWSURL != "" {
		token := strings.TrimSpace(cfg.EventsWSToken)
		d.ws = feed.NewWebSocket(cfg.EventsWSURL, 3,
			feed.WithWSLogger(d.logger),
			feed.WithHeaderProvider(func() map[string]string {
				if token == "" {
					return nil
				}
				return map[string]string{"Authorization": "Bearer " + token}
			}),
		)
	}
	if cfg.EventsWebhookURL != "" {
		hook = feed.NewWebhook(cfg.EventsWebhookURL, feed.WithWebhookTimeout(5*time.Second))
	}
	if d.ws == nil && hook == nil {
		return nil
	}
	sink, err := feed.NewSink(cfg.FeedMode, d.ws, hook, d.logger)
	if err != nil {
		return fmt.Errorf("init feed: %w", err)
	}
	d.Feed = feed.New(sink, feed.WithLogger(d.logger))
	d.Feed.Start()
	d.Session.Subscribe(d.Feed)
	return nil
}

// Close flushes the feed and releases the connections New opened.
func (d *Deps) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.Feed != nil {
		if err := d.Feed.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close feed: %w", err))
		}
	}
	if d.ws != nil {
		if err := d.ws.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close websocket: %w", err))
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

func sideFor(s string) board.Team {
	if t, ok := board.ParseTeam(s); ok {
		return t
	}
	return board.NoTeam
}

// OpponentMove lets the configured opponent play when it is its turn. played is
// false when no opponent is configured or the other side is to move.
func (d *Deps) OpponentMove(ctx context.Context) (out game.Outcome, played bool, err error) {
	if d.Opponent == nil || d.Session.Turn() != d.OpponentSide {
		return game.Outcome{}, false, nil
	}
	mv, err := d.Opponent.ComputeMove(ctx, d.Session.Snapshot(), d.OpponentSide)
	if err != nil {
		return game.Outcome{}, false, fmt.Errorf("opponent move: %w", err)
	}
	return d.Session.PlayTurn(mv), true, nil
}
