// Package httpapi exposes one session over a small JSON API served by fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/kingcapture/internal/adapter/presenter"
	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/builder"
	"github.com/park285/kingcapture/internal/game"
	"github.com/park285/kingcapture/internal/opponent"
	"github.com/park285/kingcapture/internal/render"
	"github.com/park285/kingcapture/pkg/kingdto"
)

const (
	maxBodyBytes = 1 << 16
	apiCSP       = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	// maxOpponentPlies bounds the replies after one request: a king capture resets
	// the board, and an opponent playing White then opens the next game.
	maxOpponentPlies = 2
)

var ErrServerClosed = errors.New("server closed")

// Server serialises every request on one mutex since game.Session is not safe for
// concurrent use.
type Server struct {
	mu   sync.Mutex
	deps *builder.Deps
	last *game.Outcome

	logger *zap.Logger
	srv    *fasthttp.Server

	lifeMu    sync.Mutex
	listeners []net.Listener
	stopped   bool
}

// New lets the opponent open when it plays the side to move, so the session is
// settled before the first request.
func New(d *builder.Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: d, logger: logger}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler(),
		Name:               "kingcapture",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxBodyBytes,
	}
	s.mu.Lock()
	s.settle(context.Background())
	s.mu.Unlock()
	return s
}

// Serve accepts connections on ln until Shutdown is called. After Shutdown it
// closes ln and returns ErrServerClosed.
func (s *Server) Serve(ln net.Listener) error {
	s.lifeMu.Lock()
	if s.stopped {
		s.lifeMu.Unlock()
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listeners = append(s.listeners, ln)
	s.lifeMu.Unlock()

	return s.srv.Serve(ln)
}

func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ln)
}

// Shutdown stops accepting, waits for open connections and makes later Serve
// calls fail. It is safe to call before Serve has started.
func (s *Server) Shutdown(ctx context.Context) error {
	s.lifeMu.Lock()
	s.stopped = true
	listeners := s.listeners
	s.listeners = nil
	s.lifeMu.Unlock()

	err := s.srv.ShutdownWithContext(ctx)
	// Serve may not have handed ln to fasthttp yet; closing it again is harmless.
	for _, ln := range listeners {
		_ = ln.Close()
	}
	return err
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		ctx.Response.Header.Set("Content-Security-Policy", apiCSP)
		ctx.Response.Header.Set("X-Content-Type-Options", "nosniff")

		switch path := string(ctx.Path()); path {
		case "/healthz":
			ctx.SetContentType("text/plain; charset=utf-8")
			ctx.SetBodyString("ok")
		case "/v1/state":
			s.method(ctx, fasthttp.MethodGet, s.handleState)
		case "/v1/moves":
			s.method(ctx, fasthttp.MethodGet, s.handleMoves)
		case "/v1/turn":
			s.method(ctx, fasthttp.MethodPost, s.handleTurn)
		case "/v1/prepare":
			s.method(ctx, fasthttp.MethodPost, s.handlePrepare)
		case "/v1/board.png":
			s.method(ctx, fasthttp.MethodGet, s.handleBoardPNG)
		default:
			writeError(ctx, fasthttp.StatusNotFound, kingdto.CodeNotFound, "no route for "+path)
		}

		s.logger.Debug("http_request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) method(ctx *fasthttp.RequestCtx, want string, h fasthttp.RequestHandler) {
	if string(ctx.Method()) != want {
		ctx.Response.Header.Set("Allow", want)
		writeError(ctx, fasthttp.StatusMethodNotAllowed, kingdto.CodeBadRequest, "method not allowed")
		return
	}
	h(ctx)
}

func (s *Server) handleState(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	st := presenter.ToDTOState(s.deps.Session, s.last)
	s.mu.Unlock()
	writeJSON(ctx, fasthttp.StatusOK, st)
}

// handleMoves lists moves for ?team= (default: side to move), optionally only
// those starting on ?from=.
func (s *Server) handleMoves(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	var from board.Position
	if raw := strings.TrimSpace(string(args.Peek("from"))); raw != "" {
		p, err := board.ParsePosition(raw)
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, kingdto.CodeBadRequest, err.Error())
			return
		}
		from = p
	}

	s.mu.Lock()
	team := s.deps.Session.Turn()
	if raw := string(args.Peek("team")); raw != "" {
		t, ok := board.ParseTeam(raw)
		if !ok {
			s.mu.Unlock()
			writeError(ctx, fasthttp.StatusBadRequest, kingdto.CodeBadRequest, fmt.Sprintf("unknown team %q", raw))
			return
		}
		team = t
	}
	snap := s.deps.Session.Snapshot()
	moves := s.deps.Session.ValidMoves(team)
	s.mu.Unlock()

	if from.OnBoard() {
		kept := moves[:0]
		for _, m := range moves {
			if m.From == from {
				kept = append(kept, m)
			}
		}
		moves = kept
	}
	writeJSON(ctx, fasthttp.StatusOK, presenter.ToDTOMoves(snap, team, moves))
}

func (s *Server) handleTurn(ctx *fasthttp.RequestCtx) {
	var req kingdto.TurnRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, kingdto.CodeBadRequest, "invalid json")
		return
	}
	mv, err := moveFromRequest(req)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, kingdto.CodeBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.deps.Session
	if s.deps.Opponent != nil && sess.Turn() == s.deps.OpponentSide {
		writeError(ctx, fasthttp.StatusConflict, kingdto.CodeNotYourTurn, sess.Turn().String()+" is played by the server")
		return
	}
	out := sess.PlayTurn(mv)
	if !out.Accepted {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, kingdto.CodeIllegalMove, "illegal move "+mv.String())
		return
	}
	s.last = &out
	resp := turnResponse(out)
	if reply := s.settle(ctx); reply != nil {
		r := turnResponse(*reply)
		resp.Reply = &r
	}
	resp.State = presenter.ToDTOState(sess, s.last)
	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) handlePrepare(ctx *fasthttp.RequestCtx) {
	var req kingdto.PrepareRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, kingdto.CodeBadRequest, "invalid json")
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps.Session.PrepareGame(req.ResetScore)
	s.last = nil
	s.settle(ctx)
	writeJSON(ctx, fasthttp.StatusOK, presenter.ToDTOState(s.deps.Session, s.last))
}

func (s *Server) handleBoardPNG(ctx *fasthttp.RequestCtx) {
	s.mu.Lock()
	sess := s.deps.Session
	snap := sess.Snapshot()
	white, black := sess.Scores()
	opts := render.Options{
		Title: sess.ID(),
		Turn:  sess.Turn().String() + " to move",
		Score: &[2]uint{white, black},
	}
	if s.last != nil {
		mv := s.last.Move
		opts.Highlight = &mv
	}
	s.mu.Unlock()

	png, err := s.deps.Renderer.RenderPNG(ctx, snap, opts)
	if err != nil {
		if errors.Is(err, render.ErrNoBoard) {
			writeError(ctx, fasthttp.StatusConflict, kingdto.CodeUnavailable, "no game prepared")
			return
		}
		s.logger.Warn("render_failed", zap.Error(err))
		writeError(ctx, fasthttp.StatusInternalServerError, kingdto.CodeInternal, "render failed")
		return
	}
	ctx.SetContentType("image/png")
	ctx.Response.Header.Set("Cache-Control", "no-store")
	ctx.SetBody(png)
}

// settle lets the opponent play while it is its turn and returns the first reply.
// The caller holds s.mu.
func (s *Server) settle(ctx context.Context) *game.Outcome {
	var first *game.Outcome
	for i := 0; i < maxOpponentPlies; i++ {
		out, played, err := s.deps.OpponentMove(ctx)
		if err != nil {
			if !errors.Is(err, opponent.ErrNoMoves) {
				s.logger.Warn("opponent_failed", zap.Error(err))
			}
			break
		}
		if !played {
			break
		}
		if out.Accepted {
			s.last = &out
		}
		if first == nil {
			first = &out
		}
	}
	return first
}

func moveFromRequest(req kingdto.TurnRequest) (board.Move, error) {
	if uci := strings.TrimSpace(req.UCI); uci != "" {
		return board.ParseMove(uci)
	}
	if req.From == nil || req.To == nil {
		return board.Move{}, fmt.Errorf("move needs uci or from and to")
	}
	if *req.From < 0 || *req.From >= board.NumSquares || *req.To < 0 || *req.To >= board.NumSquares {
		return board.Move{}, fmt.Errorf("%w: index out of range", board.ErrInvalidSquare)
	}
	return board.MoveFromIndices(*req.From, *req.To), nil
}

func turnResponse(out game.Outcome) kingdto.TurnResponse {
	return kingdto.TurnResponse{
		Accepted:     out.Accepted,
		Move:         presenter.ToDTOOutcome(out),
		KingCaptured: out.KingCaptured,
	}
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error("encode failed", fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, code, msg string) {
	writeJSON(ctx, status, kingdto.DomainError{
		Code:      code,
		Message:   msg,
		Retryable: status >= fasthttp.StatusInternalServerError,
	})
}
