package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/kingcapture/internal/board"
	"github.com/park285/kingcapture/internal/builder"
	"github.com/park285/kingcapture/internal/config"
	"github.com/park285/kingcapture/pkg/kingdto"
)

type testServer struct {
	srv    *Server
	deps   *builder.Deps
	client *fasthttp.Client
	served chan error
}

func newTestServer(t *testing.T, side string) *testServer {
	t.Helper()
	cfg := &config.AppConfig{
		ListenAddr:       ":0",
		OpponentSide:     side,
		OpponentStrategy: "greedy",
		OpponentSeed:     3,
		MaxPlies:         100,
		FeedMode:         "auto",
	}
	d, err := builder.New(context.Background(), cfg, nil, builder.WithSessionID("api"))
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}
	ln := fasthttputil.NewInmemoryListener()
	srv := New(d, nil)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = ln.Close()
		_ = d.Close(ctx)
	})
	return &testServer{
		srv:    srv,
		deps:   d,
		served: served,
		client: &fasthttp.Client{
			Dial: func(string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (int, []byte, string) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://kingcapture.test" + path)
	req.Header.SetMethod(method)
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req.Header.SetContentType("application/json")
		req.SetBody(raw)
	}
	if err := ts.client.DoTimeout(req, resp, 3*time.Second); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), string(resp.Header.ContentType())
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func intp(v int) *int { return &v }

func TestStateAndHealth(t *testing.T) {
	ts := newTestServer(t, "none")

	status, body, _ := ts.do(t, fasthttp.MethodGet, "/healthz", nil)
	if status != fasthttp.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", status, body)
	}

	status, body, ctype := ts.do(t, fasthttp.MethodGet, "/v1/state", nil)
	if status != fasthttp.StatusOK || ctype != "application/json; charset=utf-8" {
		t.Fatalf("state = %d %q", status, ctype)
	}
	st := decode[kingdto.StateResponse](t, body)
	if st.SessionID != "api" || !st.WhiteToMove || len(st.Squares) != 32 {
		t.Fatalf("state = %+v", st)
	}
}

func TestMoves(t *testing.T) {
	ts := newTestServer(t, "none")

	status, body, _ := ts.do(t, fasthttp.MethodGet, "/v1/moves", nil)
	if status != fasthttp.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if got := decode[kingdto.MovesResponse](t, body); got.Team != "white" || len(got.Moves) != 20 {
		t.Fatalf("moves = %s %d", got.Team, len(got.Moves))
	}

	_, body, _ = ts.do(t, fasthttp.MethodGet, "/v1/moves?team=black&from=g8", nil)
	got := decode[kingdto.MovesResponse](t, body)
	if got.Team != "black" || len(got.Moves) != 2 {
		t.Fatalf("knight moves = %+v", got)
	}

	status, body, _ = ts.do(t, fasthttp.MethodGet, "/v1/moves?team=red", nil)
	if status != fasthttp.StatusBadRequest || decode[kingdto.DomainError](t, body).Code != kingdto.CodeBadRequest {
		t.Fatalf("bad team = %d %s", status, body)
	}
}

func TestTurnWithOpponentReply(t *testing.T) {
	ts := newTestServer(t, "black")

	status, body, _ := ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{From: intp(12), To: intp(28)})
	if status != fasthttp.StatusOK {
		t.Fatalf("turn = %d %s", status, body)
	}
	resp := decode[kingdto.TurnResponse](t, body)
	if !resp.Accepted || resp.Move.UCI != "e2e4" {
		t.Fatalf("turn = %+v", resp)
	}
	if resp.Reply == nil || !resp.Reply.Accepted {
		t.Fatalf("expected an opponent reply, got %+v", resp.Reply)
	}
	if !resp.State.WhiteToMove || resp.State.LastMove == nil || resp.State.LastMove.UCI != resp.Reply.Move.UCI {
		t.Fatalf("state after reply = %+v", resp.State)
	}
}

func TestTurnErrors(t *testing.T) {
	ts := newTestServer(t, "white")

	// White is the server's side and has already opened.
	status, body, _ := ts.do(t, fasthttp.MethodGet, "/v1/state", nil)
	if st := decode[kingdto.StateResponse](t, body); status != fasthttp.StatusOK || st.WhiteToMove {
		t.Fatalf("server should have opened as white: %+v", st)
	}

	status, body, _ = ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{UCI: "e7e4"})
	if status != fasthttp.StatusUnprocessableEntity || decode[kingdto.DomainError](t, body).Code != kingdto.CodeIllegalMove {
		t.Fatalf("illegal = %d %s", status, body)
	}
	status, _, _ = ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{From: intp(12)})
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("missing to = %d", status)
	}
	status, _, _ = ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{From: intp(-1), To: intp(64)})
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("out of range = %d", status)
	}
	status, _, _ = ts.do(t, fasthttp.MethodGet, "/v1/turn", nil)
	if status != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("GET turn = %d", status)
	}
	status, body, _ = ts.do(t, fasthttp.MethodGet, "/v1/nope", nil)
	if status != fasthttp.StatusNotFound || decode[kingdto.DomainError](t, body).Code != kingdto.CodeNotFound {
		t.Fatalf("unknown route = %d %s", status, body)
	}
}

func TestNotYourTurn(t *testing.T) {
	ts := newTestServer(t, "black")
	// Hand the move to black without going through the API so the server has not replied.
	b, _ := board.ParsePlacement("4k3/8/8/8/8/8/8/4K3")
	ts.srv.mu.Lock()
	err := ts.deps.Session.Setup(b, board.Black)
	ts.srv.mu.Unlock()
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	status, body, _ := ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{UCI: "e8e7"})
	if status != fasthttp.StatusConflict || decode[kingdto.DomainError](t, body).Code != kingdto.CodeNotYourTurn {
		t.Fatalf("not your turn = %d %s", status, body)
	}
}

func TestPrepareAndBoardPNG(t *testing.T) {
	ts := newTestServer(t, "none")

	if status, _, _ := ts.do(t, fasthttp.MethodPost, "/v1/turn", kingdto.TurnRequest{UCI: "e2e4"}); status != fasthttp.StatusOK {
		t.Fatalf("turn = %d", status)
	}
	status, body, ctype := ts.do(t, fasthttp.MethodGet, "/v1/board.png", nil)
	if status != fasthttp.StatusOK || ctype != "image/png" || !bytes.HasPrefix(body, []byte("\x89PNG")) {
		t.Fatalf("png = %d %q %d bytes", status, ctype, len(body))
	}

	status, body, _ = ts.do(t, fasthttp.MethodPost, "/v1/prepare", kingdto.PrepareRequest{ResetScore: true})
	if status != fasthttp.StatusOK {
		t.Fatalf("prepare = %d", status)
	}
	st := decode[kingdto.StateResponse](t, body)
	if !st.WhiteToMove || st.LastMove != nil || st.Score != (kingdto.ScoreDTO{}) {
		t.Fatalf("prepared state = %+v", st)
	}
}

func TestNewSettlesAndShutdownBeforeServe(t *testing.T) {
	cfg := &config.AppConfig{OpponentSide: "white", OpponentStrategy: "random", OpponentSeed: 5, FeedMode: "auto"}
	d, err := builder.New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}
	defer d.Close(context.Background())

	srv := New(d, nil)
	if d.Session.Turn() != board.Black {
		t.Fatalf("white opponent should have opened in New, turn = %s", d.Session.Turn())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	ln := fasthttputil.NewInmemoryListener()
	if err := srv.Serve(ln); !errors.Is(err, ErrServerClosed) {
		t.Fatalf("Serve after Shutdown err = %v", err)
	}
	if _, err := ln.Dial(); err == nil {
		t.Fatalf("listener should be closed")
	}
}

func TestShutdownStopsRunningServe(t *testing.T) {
	ts := newTestServer(t, "none")
	if status, _, _ := ts.do(t, fasthttp.MethodGet, "/healthz", nil); status != fasthttp.StatusOK {
		t.Fatalf("healthz = %d", status)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ts.srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case err := <-ts.served:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Serve still running after Shutdown")
	}
}
