package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/kingcapture/pkg/kingdto"
)

// Webhook POSTs each event as JSON to a fixed URL, retrying 5xx answers and
// transport errors with backoff.
type Webhook struct {
	url     string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type WebhookOption func(*Webhook)

func WithWebhookTimeout(d time.Duration) WebhookOption {
	return func(h *Webhook) { h.defaultTimeout = d }
}

func WithWebhookHeaders(p HeaderProvider) WebhookOption {
	return func(h *Webhook) { h.headers = p }
}

func WithRetry(max int) WebhookOption {
	return func(h *Webhook) { h.retryMax = max }
}

// withDialer lets tests route the client through an in-memory listener.
func withDialer(dial fasthttp.DialFunc) WebhookOption {
	return func(h *Webhook) { h.http.Dial = dial }
}

func NewWebhook(url string, opts ...WebhookOption) *Webhook {
	h := &Webhook{
		url:            strings.TrimSpace(url),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Webhook) Send(ctx context.Context, ev kingdto.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(h.url)
	req.Header.SetContentType("application/json")
	for k, v := range buildHeaders(h.headers) {
		req.Header.Set(k, v[0])
	}
	req.SetBody(payload)

	attempts := h.retryMax
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := h.http.DoDeadline(req, resp, h.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("webhook request: %w", err)
		} else {
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return nil
			}
			lastErr = fmt.Errorf("webhook status=%d body=%s", status, truncate(string(resp.Body()), 512))
			if !shouldRetryStatus(status) {
				return lastErr
			}
		}
		if attempt == attempts {
			break
		}
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return lastErr
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (h *Webhook) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(h.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}
