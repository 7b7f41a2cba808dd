package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// StatusError is returned for responses with a status of 400 or above.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

type Config struct {
	MaxAttempts    uint
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    4,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Timeout:        10 * time.Second,
	}
}

// Client sends requests and retries transient failures (transport errors,
// 429 and 5xx) with exponential backoff.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = def.MaxBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// Do builds a fresh request per attempt with makeReq. The caller closes the
// body of the returned response.
func (c *Client) Do(ctx context.Context, makeReq func(context.Context) (*http.Request, error)) (*http.Response, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff

	attempt := 0
	op := func() (*http.Response, error) {
		attempt++
		req, err := makeReq(ctx)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("make request: %w", err))
		}
		resp, err := c.http.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, backoff.Permanent(ctxErr)
			}
			return nil, err
		}
		if resp.StatusCode < http.StatusBadRequest {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		se := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		if !retryable(resp.StatusCode) {
			return nil, backoff.Permanent(se)
		}
		return nil, se
	}

	resp, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("Retrying request",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DoJSON runs Do and decodes the response body into out.
func (c *Client) DoJSON(ctx context.Context, makeReq func(context.Context) (*http.Request, error), out any) error {
	resp, err := c.Do(ctx, makeReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func retryable(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
