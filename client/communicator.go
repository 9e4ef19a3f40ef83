package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/unkn0wn-root/pylon"
	"github.com/unkn0wn-root/pylon/auth"
	"resty.dev/v3"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultRetryCount = 2
	defaultRetryWait  = 100 * time.Millisecond
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration // 0 => DefaultTimeout
	RetryCount int           // transport retries per send; < 0 disables
	Logger     pylon.Logger
}

// HTTPCommunicator sends requests with resty. Sessions established by the
// login endpoints are kept in a cookie jar owned by the communicator.
type HTTPCommunicator struct {
	cfg Config
	log pylon.Logger

	mu sync.RWMutex
	rc *resty.Client
}

var _ auth.Communicator[Request, Response] = (*HTTPCommunicator)(nil)

func NewHTTPCommunicator(cfg Config) *HTTPCommunicator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryCount == 0 {
		cfg.RetryCount = DefaultRetryCount
	}
	return &HTTPCommunicator{cfg: cfg, log: pylon.OrNop(cfg.Logger)}
}

// Open is idempotent.
func (c *HTTPCommunicator) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rc != nil {
		return nil
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	rc := resty.New().
		SetBaseURL(c.cfg.BaseURL).
		SetTimeout(c.cfg.Timeout).
		SetCookieJar(jar).
		SetHeader("Accept", "application/json")
	if c.cfg.RetryCount > 0 {
		rc.SetRetryCount(c.cfg.RetryCount).SetRetryWaitTime(defaultRetryWait)
	}
	c.rc = rc
	return nil
}

func (c *HTTPCommunicator) Close() error {
	c.mu.Lock()
	rc := c.rc
	c.rc = nil
	c.mu.Unlock()
	if rc == nil {
		return nil
	}
	return rc.Close()
}

func (c *HTTPCommunicator) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rc != nil
}

// Send returns *RequestError on transport failure and *ResponseError on a
// status >= 400.
func (c *HTTPCommunicator) Send(ctx context.Context, req Request) (Response, error) {
	c.mu.RLock()
	rc := c.rc
	c.mu.RUnlock()
	if rc == nil {
		return Response{}, auth.ErrClosed
	}

	r := rc.R().SetContext(ctx)
	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(req.Body)
	}
	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		c.log.Warn("pylon api request failed", pylon.Fields{"method": req.Method, "path": req.Path, "err": err})
		return Response{}, &RequestError{Method: req.Method, Path: req.Path, Err: err}
	}

	out := Response{StatusCode: resp.StatusCode(), Body: resp.Bytes()}
	if out.StatusCode >= http.StatusBadRequest {
		c.log.Debug("pylon api error response", pylon.Fields{"method": req.Method, "path": req.Path, "status": out.StatusCode})
		return out, &ResponseError{StatusCode: out.StatusCode, Body: out.Body}
	}
	return out, nil
}
