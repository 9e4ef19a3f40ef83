// Package auth obtains and renews login credentials for outbound calls.
//
// An Engine holds at most one login context at a time together with the
// generation it was obtained in. Callers that were rejected report the
// generation they used; only the first of them logs in again, the rest reuse
// the context it produced.
package auth

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/unkn0wn-root/pylon"
	"golang.org/x/sync/semaphore"
)

// Generation identifies a login epoch. It grows by one per completed login.
type Generation uint64

// NoGeneration is passed by callers that have not used any login yet.
// The first login yields generation 1.
const NoGeneration Generation = 0

// Communicator delivers requests. Send wraps ErrUnauthorized or ErrForbidden
// when the server rejects the credentials carried by req.
type Communicator[Req, Resp any] interface {
	IsOpen() bool
	Send(ctx context.Context, req Req) (Resp, error)
}

// Loginer obtains a fresh login context.
type Loginer[L any] interface {
	Login(ctx context.Context) (L, error)
}

type LoginFunc[L any] func(ctx context.Context) (L, error)

func (f LoginFunc[L]) Login(ctx context.Context) (L, error) { return f(ctx) }

// Factory builds a request from the login context in effect.
type Factory[L, Req any] func(ctx context.Context, login L) (Req, error)

type config struct {
	log pylon.Logger
}

type Option func(*config)

func WithLogger(l pylon.Logger) Option { return func(c *config) { c.log = pylon.OrNop(l) } }

// session is never mutated after it is published.
type session[L any] struct {
	login L
	gen   Generation
}

// Engine is safe for concurrent use.
type Engine[L, Req, Resp any] struct {
	comm    Communicator[Req, Resp]
	loginer Loginer[L]
	log     pylon.Logger

	sem *semaphore.Weighted        // guards the login transition
	cur atomic.Pointer[session[L]] // nil => no context yet
}

func New[L, Req, Resp any](comm Communicator[Req, Resp], loginer Loginer[L], opts ...Option) *Engine[L, Req, Resp] {
	cfg := config{log: pylon.NopLogger{}}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine[L, Req, Resp]{
		comm:    comm,
		loginer: loginer,
		log:     cfg.log,
		sem:     semaphore.NewWeighted(1),
	}
}

// Current returns the login context in effect, if any.
func (e *Engine[L, Req, Resp]) Current() (L, Generation, bool) {
	s := e.cur.Load()
	if s == nil {
		var zero L
		return zero, NoGeneration, false
	}
	return s.login, s.gen, true
}

// Request builds a request with a valid login context. A login happens when
// there is no context yet or when stale equals the current generation.
// Otherwise the existing context is reused, including when stale is older
// than the current generation because another caller already logged in.
//
// The returned generation is the one the request was built with.
func (e *Engine[L, Req, Resp]) Request(ctx context.Context, build Factory[L, Req], stale Generation) (Req, Generation, error) {
	s, err := e.session(ctx, stale)
	if err != nil {
		var zero Req
		return zero, NoGeneration, err
	}
	req, err := build(ctx, s.login)
	if err != nil {
		var zero Req
		return zero, s.gen, fmt.Errorf("auth: build request: %w", err)
	}
	return req, s.gen, nil
}

func (e *Engine[L, Req, Resp]) session(ctx context.Context, stale Generation) (*session[L], error) {
	if s := e.cur.Load(); s != nil && s.gen != stale {
		return s, nil
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	// Re-check: whoever held the section before us may have logged in.
	s := e.cur.Load()
	if s != nil && s.gen != stale {
		return s, nil
	}

	login, err := e.loginer.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: login: %w", err)
	}
	next := &session[L]{login: login, gen: NoGeneration + 1}
	if s != nil {
		next.gen = s.gen + 1
	}
	e.cur.Store(next)
	e.log.Info("login completed", pylon.Fields{"generation": uint64(next.gen)})
	return next, nil
}

// Send delivers req without any login handling.
func (e *Engine[L, Req, Resp]) Send(ctx context.Context, req Req) (Resp, error) {
	if !e.comm.IsOpen() {
		var zero Resp
		return zero, ErrClosed
	}
	return e.comm.Send(ctx, req)
}

// SendAuthenticated builds and sends a request. On ErrUnauthorized or
// ErrForbidden it rebuilds the request after a coordinated re-login and
// sends it once more. A second failure is returned as is.
func (e *Engine[L, Req, Resp]) SendAuthenticated(ctx context.Context, build Factory[L, Req]) (Resp, error) {
	var zero Resp
	req, gen, err := e.Request(ctx, build, NoGeneration)
	if err != nil {
		return zero, err
	}
	resp, err := e.Send(ctx, req)
	if err == nil || !Retryable(err) {
		return resp, err
	}

	e.log.Warn("request rejected, logging in again", pylon.Fields{"generation": uint64(gen), "err": err})
	req, _, err = e.Request(ctx, build, gen)
	if err != nil {
		return zero, err
	}
	return e.Send(ctx, req)
}
