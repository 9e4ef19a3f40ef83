package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/unkn0wn-root/pylon"
	"golang.org/x/sync/singleflight"
)

var (
	ErrStarted    = errors.New("refresh: scheduler already started")
	ErrUnknownJob = errors.New("refresh: unknown job")
)

// Func is a schedulable run.
type Func func(ctx context.Context) Result

type schedule struct {
	name  string
	every time.Duration
	run   Func
}

// Scheduler runs each added job immediately on Start and then every
// interval. Runs of one job never overlap: a RunNow during a tick joins it.
// Runs always use the scheduler's context, never a caller's.
type Scheduler struct {
	log pylon.Logger

	mu      sync.Mutex
	jobs    map[string]*schedule
	order   []string
	started bool
	stopCh  chan struct{}
	stop    sync.Once
	runCtx  context.Context
	cancel  context.CancelFunc

	flight singleflight.Group
	wg     sync.WaitGroup
}

func NewScheduler(log pylon.Logger) *Scheduler {
	return &Scheduler{
		log:    pylon.OrNop(log),
		jobs:   make(map[string]*schedule),
		stopCh: make(chan struct{}),
	}
}

// Add registers a job. It must be called before Start.
func (s *Scheduler) Add(name string, every time.Duration, run Func) error {
	if every <= 0 {
		return fmt.Errorf("refresh: job %q: interval must be positive", name)
	}
	if run == nil {
		return fmt.Errorf("refresh: job %q: nil run", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("refresh: job %q already added", name)
	}
	s.jobs[name] = &schedule{name: name, every: every, run: run}
	s.order = append(s.order, name)
	return nil
}

// Start launches one loop per job. Runs use a context derived from ctx;
// cancelling ctx stops the loops as well.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.started = true

	runCtx, cancel := context.WithCancel(ctx)
	s.runCtx, s.cancel = runCtx, cancel
	for _, name := range s.order {
		j := s.jobs[name]
		s.wg.Add(1)
		go s.loop(runCtx, j)
	}
	s.log.Info("refresh scheduler started", pylon.Fields{"jobs": len(s.order)})
	return nil
}

// loop waits for every run it starts so Stop can wait on wg. Runs still end
// early when ctx is cancelled.
func (s *Scheduler) loop(ctx context.Context, j *schedule) {
	defer s.wg.Done()

	wait := context.WithoutCancel(ctx)
	_, _ = s.execute(wait, j)

	t := time.NewTicker(j.every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			select {
			case <-s.stopCh:
				return
			default:
			}
			_, _ = s.execute(wait, j)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunNow runs the named job immediately, or waits for the run already in
// flight and returns its result. Cancelling ctx only stops the wait; the
// run itself continues.
func (s *Scheduler) RunNow(ctx context.Context, name string) (Result, error) {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	return s.execute(ctx, j)
}

// runContext is the context of Start, or ctx without its cancellation
// before Start.
func (s *Scheduler) runContext(ctx context.Context) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx != nil {
		return s.runCtx
	}
	return context.WithoutCancel(ctx)
}

func (s *Scheduler) execute(ctx context.Context, j *schedule) (Result, error) {
	runCtx := s.runContext(ctx)
	ch := s.flight.DoChan(j.name, func() (any, error) {
		start := time.Now()
		res := j.run(runCtx)
		s.log.Info("refresh job finished", pylon.Fields{
			"job":      j.name,
			"saved":    res.Saved,
			"failed":   res.Failed,
			"duration": time.Since(start),
		})
		return res, nil
	})
	select {
	case r := <-ch:
		if r.Shared {
			s.log.Debug("refresh job joined run in flight", pylon.Fields{"job": j.name})
		}
		return r.Val.(Result), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Stop prevents future ticks and waits for runs in flight. If ctx ends
// first, in-flight runs are cancelled and ctx's error is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stop.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	if err == nil {
		s.log.Info("refresh scheduler stopped", nil)
	}
	return err
}
