// Package scheduler runs a unit of work at a fixed rate on its own goroutine.
package scheduler

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("scheduler already running")
	ErrInvalidPeriod  = errors.New("period must be positive")
	// ErrStopTimeout is returned by Stop when the in-flight invocation did not
	// finish within one period. The invocation keeps running to completion.
	ErrStopTimeout = errors.New("in-flight task did not finish within one period")
)

// Scheduler invokes a task every period after an initial delay. Invocations
// are aligned to start+n*period; a tick missed because the previous
// invocation overran is skipped, never queued.
type Scheduler struct {
	mu      sync.Mutex
	quit    chan struct{}
	done    chan struct{}
	period  time.Duration
	running bool
}

func New() *Scheduler {
	return &Scheduler{}
}

// Start begins invoking task. It fails if the scheduler is already running;
// Start after Stop creates a fresh schedule.
func (s *Scheduler) Start(task func(), delay, period time.Duration) error {
	if period <= 0 {
		return ErrInvalidPeriod
	}
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	s.period = period
	s.running = true

	go run(task, delay, period, s.quit, s.done)
	return nil
}

func run(task func(), delay, period time.Duration, quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-quit:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		// quit wins over a pending tick
		select {
		case <-quit:
			return
		default:
		}
		task()

		select {
		case <-quit:
			return
		case <-ticker.C:
		}
	}
}

// Stop requests that no further invocations start and waits up to one
// period for the in-flight invocation. Stopping an idle scheduler is a no-op.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.quit)
	done, period := s.done, s.period
	s.mu.Unlock()

	timer := time.NewTimer(period)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return ErrStopTimeout
	}
}

// Running reports whether a schedule is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
