package engine

import (
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/orgchart/pkg/errors"
)

// DefaultInterval is the tick interval of a started engine (~60 fps).
const DefaultInterval = time.Second / 60

// Host runs repeating callbacks. Every must call fn sequentially, never
// concurrently with itself, until cancel is called.
type Host interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// =============================================================================
// TimerHost
// =============================================================================

// TimerHost drives callbacks from a time.Ticker on its own goroutine.
type TimerHost struct{}

func (TimerHost) Every(interval time.Duration, fn func()) func() {
	t := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.Stop()
			close(done)
		})
	}
}

// =============================================================================
// ManualHost
// =============================================================================

// ManualHost runs callbacks only when stepped. It is used by tests and by
// hosts that own their own frame loop.
type ManualHost struct {
	mu   sync.Mutex
	next int
	fns  map[int]func()
}

// NewManualHost returns a host with no callbacks.
func NewManualHost() *ManualHost {
	return &ManualHost{fns: make(map[int]func())}
}

func (h *ManualHost) Every(_ time.Duration, fn func()) func() {
	h.mu.Lock()
	id := h.next
	h.next++
	h.fns[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.fns, id)
		h.mu.Unlock()
	}
}

// Step calls every registered callback once, in registration order.
func (h *ManualHost) Step() {
	h.mu.Lock()
	ids := make([]int, 0, len(h.fns))
	for id := range h.fns {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		h.mu.Lock()
		fn, ok := h.fns[id]
		h.mu.Unlock()
		if ok {
			fn()
		}
	}
}

// Active returns the number of registered callbacks.
func (h *ManualHost) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.fns)
}

// =============================================================================
// Scheduler
// =============================================================================

// Scheduler owns a cancellable repeating callback on a Host.
//
// Start and Stop are idempotent. After Dispose the scheduler can no longer
// be started and the callback is never invoked again, even if the host
// delivers a call that was already in flight.
type Scheduler struct {
	mu       sync.Mutex
	host     Host
	interval time.Duration
	fn       func()
	cancel   func()
	disposed bool
}

// NewScheduler returns a stopped scheduler that will call fn every interval.
func NewScheduler(host Host, interval time.Duration, fn func()) *Scheduler {
	if host == nil {
		host = TimerHost{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{host: host, interval: interval, fn: fn}
}

// Start begins calling the callback. It fails once disposed.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errors.New(errors.ErrCodeDisposed, "scheduler disposed")
	}
	if s.cancel != nil {
		return nil
	}
	s.cancel = s.host.Every(s.interval, s.call)
	return nil
}

func (s *Scheduler) call() {
	s.mu.Lock()
	live := s.cancel != nil && !s.disposed
	s.mu.Unlock()
	if live {
		s.fn()
	}
}

// Stop cancels the callback. It can be started again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Dispose stops the scheduler for good.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	s.disposed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Running reports whether the callback is scheduled.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}
