package layout

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs callbacks repeatedly on the host's loop.
type Scheduler interface {
	// Every calls fn once per interval until the returned cancel function
	// is called. Cancel is idempotent.
	Every(interval time.Duration, fn func()) (cancel func())
}

// =============================================================================
// ManualScheduler
// =============================================================================

// ManualScheduler is a deterministic Scheduler driven by Advance. It is used
// by tests and script replays, where time only moves when asked to.
type ManualScheduler struct {
	now    time.Duration
	nextID int
	timers map[int]*manualTimer
}

type manualTimer struct {
	id       int
	interval time.Duration
	due      time.Duration
	fn       func()
}

// NewManualScheduler returns a scheduler at time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualTimer)}
}

// Every implements Scheduler. Non-positive intervals never fire.
func (s *ManualScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 || fn == nil {
		return func() {}
	}
	s.nextID++
	t := &manualTimer{id: s.nextID, interval: interval, due: s.now + interval, fn: fn}
	s.timers[t.id] = t
	return func() { delete(s.timers, t.id) }
}

// Advance moves the clock forward by d, firing due callbacks in time order.
// Callbacks registered at the same instant fire in registration order. It
// returns the number of callbacks fired.
func (s *ManualScheduler) Advance(d time.Duration) int {
	end := s.now + d
	fired := 0
	for {
		t := s.nextDue(end)
		if t == nil {
			break
		}
		s.now = t.due
		t.due += t.interval
		t.fn()
		fired++
	}
	s.now = end
	return fired
}

func (s *ManualScheduler) nextDue(end time.Duration) *manualTimer {
	var due []*manualTimer
	for _, t := range s.timers {
		if t.due <= end {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].id < due[j].id
	})
	return due[0]
}

// Now returns the scheduler's clock.
func (s *ManualScheduler) Now() time.Duration { return s.now }

// Active returns the number of running timers.
func (s *ManualScheduler) Active() int { return len(s.timers) }

// =============================================================================
// TickerScheduler
// =============================================================================

// TickerScheduler runs real tickers and hands due callbacks to the owner
// through C. The owner must drain C on its loop and call each function;
// callbacks never run on the ticker goroutines.
type TickerScheduler struct {
	c    chan func()
	mu   sync.Mutex
	wg   sync.WaitGroup
	stop map[int]chan struct{}
	next int
}

// NewTickerScheduler returns a scheduler whose channel buffers up to
// buffer pending callbacks. Ticks are dropped while the buffer is full.
func NewTickerScheduler(buffer int) *TickerScheduler {
	return &TickerScheduler{c: make(chan func(), max(buffer, 1)), stop: make(map[int]chan struct{})}
}

// C returns the channel of due callbacks.
func (s *TickerScheduler) C() <-chan func() { return s.c }

// Every implements Scheduler.
func (s *TickerScheduler) Every(interval time.Duration, fn func()) func() {
	if interval <= 0 || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.next++
	id := s.next
	done := make(chan struct{})
	s.stop[id] = done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				select {
				case s.c <- fn:
				default:
				}
			}
		}
	}()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if d, ok := s.stop[id]; ok {
			delete(s.stop, id)
			close(d)
		}
	}
}

// Active returns the number of running tickers.
func (s *TickerScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stop)
}

// Stop cancels every ticker and waits for their goroutines to exit.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	for id, done := range s.stop {
		close(done)
		delete(s.stop, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
