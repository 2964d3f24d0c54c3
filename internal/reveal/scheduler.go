package reveal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval is one animation frame.
const DefaultTickInterval = 16 * time.Millisecond

// Cancel stops a scheduled callback. Calling it more than once is a no-op.
type Cancel func()

// Scheduler runs fn every interval until the returned Cancel is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Cancel
}

// FrameLoop is a single-goroutine event loop. Ticks and posted tasks run one at
// a time on the goroutine that calls Run, so callbacks never overlap.
//
// Tick timing comes from the injected clock and is approximate: a tick that
// arrives while the loop is busy is delivered late, and a ticker that falls
// behind drops ticks the way time.Ticker does.
type FrameLoop struct {
	clock clockwork.Clock
	tasks chan func()
	done  chan struct{}
	once  sync.Once

	// mu orders wg.Add in Every against close(done) in Close.
	mu sync.Mutex
	wg sync.WaitGroup
}

// NewFrameLoop returns a loop driven by clock. A nil clock means wall time.
func NewFrameLoop(clock clockwork.Clock) *FrameLoop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FrameLoop{
		clock: clock,
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until ctx is cancelled or Close is called.
func (l *FrameLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			// A task queued before Close must not run after it.
			select {
			case <-l.done:
				return nil
			default:
			}
			fn()
		}
	}
}

// Post queues fn for the loop goroutine. It reports false once the loop is
// closed. Post must not be called from inside a loop task.
func (l *FrameLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *FrameLoop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		fn()
		close(finished)
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Every implements Scheduler. fn always runs on the loop goroutine. Once the
// loop is closed Every schedules nothing and returns a no-op Cancel.
func (l *FrameLoop) Every(interval time.Duration, fn func()) Cancel {
	l.mu.Lock()
	if l.Closed() {
		l.mu.Unlock()
		return func() {}
	}
	l.wg.Add(1)
	l.mu.Unlock()

	var cancelled atomic.Bool
	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelled.Store(true)
			close(stop)
		})
	}

	ticker := l.clock.NewTicker(interval)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				posted := l.Post(func() {
					if !cancelled.Load() {
						fn()
					}
				})
				if !posted {
					return
				}
			case <-stop:
				return
			case <-l.done:
				return
			}
		}
	}()
	return cancel
}

// Close stops the loop and every ticker it started. It is idempotent.
func (l *FrameLoop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		close(l.done)
		l.mu.Unlock()
	})
	l.wg.Wait()
}

// Closed reports whether Close has been called.
func (l *FrameLoop) Closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
