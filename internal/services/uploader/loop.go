package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andrasq/kstats/internal/journal"
)

// DefaultInterval is the upload cadence when the loop is not configured.
const DefaultInterval = 2 * time.Minute

// ErrLinesRejected reports journal lines that failed validation since the
// rejection sink was last drained.
var ErrLinesRejected = errors.New("journal lines rejected")

// Loop drives a Service on a fixed interval. Cycle errors are reported
// through the error callback and never stop the loop; cancellation stops
// future ticks only, an in-flight cycle always runs to one of its exits.
type Loop struct {
	svc      *Service
	interval time.Duration
	onError  func(err error, msg string)
	rejects  *journal.Rejects

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLoop configures a periodic upload loop. A non-positive interval falls
// back to DefaultInterval; a nil rejects sink disables reject reporting.
func NewLoop(svc *Service, interval time.Duration, onError func(error, string), rejects *journal.Rejects) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if onError == nil {
		onError = func(error, string) {}
	}
	return &Loop{
		svc:      svc,
		interval: interval,
		onError:  onError,
		rejects:  rejects,
		stop:     make(chan struct{}),
	}
}

// Run blocks, ticking until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// Stop cancels all future ticks. It is safe to call more than once and from
// any goroutine; a cycle already in flight completes normally.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Loop) tick(ctx context.Context) {
	// The cycle runs on a context detached from loop cancellation so a
	// shutdown mid-upload cannot abandon a capture in a half-read state.
	if err := l.svc.RunCycle(context.WithoutCancel(ctx)); err != nil {
		l.onError(err, "upload cycle failed")
	}
	if l.rejects == nil {
		return
	}
	if dropped := l.rejects.Swap(nil); len(dropped) > 0 {
		l.onError(fmt.Errorf("%w: %d line(s)", ErrLinesRejected, len(dropped)),
			fmt.Sprintf("first rejected line: %q", dropped[0]))
	}
}
