// Package longtask runs backend calls with a shared "this is taking a
// while" notice and a single-flight guard for user triggered actions.
package longtask

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/uptome-dev/uptome/internal/client"
)

// DefaultSlowAfter is how long a call may run before it is reported slow.
const DefaultSlowAfter = 3 * time.Second

// ErrBusy is returned by Guarded.Run while another call is in flight.
var ErrBusy = errors.New("another request is still in progress")

// Run calls fn and, if it has not returned after slowAfter, calls onSlow
// once. A cancelled ctx ends the wait with a failed Result even if fn is
// still running; fn receives ctx and should stop on its own.
func Run(ctx context.Context, slowAfter time.Duration, onSlow func(), fn func(context.Context) client.Result) client.Result {
	if slowAfter <= 0 {
		slowAfter = DefaultSlowAfter
	}

	done := make(chan client.Result, 1)
	go func() {
		done <- fn(ctx)
	}()

	timer := time.NewTimer(slowAfter)
	defer timer.Stop()

	for {
		select {
		case result := <-done:
			return result
		case <-timer.C:
			if onSlow != nil {
				onSlow()
			}
		case <-ctx.Done():
			return client.Failure("request cancelled: %v", ctx.Err())
		}
	}
}

// Do is Run for calls that report a Go error. The error fn returns comes
// back unchanged; a cancelled ctx yields the cancellation failure.
func Do(ctx context.Context, slowAfter time.Duration, onSlow func(), fn func(context.Context) error) error {
	errc := make(chan error, 1)
	result := Run(ctx, slowAfter, onSlow, func(ctx context.Context) client.Result {
		err := fn(ctx)
		errc <- err
		if err != nil {
			return client.Failure("%v", err)
		}
		return client.Result{}
	})

	select {
	case err := <-errc:
		return err
	default:
		return result.Err()
	}
}

// Guarded rejects a new call while the previous one is still running. It
// is the "is loading" flag a handler checks on entry.
type Guarded struct {
	mu      sync.Mutex
	running bool
}

// Run executes fn unless a call is already in flight, in which case it
// returns ErrBusy without calling fn.
func (g *Guarded) Run(ctx context.Context, fn func(context.Context) client.Result) (client.Result, error) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return client.Result{}, ErrBusy
	}
	g.running = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
	}()

	return fn(ctx), nil
}

// Busy reports whether a call is in flight.
func (g *Guarded) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
