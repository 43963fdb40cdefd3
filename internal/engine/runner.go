// Package engine drives the active animation: one goroutine steps it at a fixed frame
// rate and flushes every frame to the strip until it is stopped.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"bling-controller/internal/led"
	"bling-controller/internal/metrics"
	"bling-controller/internal/pattern"
)

// DefaultStopTimeout bounds how long Stop waits for the frame loop to exit.
const DefaultStopTimeout = 2 * time.Second

// resetter is implemented by animations that keep state across runs.
type resetter interface {
	Reset()
}

// Runner owns the frame loop. At most one animation runs at a time; Run stops the
// previous one first.
type Runner struct {
	layout      led.Driver
	metrics     *metrics.Metrics
	stopTimeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// frameMu makes Step plus Update atomic with respect to cancellation.
	frameMu sync.Mutex
	frames  atomic.Uint64
}

// NewRunner creates a runner for layout. A zero stopTimeout means DefaultStopTimeout.
func NewRunner(layout led.Driver, stopTimeout time.Duration, m *metrics.Metrics) *Runner {
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Runner{layout: layout, metrics: m, stopTimeout: stopTimeout}
}

// Run starts stepping anim at fps frames per second. The first frame is drawn
// immediately.
func (r *Runner) Run(anim pattern.Animation, fps int) error {
	if anim == nil {
		return fmt.Errorf("no animation to run")
	}
	if fps <= 0 {
		return fmt.Errorf("invalid frame rate %d", fps)
	}
	r.Stop()

	if rs, ok := anim.(resetter); ok {
		rs.Reset()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.mu.Unlock()

	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	go r.loop(ctx, anim, limiter, done)
	return nil
}

func (r *Runner) loop(ctx context.Context, anim pattern.Animation, limiter *rate.Limiter, done chan struct{}) {
	defer close(done)
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[Engine] Animation panicked: %v", rec)
		}
	}()

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		r.frame(ctx, anim)
	}
}

func (r *Runner) frame(ctx context.Context, anim pattern.Animation) {
	r.frameMu.Lock()
	defer r.frameMu.Unlock()
	if ctx.Err() != nil {
		return
	}

	anim.Step()
	if ctx.Err() != nil {
		return
	}
	if err := r.layout.Update(); err != nil {
		log.Printf("[Engine] Render failed: %v", err)
		r.metrics.RenderFailed()
		return
	}
	r.frames.Add(1)
	r.metrics.FrameRendered()
}

// Stop cancels the running animation and waits for its loop to exit, giving up after
// the stop timeout. It reports whether an animation was running.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	select {
	case <-done:
	case <-time.After(r.stopTimeout):
		log.Println("[Engine] Timeout waiting for animation to stop")
	}
	return true
}

// Blank turns the whole strip off at brightness and flushes it under the frame lock,
// so a step that outlived Stop cannot paint over the dark frame. A step still stuck
// after the stop timeout is not waited for; its frame is never flushed because its run
// has been cancelled.
func (r *Runner) Blank(brightness uint8) error {
	if r.lockFrame() {
		defer r.frameMu.Unlock()
	} else {
		log.Println("[Engine] Blanking strip while a frame is still being drawn")
	}
	r.layout.SetBrightness(brightness)
	r.layout.AllOff()
	return r.layout.Update()
}

func (r *Runner) lockFrame() bool {
	deadline := time.Now().Add(r.stopTimeout)
	for !r.frameMu.TryLock() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}

// Running reports whether an animation loop is active.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Frames is the number of frames flushed since the runner was created.
func (r *Runner) Frames() uint64 {
	return r.frames.Load()
}
