package engine

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

type countingAnim struct {
	layout led.Driver
	steps  atomic.Int64
	resets atomic.Int64
}

func (a *countingAnim) Step() {
	a.steps.Add(1)
	a.layout.Set(0, color.Red)
}

func (a *countingAnim) Reset() { a.resets.Add(1) }

func newRunner(t *testing.T, timeout time.Duration) (*Runner, *led.Buffer, *led.Memory) {
	t.Helper()
	mem := led.NewMemory()
	buf, err := led.NewBuffer(8, 255, mem)
	require.NoError(t, err)
	return NewRunner(buf, timeout, nil), buf, mem
}

func TestRunStepsAndFlushes(t *testing.T) {
	r, buf, mem := newRunner(t, 0)
	anim := &countingAnim{layout: buf}

	require.NoError(t, r.Run(anim, 200))
	assert.True(t, r.Running())
	assert.Equal(t, int64(1), anim.resets.Load())

	assert.Eventually(t, func() bool { return r.Frames() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, color.Red, mem.Last()[0])

	assert.True(t, r.Stop())
	assert.False(t, r.Running())

	stepped := anim.steps.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stepped, anim.steps.Load(), "animation stepped after Stop returned")
}

func TestStopIsIdempotent(t *testing.T) {
	r, _, _ := newRunner(t, 0)
	assert.False(t, r.Stop())
	assert.False(t, r.Stop())
}

func TestRunReplacesPreviousAnimation(t *testing.T) {
	r, buf, _ := newRunner(t, 0)
	first := &countingAnim{layout: buf}
	second := &countingAnim{layout: buf}

	require.NoError(t, r.Run(first, 200))
	require.Eventually(t, func() bool { return first.steps.Load() > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Run(second, 200))
	frozen := first.steps.Load()
	require.Eventually(t, func() bool { return second.steps.Load() > 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, frozen, first.steps.Load())

	r.Stop()
}

func TestRunRejectsBadInput(t *testing.T) {
	r, buf, _ := newRunner(t, 0)
	assert.Error(t, r.Run(nil, 10))
	assert.Error(t, r.Run(&countingAnim{layout: buf}, 0))
	assert.False(t, r.Running())
}

func TestRenderErrorsKeepLoopAlive(t *testing.T) {
	r, buf, mem := newRunner(t, 0)
	mem.FailWith(errors.New("bus fault"))
	anim := &countingAnim{layout: buf}

	require.NoError(t, r.Run(anim, 200))
	assert.Eventually(t, func() bool { return anim.steps.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, r.Frames())
	r.Stop()
}

type stuckAnim struct {
	release chan struct{}
	entered chan struct{}
	once    atomic.Bool
}

func (a *stuckAnim) Step() {
	if a.once.CompareAndSwap(false, true) {
		close(a.entered)
	}
	<-a.release
}

func TestStopGivesUpAfterTimeout(t *testing.T) {
	r, _, _ := newRunner(t, 50*time.Millisecond)
	anim := &stuckAnim{release: make(chan struct{}), entered: make(chan struct{})}
	defer close(anim.release)

	require.NoError(t, r.Run(anim, 100))
	<-anim.entered

	start := time.Now()
	assert.True(t, r.Stop())
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, r.Running())
}

// lateAnim blocks in its first Step and paints the strip once released.
type lateAnim struct {
	stuckAnim
	layout led.Driver
}

func (a *lateAnim) Step() {
	a.stuckAnim.Step()
	a.layout.Fill(color.Red, 0, a.layout.NumLEDs()-1)
}

func TestBlankAfterStopTimeoutStaysDark(t *testing.T) {
	r, buf, mem := newRunner(t, 50*time.Millisecond)
	anim := &lateAnim{
		stuckAnim: stuckAnim{release: make(chan struct{}), entered: make(chan struct{})},
		layout:    buf,
	}

	require.NoError(t, r.Run(anim, 100))
	<-anim.entered
	r.Stop()

	require.NoError(t, r.Blank(40))
	renders := mem.Renders()
	close(anim.release)

	// give the released step time to finish
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, renders, mem.Renders())
	assert.Zero(t, r.Frames())
	for i, c := range mem.Last() {
		assert.Equal(t, color.Black, c, "led %d", i)
	}
	assert.Equal(t, uint8(40), mem.LastBrightness())
}

func TestBlankWaitsForFrameInProgress(t *testing.T) {
	r, buf, mem := newRunner(t, time.Second)
	anim := &lateAnim{
		stuckAnim: stuckAnim{release: make(chan struct{}), entered: make(chan struct{})},
		layout:    buf,
	}

	require.NoError(t, r.Run(anim, 100))
	<-anim.entered

	blanked := make(chan error, 1)
	go func() {
		r.Stop()
		blanked <- r.Blank(255)
	}()
	time.Sleep(20 * time.Millisecond)
	close(anim.release)

	require.NoError(t, <-blanked)
	for i, c := range mem.Last() {
		assert.Equal(t, color.Black, c, "led %d", i)
	}
	for i, c := range buf.Snapshot() {
		assert.Equal(t, color.Black, c, "led %d", i)
	}
}

type panickyAnim struct{}

func (panickyAnim) Step() { panic("boom") }

func TestPanickingAnimationEndsLoop(t *testing.T) {
	r, _, _ := newRunner(t, 0)
	require.NoError(t, r.Run(panickyAnim{}, 100))

	start := time.Now()
	r.Stop()
	assert.Less(t, time.Since(start), time.Second)
}
