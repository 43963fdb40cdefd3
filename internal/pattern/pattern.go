// Package pattern implements the LED animations a command can select. Every pattern
// is a small strategy registered by name; Setup validates the request and returns an
// Animation whose Step draws one frame into the shared LED buffer.
package pattern

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

var (
	// ErrUnknownPattern is returned when a pattern name is not registered.
	ErrUnknownPattern = errors.New("unknown pattern")
	// ErrUnknownSpeed is returned for speeds other than SLOW, MEDIUM and FAST.
	ErrUnknownSpeed = errors.New("unknown speed")
)

// Speed names.
const (
	Slow   = "SLOW"
	Medium = "MEDIUM"
	Fast   = "FAST"
)

// Speeds maps the three speed names to frames per second.
type Speeds struct {
	Slow, Medium, Fast int
}

// Fixed returns a table with the same rate for every speed.
func Fixed(fps int) Speeds {
	return Speeds{fps, fps, fps}
}

// FPS looks up the frame rate for a speed name, ignoring case.
func (s Speeds) FPS(speed string) (int, error) {
	switch strings.ToUpper(speed) {
	case Slow:
		return s.Slow, nil
	case Medium:
		return s.Medium, nil
	case Fast:
		return s.Fast, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSpeed, speed)
}

// Options carries everything a pattern needs to configure itself for one command.
type Options struct {
	Colors *color.Registry
	Color  string
	Speed  string

	// MinLED and MaxLED bound the active window. The range comes straight from the
	// segment table and may be inverted or extend past the strip.
	MinLED int
	MaxLED int

	// Segments is the number of physical segments to replicate across; zero draws one
	// animation over the active window.
	Segments    int
	SegmentSize int

	// Rand drives the random patterns. A time-seeded source is used when nil.
	Rand *rand.Rand
}

func (o Options) rng() *rand.Rand {
	if o.Rand != nil {
		return o.Rand
	}
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1))
}

func (o Options) registry() *color.Registry {
	if o.Colors != nil {
		return o.Colors
	}
	return color.NewRegistry()
}

// Animation draws successive frames.
type Animation interface {
	// Step draws the next frame into the buffer; the caller flushes it.
	Step()
}

// Pattern is one named animation family.
type Pattern interface {
	Name() string
	// FramesPerSecond maps a speed name onto this pattern's frame rate.
	FramesPerSecond(speed string) (int, error)
	// Setup prepares the pattern for layout. A nil Animation means the pattern is
	// static: Setup already drew it and it needs a single flush.
	Setup(layout led.Driver, opts Options) (Animation, error)
}

type setupFunc func(layout led.Driver, opts Options) (Animation, error)

// definition is the Pattern implementation shared by every registered pattern.
type definition struct {
	name   string
	speeds Speeds
	setup  setupFunc
}

func (d *definition) Name() string { return d.name }

func (d *definition) FramesPerSecond(speed string) (int, error) {
	return d.speeds.FPS(speed)
}

func (d *definition) Setup(layout led.Driver, opts Options) (Animation, error) {
	if layout == nil {
		return nil, fmt.Errorf("pattern %s: no LED layout", d.name)
	}
	return d.setup(layout, opts)
}
