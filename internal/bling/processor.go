// Package bling turns command strings such as "Pattern=Scanner,Color=BLUE,Speed=FAST"
// into a running animation on the strip.
package bling

import (
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"bling-controller/internal/color"
	"bling-controller/internal/core"
	"bling-controller/internal/engine"
	"bling-controller/internal/led"
	"bling-controller/internal/metrics"
	"bling-controller/internal/pattern"
	"bling-controller/internal/strip"
)

// Status is the outcome of processing a command.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// DefaultBrightness is the strip brightness used when none is configured.
const DefaultBrightness = 127

// errorColor is the colour set the fallback Error pattern blinks.
const errorColor = "RED"

// Options configures a Processor.
type Options struct {
	// Segments is the number of identical physical segments; zero disables
	// segment replication.
	Segments int
	// Brightness is the strip's configured level, restored whenever an animation stops.
	Brightness uint8
	// StopTimeout bounds the wait for a stopping animation.
	StopTimeout time.Duration

	EventBus *core.EventBus
	Metrics  *metrics.Metrics

	// Colors and Patterns default to the built-in registries.
	Colors   *color.Registry
	Patterns *pattern.Registry
	Rand     *rand.Rand
}

// Processor owns the strip. Every exported method is serialised on one mutex, so at
// most one animation drives the LED buffer at a time.
type Processor struct {
	mu sync.Mutex

	layout   led.Driver
	strip    *strip.Strip
	colors   *color.Registry
	patterns *pattern.Registry
	runner   *engine.Runner
	bus      *core.EventBus
	metrics  *metrics.Metrics
	rand     *rand.Rand

	brightness uint8
	params     *params
	running    string
	command    string
}

// New creates a processor for layout and blanks the strip.
func New(layout led.Driver, opts Options) (*Processor, error) {
	if layout == nil {
		return nil, fmt.Errorf("no LED layout")
	}
	s, err := strip.New(layout.NumLEDs(), opts.Segments)
	if err != nil {
		return nil, err
	}

	p := &Processor{
		layout:     layout,
		strip:      s,
		colors:     opts.Colors,
		patterns:   opts.Patterns,
		runner:     engine.NewRunner(layout, opts.StopTimeout, opts.Metrics),
		bus:        opts.EventBus,
		metrics:    opts.Metrics,
		rand:       opts.Rand,
		brightness: opts.Brightness,
	}
	if p.colors == nil {
		p.colors = color.NewRegistry()
	}
	if p.patterns == nil {
		p.patterns = pattern.NewRegistry()
	}
	p.params = defaultParams(p.brightness)

	p.stopLocked()
	p.metrics.SetBrightness(p.brightness)
	return p, nil
}

// Process stops whatever is running and starts the animation cmd describes. Any
// failure leaves the Error pattern blinking red and returns StatusError; it never
// panics.
func (p *Processor) Process(cmd string) Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Printf("[Bling] Command: %s", cmd)
	p.stopLocked()
	p.params = defaultParams(p.brightness)

	status := StatusOK
	name, err := p.start(cmd)
	if err != nil {
		log.Printf("[Bling] Error processing command %q: %v", cmd, err)
		name = p.startFallback()
		status = StatusError
	}

	p.running = name
	p.command = cmd
	p.metrics.CommandProcessed(string(status))
	p.metrics.SetActivePattern(name)
	p.bus.Publish(core.Event{
		Type:    core.PatternChangedEvent,
		Payload: core.PatternChange{Pattern: name, Command: cmd, Status: string(status)},
	})
	return status
}

// start runs the parse-resolve-setup sequence and returns the name of the pattern now
// driving the strip, or "" for OFF.
func (p *Processor) start(cmd string) (name string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	if err := p.params.parse(cmd); err != nil {
		return "", err
	}
	if p.params.get(ParamPattern) == Off {
		return "", nil
	}

	pat, err := p.patterns.Get(p.params.get(ParamPattern))
	if err != nil {
		return "", err
	}

	minPct, err := p.params.int(ParamMin)
	if err != nil {
		return "", err
	}
	maxPct, err := p.params.int(ParamMax)
	if err != nil {
		return "", err
	}
	leds := strip.ApplyWindow(p.strip.RangeFor(p.params.get(ParamSegment)), minPct, maxPct)

	p.applyCommandBrightness()

	fps, err := pat.FramesPerSecond(p.params.get(ParamSpeed))
	if err != nil {
		return "", err
	}

	opts := pattern.Options{
		Colors: p.colors,
		Color:  p.params.get(ParamColor),
		Speed:  p.params.get(ParamSpeed),
		MinLED: leds.Start,
		MaxLED: leds.End,
		Rand:   p.rand,
	}
	if p.strip.Segmented() {
		opts.Segments = p.strip.NumSegments()
		opts.SegmentSize = p.strip.SegmentSize()
	}

	anim, err := pat.Setup(p.layout, opts)
	if err != nil {
		return "", err
	}
	if anim == nil || fps <= 0 {
		if err := p.layout.Update(); err != nil {
			return "", fmt.Errorf("render %s: %w", pat.Name(), err)
		}
		return pat.Name(), nil
	}
	if err := p.runner.Run(anim, fps); err != nil {
		return "", err
	}
	return pat.Name(), nil
}

// applyCommandBrightness sets the per-command brightness. Bad values are logged and the
// current level is kept.
func (p *Processor) applyCommandBrightness() {
	raw := p.params.get(ParamBrightness)
	level, err := p.params.int(ParamBrightness)
	if err != nil {
		log.Printf("[Bling] Invalid brightness value: %q", raw)
		return
	}
	if level < 0 || level > 255 {
		log.Printf("[Bling] Invalid brightness value: %d, must be 0-255", level)
		return
	}
	p.layout.SetBrightness(uint8(level))
}

// startFallback replaces whatever a failed command left behind with the Error pattern.
func (p *Processor) startFallback() string {
	p.runner.Stop()
	p.layout.AllOff()

	pat, err := p.patterns.Get(pattern.NameError)
	if err != nil {
		log.Printf("[Bling] Error pattern unavailable: %v", err)
		return ""
	}
	anim, err := pat.Setup(p.layout, pattern.Options{Colors: p.colors, Color: errorColor, Rand: p.rand})
	if err != nil || anim == nil {
		log.Printf("[Bling] Could not set up error pattern: %v", err)
		return ""
	}
	fps, _ := pat.FramesPerSecond(pattern.Fast)
	if err := p.runner.Run(anim, fps); err != nil {
		log.Printf("[Bling] Could not run error pattern: %v", err)
		return ""
	}
	return pat.Name()
}

// Stop halts the current animation, blanks the strip and restores the configured
// brightness.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasRunning := p.running != ""
	p.stopLocked()
	p.metrics.SetActivePattern("")
	if wasRunning {
		p.bus.Publish(core.Event{
			Type:    core.PatternChangedEvent,
			Payload: core.PatternChange{Status: string(StatusOK)},
		})
	}
}

func (p *Processor) stopLocked() {
	p.runner.Stop()
	if err := p.runner.Blank(p.brightness); err != nil {
		log.Printf("[Bling] Failed to blank strip: %v", err)
	}
	p.running = ""
}

// SetBrightness changes the configured strip brightness.
func (p *Processor) SetBrightness(level int) error {
	if level < 0 || level > 255 {
		return fmt.Errorf("%w: %d, must be 0-255", ErrInvalidBrightness, level)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.brightness = uint8(level)
	p.layout.SetBrightness(p.brightness)
	if !p.runner.Running() {
		if err := p.layout.Update(); err != nil {
			log.Printf("[Bling] Failed to apply brightness: %v", err)
		}
	}
	p.metrics.SetBrightness(p.brightness)
	p.bus.Publish(core.Event{
		Type:    core.BrightnessChangedEvent,
		Payload: core.BrightnessChange{Level: p.brightness},
	})
	return nil
}

// Brightness returns the configured strip brightness.
func (p *Processor) Brightness() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.brightness
}

// Params returns the parameters of the last command in parse order, defaults first.
func (p *Processor) Params() []Param {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params.list()
}

// Running returns the name of the pattern on the strip, or "" when it is off.
func (p *Processor) Running() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// LastCommand returns the most recently processed command string.
func (p *Processor) LastCommand() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.command
}

// Frames is the number of animation frames flushed so far.
func (p *Processor) Frames() uint64 {
	return p.runner.Frames()
}

// NumLEDs is the strip length.
func (p *Processor) NumLEDs() int { return p.strip.NumLEDs() }

// NumSegments is the number of physical segments, zero when unsegmented.
func (p *Processor) NumSegments() int { return p.strip.NumSegments() }

// Patterns lists the selectable pattern names.
func (p *Processor) Patterns() []string { return p.patterns.Names() }

// Colors lists the colour set names.
func (p *Processor) Colors() []string { return p.colors.Names() }

// Segments lists the named segments.
func (p *Processor) Segments() []string { return p.strip.Segments() }
