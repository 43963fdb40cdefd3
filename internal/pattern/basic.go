package pattern

import (
	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

func setupSolid(layout led.Driver, opts Options) (Animation, error) {
	layout.Fill(opts.registry().ResolveFirst(opts.Color), opts.MinLED, opts.MaxLED)
	return nil, nil
}

// blink shows each colour of the set in turn with a dark frame between them.
type blink struct {
	layout led.Driver
	colors []color.RGB
	win    span
	step   int
}

func (b *blink) Step() {
	if b.step > len(b.colors)*2-1 {
		b.step = 0
	}
	if b.step%2 == 0 {
		b.layout.Fill(b.colors[b.step/2], b.win.lo, b.win.hi)
	} else {
		b.layout.Fill(color.Black, b.win.lo, b.win.hi)
	}
	b.step++
}

func setupBlink(layout led.Driver, opts Options) (Animation, error) {
	return &blink{layout: layout, colors: opts.registry().Resolve(opts.Color), win: activeSpan(layout, opts)}, nil
}

// setupError blinks the colour set over the whole strip, ignoring the window.
func setupError(layout led.Driver, opts Options) (Animation, error) {
	return &blink{layout: layout, colors: opts.registry().Resolve(opts.Color), win: fullSpan(layout)}, nil
}

// alternates paints two colours on alternating LEDs and swaps them every frame.
type alternates struct {
	layout   led.Driver
	c1, c2   color.RGB
	win      span
	positive bool
}

func (a *alternates) Step() {
	for i := a.win.lo; i <= a.win.hi; i++ {
		odd := (i-a.win.lo)%2 == 1
		if odd == a.positive {
			a.layout.Set(i, a.c1)
		} else {
			a.layout.Set(i, a.c2)
		}
	}
	a.positive = !a.positive
}

func setupAlternates(layout led.Driver, opts Options) (Animation, error) {
	colors := opts.registry().Resolve(opts.Color)
	if len(colors) < 2 {
		colors = append(colors, opts.registry().Resolve("YELLOW")...)
	}
	return &alternates{layout: layout, c1: colors[0], c2: colors[1], win: activeSpan(layout, opts), positive: true}, nil
}

const fadeLevelStep = 5

// colorFade ramps each colour of the set up to full and back down before moving on.
type colorFade struct {
	layout led.Driver
	colors []color.RGB
	levels []uint8
	win    span
	step   int
}

func (f *colorFade) Step() {
	n := len(f.levels)
	phase := f.step % (2 * n)
	c := f.colors[(f.step/(2*n))%len(f.colors)]

	level := f.levels[phase%n]
	if phase >= n {
		level = f.levels[2*n-1-phase]
	}
	f.layout.Fill(c.Scale(level), f.win.lo, f.win.hi)
	f.step = (f.step + 1) % (2 * n * len(f.colors))
}

func setupColorFade(layout led.Driver, opts Options) (Animation, error) {
	var levels []uint8
	for l := 0; l < 256; l += fadeLevelStep {
		levels = append(levels, uint8(l))
	}
	return &colorFade{
		layout: layout,
		colors: opts.registry().Resolve(opts.Color),
		levels: levels,
		win:    activeSpan(layout, opts),
	}, nil
}

// fireFlies lights random LEDs in random colours from the set each frame.
type fireFlies struct {
	layout  led.Driver
	colors  []color.RGB
	win     span
	density int
	pick    func(n int) int
}

func (f *fireFlies) Step() {
	for i := f.win.lo; i <= f.win.hi; i++ {
		if f.pick(f.density) == 0 {
			f.layout.Set(i, f.colors[f.pick(len(f.colors))])
		} else {
			f.layout.Set(i, color.Black)
		}
	}
}

func setupFireFlies(layout led.Driver, opts Options) (Animation, error) {
	return &fireFlies{
		layout:  layout,
		colors:  opts.registry().Resolve(opts.Color),
		win:     activeSpan(layout, opts),
		density: 8,
		pick:    opts.rng().IntN,
	}, nil
}

// pingPong bounces a single pixel between LED 0 and the window's upper bound.
type pingPong struct {
	layout led.Driver
	c      color.RGB
	b      *bouncer
}

func (p *pingPong) Step() {
	p.layout.Fill(color.Black, p.b.lo, p.b.hi)
	p.layout.Set(p.b.pos(), p.c)
	p.b.advance()
}

func setupPingPong(layout led.Driver, opts Options) (Animation, error) {
	win := span{lo: 0, hi: min(opts.MaxLED, layout.NumLEDs()-1)}
	return &pingPong{layout: layout, c: opts.registry().ResolveFirst(opts.Color), b: newBouncer(win)}, nil
}

// channelTest lights red, green, green, blue, blue, blue at the start of the strip and
// blinks the rest white. On a correctly configured strip the first LED is red.
type channelTest struct {
	layout led.Driver
	step   int
}

var channelTestHead = []color.RGB{color.Red, color.Green, color.Green, color.Blue, color.Blue, color.Blue}

func (c *channelTest) Step() {
	for i, px := range channelTestHead {
		c.layout.Set(i, px)
	}
	tail := color.White
	if c.step%2 == 1 {
		tail = color.Black
	}
	c.layout.Fill(tail, len(channelTestHead), c.layout.NumLEDs()-1)
	c.step++
}

func setupTest(layout led.Driver, _ Options) (Animation, error) {
	return &channelTest{layout: layout}, nil
}
