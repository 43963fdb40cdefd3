package pattern

import (
	"math"

	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

const (
	scannerTail      = 2
	searchlightTail  = 5
	rainbowIncrement = 4
	waveCycles       = 5
	waveSpeed        = 0.3 // radians per frame
)

// scanner is the Larson sweep: an eye with a fading tail bouncing between the ends of
// the window, drawn identically in every segment.
type scanner struct {
	layout led.Driver
	proj   projector
	b      *bouncer
	tail   int
	next   func() color.RGB
}

func (s *scanner) Step() {
	s.layout.AllOff()
	drawEye(s.proj.set, s.b.pos(), s.next(), s.tail)
	s.b.advance()
}

func newScanner(layout led.Driver, opts Options, next func() color.RGB) *scanner {
	proj := newProjector(layout, opts)
	return &scanner{
		layout: layout,
		proj:   proj,
		b:      newBouncer(proj.win),
		tail:   clampTail(scannerTail, proj.win.size()),
		next:   next,
	}
}

func setupScanner(layout led.Driver, opts Options) (Animation, error) {
	c := opts.registry().ResolveFirst(opts.Color)
	return newScanner(layout, opts, func() color.RGB { return c }), nil
}

// paletteWalker steps through a palette by a fixed increment, skipping the last entry
// so the walk never lands on the wrap-around seam.
type paletteWalker struct {
	palette color.Palette
	inc     int
	idx     int
}

func (w *paletteWalker) next() color.RGB {
	w.idx = mod(w.idx+w.inc, w.palette.Len()-1)
	return w.palette.At(w.idx)
}

func setupRainbowScanner(layout led.Driver, opts Options) (Animation, error) {
	w := &paletteWalker{palette: color.RainbowPalette(), inc: rainbowIncrement}
	return newScanner(layout, opts, w.next), nil
}

// searchLights runs one independent eye per colour, each starting at a random
// position, blending where they cross.
type searchLights struct {
	layout led.Driver
	win    span
	colors []color.RGB
	eyes   []*bouncer
	tail   int
	frame  []color.RGB
}

func (s *searchLights) Step() {
	if s.win.empty() {
		return
	}
	clear(s.frame)
	blend := func(i int, c color.RGB) {
		if i < s.win.lo || i > s.win.hi {
			return
		}
		s.frame[i-s.win.lo] = s.frame[i-s.win.lo].Add(c)
	}
	for k, eye := range s.eyes {
		drawEye(blend, eye.pos(), s.colors[k], s.tail)
		eye.advance()
	}
	for i, c := range s.frame {
		s.layout.Set(s.win.lo+i, c)
	}
}

func setupSearchLights(layout led.Driver, opts Options) (Animation, error) {
	win := activeSpan(layout, opts)
	colors := opts.registry().Resolve(opts.Color)
	rng := opts.rng()

	s := &searchLights{
		layout: layout,
		win:    win,
		colors: colors,
		tail:   clampTail(searchlightTail, win.size()),
		frame:  make([]color.RGB, max(win.size(), 0)),
	}
	for range colors {
		eye := newBouncer(win)
		if win.size() > 0 {
			eye.step = rng.IntN(win.size())
		}
		s.eyes = append(s.eyes, eye)
	}
	return s, nil
}

// wave runs a sine band per colour, each with its own phase and alternate colours
// travelling in opposite directions.
type wave struct {
	layout led.Driver
	win    span
	colors []color.RGB
	step   int
}

func (w *wave) Step() {
	size := w.win.size()
	for i := 0; i < size; i++ {
		var px color.RGB
		for k, c := range w.colors {
			dir := 1.0
			if k%2 == 1 {
				dir = -1.0
			}
			theta := 2*math.Pi*waveCycles*float64(i)/float64(size) -
				dir*float64(w.step)*waveSpeed +
				2*math.Pi*float64(k)/float64(len(w.colors))
			level := (math.Sin(theta) + 1) / 2
			px = px.Add(c.Scale(uint8(level * 255)))
		}
		w.layout.Set(w.win.lo+i, px)
	}
	w.step++
}

func setupWave(layout led.Driver, opts Options) (Animation, error) {
	return &wave{layout: layout, win: activeSpan(layout, opts), colors: opts.registry().Resolve(opts.Color)}, nil
}
