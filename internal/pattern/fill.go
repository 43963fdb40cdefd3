package pattern

import (
	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

const defaultWidth = 3

// colorChase moves a block of width LEDs along the window, wrapping at the end.
type colorChase struct {
	proj  projector
	c     color.RGB
	width int
	step  int
}

func (c *colorChase) Step() {
	c.proj.clear()
	size := c.proj.win.size()
	if size <= 0 {
		return
	}
	for i := 0; i < c.width; i++ {
		c.proj.set(c.proj.win.lo+mod(c.step+i, size), c.c)
	}
	c.step = wrap(c.step, 1, size)
}

func setupColorChase(layout led.Driver, opts Options) (Animation, error) {
	return &colorChase{
		proj:  newProjector(layout, opts),
		c:     opts.registry().ResolveFirst(opts.Color),
		width: defaultWidth,
	}, nil
}

// colorWipe fills the window one LED per frame, then blanks it and starts again.
type colorWipe struct {
	proj projector
	c    color.RGB
	step int
}

func (w *colorWipe) Step() {
	size := w.proj.win.size()
	if size <= 0 {
		return
	}
	if w.step == 0 {
		w.proj.clear()
	}
	w.proj.set(w.proj.win.lo+w.step, w.c)
	w.step = wrap(w.step, 1, size)
}

func setupColorWipe(layout led.Driver, opts Options) (Animation, error) {
	return &colorWipe{proj: newProjector(layout, opts), c: opts.registry().ResolveFirst(opts.Color)}, nil
}

// colorPattern paints repeating bands of width LEDs per colour and scrolls them.
type colorPattern struct {
	proj   projector
	colors []color.RGB
	width  int
	dir    int
	step   int
}

func (p *colorPattern) Step() {
	total := p.width * len(p.colors)
	for i := 0; i < p.proj.win.size(); i++ {
		idx := mod(i+p.step, total) / p.width
		p.proj.set(p.proj.win.lo+i, p.colors[idx])
	}
	p.step += p.dir
}

func setupColorPattern(layout led.Driver, opts Options) (Animation, error) {
	return &colorPattern{
		proj:   newProjector(layout, opts),
		colors: opts.registry().Resolve(opts.Color),
		width:  defaultWidth,
		dir:    1,
	}, nil
}
