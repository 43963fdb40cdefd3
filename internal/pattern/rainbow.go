package pattern

import (
	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

// rainbow spreads the hue wheel over the window one wheel step per LED and rotates it a
// step per frame.
type rainbow struct {
	proj projector
	step int
}

func (r *rainbow) Step() {
	for rel := r.proj.win.lo; rel <= r.proj.win.hi; rel++ {
		r.proj.set(rel, color.Wheel(rel-r.proj.win.lo+r.step))
	}
	r.step = mod(r.step+1, color.WheelSize)
}

func setupRainbow(layout led.Driver, opts Options) (Animation, error) {
	return &rainbow{proj: newProjector(layout, opts)}, nil
}

// rainbowCycle stretches one full turn of the wheel across the window.
type rainbowCycle struct {
	layout led.Driver
	win    span
	step   int
}

func (r *rainbowCycle) Step() {
	size := r.win.size()
	for i := 0; i < size; i++ {
		r.layout.Set(r.win.lo+i, color.Wheel(i*color.WheelSize/size+r.step))
	}
	r.step = mod(r.step+1, color.WheelSize)
}

func setupRainbowCycle(layout led.Driver, opts Options) (Animation, error) {
	return &rainbowCycle{layout: layout, win: activeSpan(layout, opts)}, nil
}

// rainbowHalves paints a mirrored pair of pixels each frame, moving out from the centre
// of the window (or in from both ends) and taking a new palette colour every frame.
type rainbowHalves struct {
	layout    led.Driver
	win       span
	palette   color.Palette
	centerOut bool
	current   int
	step      int
}

func (r *rainbowHalves) Reset() {
	r.current = 0
	r.step = 0
}

func (r *rainbowHalves) Step() {
	if r.win.empty() {
		return
	}
	c := r.palette.At(r.step)
	// Floor and ceiling of the window midpoint; equal for an odd-sized window.
	lo := r.win.lo + (r.win.size()-1)/2
	hi := r.win.lo + r.win.size()/2
	if r.centerOut {
		r.layout.Set(lo-r.current, c)
		r.layout.Set(hi+r.current, c)
	} else {
		r.layout.Set(r.win.lo+r.current, c)
		r.layout.Set(r.win.hi-r.current, c)
	}
	r.step += 1 + rainbowIncrement
	if r.win.lo+r.current >= lo {
		r.current = 0
	} else {
		r.current++
	}
}

func setupRainbowHalves(layout led.Driver, opts Options) (Animation, error) {
	return &rainbowHalves{
		layout:    layout,
		win:       activeSpan(layout, opts),
		palette:   color.RainbowPalette(),
		centerOut: true,
	}, nil
}

// linearRainbow walks a cursor along the window. With individualPixel set only the
// cursor pixel is recoloured each frame; otherwise the whole prefix up to the cursor is
// repainted in the current wheel colour.
type linearRainbow struct {
	proj            projector
	individualPixel bool
	current         int
	step            int
}

func (l *linearRainbow) Reset() {
	l.current = 0
	l.step = 0
}

func (l *linearRainbow) Step() {
	win := l.proj.win
	if win.empty() {
		return
	}
	c := color.Wheel(l.step)
	if l.individualPixel {
		l.proj.set(win.lo+l.current, c)
	} else {
		for rel := win.lo; rel <= win.lo+l.current; rel++ {
			l.proj.set(rel, c)
		}
	}
	l.step = mod(l.step+1, color.WheelSize)
	l.current = wrap(l.current, 1, win.size())
}

func setupLinearRainbow(layout led.Driver, opts Options) (Animation, error) {
	return &linearRainbow{proj: newProjector(layout, opts), individualPixel: true}, nil
}
