package pattern

import (
	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

// span is an inclusive LED window. size() is zero or negative when it is empty.
type span struct {
	lo, hi int
}

func (s span) size() int { return s.hi - s.lo + 1 }

func (s span) empty() bool { return s.hi < s.lo }

// activeSpan clips the requested window to the strip.
func activeSpan(layout led.Driver, opts Options) span {
	return span{lo: max(opts.MinLED, 0), hi: min(opts.MaxLED, layout.NumLEDs()-1)}
}

// fullSpan covers the whole strip.
func fullSpan(layout led.Driver) span {
	return span{lo: 0, hi: layout.NumLEDs() - 1}
}

// projector writes positions relative to one virtual segment into every physical
// segment. Positions outside the virtual window are dropped, so nothing drawn for one
// segment can spill into its neighbour.
type projector struct {
	layout led.Driver
	count  int
	size   int
	win    span
}

// newProjector builds the projection for opts. Unsegmented requests get a single
// segment covering the strip with the active window as clip range; segmented requests
// scale the window into one segment and repeat it, so RIGHT or Min=50 light the second
// half of every segment.
func newProjector(layout led.Driver, opts Options) projector {
	if opts.Segments <= 0 {
		return projector{layout: layout, count: 1, size: layout.NumLEDs(), win: activeSpan(layout, opts)}
	}
	size := opts.SegmentSize
	if size <= 0 {
		size = layout.NumLEDs() / opts.Segments
	}
	return projector{
		layout: layout,
		count:  opts.Segments,
		size:   size,
		win:    scaleSpan(activeSpan(layout, opts), layout.NumLEDs(), size),
	}
}

// scaleSpan maps a window over a strip of n LEDs onto a segment of size LEDs. A
// non-empty window always keeps at least one LED.
func scaleSpan(s span, n, size int) span {
	if s.empty() || n <= 0 || size <= 0 {
		return span{lo: 0, hi: -1}
	}
	return span{lo: s.lo * size / n, hi: ((s.hi+1)*size - 1) / n}
}

func (p projector) set(rel int, c color.RGB) {
	if rel < p.win.lo || rel > p.win.hi {
		return
	}
	for j := 0; j < p.count; j++ {
		p.layout.Set(j*p.size+rel, c)
	}
}

// clear blanks the window in every segment.
func (p projector) clear() {
	if p.win.empty() {
		return
	}
	for j := 0; j < p.count; j++ {
		base := j * p.size
		p.layout.Fill(color.Black, base+p.win.lo, base+p.win.hi)
	}
}

// bouncer walks a position back and forth between lo and hi.
type bouncer struct {
	lo, hi int
	step   int
	dir    int
}

func newBouncer(s span) *bouncer {
	return &bouncer{lo: s.lo, hi: s.hi, dir: -1}
}

func (b *bouncer) pos() int { return b.lo + b.step }

func (b *bouncer) advance() {
	if b.hi <= b.lo {
		b.step = 0
		return
	}
	if b.lo+b.step >= b.hi {
		b.dir = -1
	} else if b.step <= 0 {
		b.dir = 1
	}
	b.step += b.dir
}

// wrap advances a progressive-fill counter and restarts it once it runs off the end
// of a window of the given size, carrying the overflow.
func wrap(step, amt, size int) int {
	step += amt
	if size <= 0 {
		return 0
	}
	if overflow := step - size; overflow >= 0 {
		return overflow % size
	}
	return step
}

// mod is the non-negative remainder.
func mod(a, n int) int {
	if n == 0 {
		return 0
	}
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

// clampTail limits a sweep tail so the lit eye never covers more than half the window.
// It returns the tail length counting the lead pixel, at least 1.
func clampTail(tail, size int) int {
	t := tail + 1
	if t >= size/2 {
		t = size/2 - 1
	}
	if t < 1 {
		t = 1
	}
	return t
}

// drawEye draws a lead pixel and a symmetric fading tail of t-1 pixels each side.
func drawEye(set func(int, color.RGB), lead int, c color.RGB, t int) {
	set(lead, c)
	fade := 256 / t
	for i := 1; i < t; i++ {
		c2 := c.Scale(uint8(255 - fade*i))
		set(lead-i, c2)
		set(lead+i, c2)
	}
}
