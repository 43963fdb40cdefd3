// Package led provides the shared LED frame buffer patterns draw into and the
// transports that push finished frames to hardware.
package led

import (
	"fmt"
	"sync"

	"bling-controller/internal/color"
)

// Driver is the drawing surface a pattern writes to.
type Driver interface {
	// NumLEDs returns the number of addressable LEDs.
	NumLEDs() int
	// Set colours one LED. Indexes outside the strip are ignored.
	Set(index int, c color.RGB)
	// Fill colours every LED from start to end inclusive, clamped to the strip.
	Fill(c color.RGB, start, end int)
	// AllOff blanks the whole buffer.
	AllOff()
	// Update flushes the buffer to the hardware.
	Update() error
	// SetBrightness sets the global brightness applied on Update.
	SetBrightness(level uint8)
	// Brightness returns the current global brightness.
	Brightness() uint8
}

// Transport receives complete frames from a Buffer.
type Transport interface {
	Render(pixels []color.RGB, brightness uint8) error
	Close() error
}

// Buffer is the in-memory pixel buffer shared by all patterns.
type Buffer struct {
	mu         sync.Mutex
	pixels     []color.RGB
	brightness uint8
	transport  Transport
}

var _ Driver = (*Buffer)(nil)

// NewBuffer creates a blank buffer of numLEDs pixels over transport.
func NewBuffer(numLEDs int, brightness uint8, transport Transport) (*Buffer, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("invalid LED count %d", numLEDs)
	}
	if transport == nil {
		transport = NewMemory()
	}
	return &Buffer{
		pixels:     make([]color.RGB, numLEDs),
		brightness: brightness,
		transport:  transport,
	}, nil
}

func (b *Buffer) NumLEDs() int {
	return len(b.pixels)
}

func (b *Buffer) Set(index int, c color.RGB) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.pixels) {
		return
	}
	b.pixels[index] = c
}

func (b *Buffer) Fill(c color.RGB, start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end >= len(b.pixels) {
		end = len(b.pixels) - 1
	}
	for i := start; i <= end; i++ {
		b.pixels[i] = c
	}
}

func (b *Buffer) AllOff() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.pixels)
}

// Update hands a copy of the current frame to the transport.
func (b *Buffer) Update() error {
	b.mu.Lock()
	frame := make([]color.RGB, len(b.pixels))
	copy(frame, b.pixels)
	level := b.brightness
	b.mu.Unlock()

	return b.transport.Render(frame, level)
}

func (b *Buffer) SetBrightness(level uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.brightness = level
}

func (b *Buffer) Brightness() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.brightness
}

// Snapshot returns a copy of the undimmed pixel values.
func (b *Buffer) Snapshot() []color.RGB {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]color.RGB, len(b.pixels))
	copy(out, b.pixels)
	return out
}

// Close releases the transport.
func (b *Buffer) Close() error {
	return b.transport.Close()
}

// Dim applies a global brightness to a frame, the way the strip hardware would see it.
func Dim(pixels []color.RGB, brightness uint8) []color.RGB {
	out := make([]color.RGB, len(pixels))
	for i, p := range pixels {
		if brightness == 255 {
			out[i] = p
			continue
		}
		out[i] = p.Scale(brightness)
	}
	return out
}
