package led

import (
	"errors"
	"sync"

	"bling-controller/internal/color"
)

// Memory is a Transport that keeps the most recent frame in memory. It backs dry runs
// and tests.
type Memory struct {
	mu         sync.Mutex
	last       []color.RGB
	brightness uint8
	renders    int
	failWith   error
}

// NewMemory returns an empty in-memory transport.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Render(pixels []color.RGB, brightness uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.last = append(m.last[:0], pixels...)
	m.brightness = brightness
	m.renders++
	return nil
}

func (m *Memory) Close() error { return nil }

// Last returns a copy of the last rendered frame.
func (m *Memory) Last() []color.RGB {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]color.RGB, len(m.last))
	copy(out, m.last)
	return out
}

// LastBrightness returns the brightness of the last rendered frame.
func (m *Memory) LastBrightness() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brightness
}

// Renders returns how many frames have been rendered.
func (m *Memory) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders
}

// FailWith makes subsequent renders return err; nil restores normal behaviour.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

// Multi fans every frame out to several transports.
type Multi []Transport

func (m Multi) Render(pixels []color.RGB, brightness uint8) error {
	var errs []error
	for _, t := range m {
		if err := t.Render(pixels, brightness); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
