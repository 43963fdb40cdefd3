package ble

import (
	"bling-controller/internal/color"
	"bling-controller/internal/led"
)

// mirror reduces strip frames to the single colour a BLEDOM controller can show and
// emits only the commands needed to move the device to that state.
type mirror struct {
	write func([]byte)

	synced  bool
	on      bool
	color   color.RGB
	percent int
}

// average is the mean of the lit pixels; ok is false when every pixel is dark.
func average(pixels []color.RGB) (c color.RGB, ok bool) {
	var r, g, b, n int
	for _, p := range pixels {
		if p.IsOff() {
			continue
		}
		r += int(p.R)
		g += int(p.G)
		b += int(p.B)
		n++
	}
	if n == 0 {
		return color.RGB{}, false
	}
	return color.RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}, true
}

func (m *mirror) render(pixels []color.RGB, brightness uint8) {
	avg, lit := average(pixels)
	if !lit {
		if !m.synced || m.on {
			m.write(PowerCommand(false))
			m.on = false
			m.synced = true
		}
		return
	}

	if !m.synced || !m.on {
		m.write(PowerCommand(true))
		m.on = true
	}
	if !m.synced || avg != m.color {
		m.write(ColorCommand(avg))
		m.color = avg
	}
	percent := int(brightness) * 100 / 255
	if !m.synced || percent != m.percent {
		m.write(BrightnessCommand(percent))
		m.percent = percent
	}
	m.synced = true
}

// reset forces the next frame to resend the full state, e.g. after a reconnect.
func (m *mirror) reset() {
	m.synced = false
}

var _ led.Transport = (*Controller)(nil)

// Render mirrors a strip frame onto the BLE controller.
func (c *Controller) Render(pixels []color.RGB, brightness uint8) error {
	c.mirrorMu.Lock()
	defer c.mirrorMu.Unlock()
	c.mirror.render(pixels, brightness)
	return nil
}

// Close turns the mirrored output off.
func (c *Controller) Close() error {
	c.Write(PowerCommand(false))
	return nil
}
