package ble

import "bling-controller/internal/color"

// BLEDOM frames are nine bytes framed by 0x7E ... 0xEF.

// PowerCommand switches the controller output on or off.
func PowerCommand(on bool) []byte {
	var val byte
	if on {
		val = 0x01
	}
	return []byte{0x7E, 0x04, 0x04, val, 0x00, val, 0xFF, 0x00, 0xEF}
}

// ColorCommand sets a static colour.
func ColorCommand(c color.RGB) []byte {
	return []byte{0x7E, 0x07, 0x05, 0x03, c.R, c.G, c.B, 0x10, 0xEF}
}

// BrightnessCommand sets the output level in percent, clamped to 0-100.
func BrightnessCommand(percent int) []byte {
	percent = max(0, min(percent, 100))
	return []byte{0x7E, 0x04, 0x01, byte(percent), 0xFF, 0xFF, 0xFF, 0x00, 0xEF}
}

// RgbOrderCommand sets the controller's wire order. Each value is 1, 2 or 3 naming the
// output pin for red, green and blue.
func RgbOrderCommand(v1, v2, v3 int) []byte {
	return []byte{0x7E, 0x06, 0x81, byte(v1), byte(v2), byte(v3), 0xFF, 0x00, 0xEF}
}

// SetPower sends PowerCommand.
func (c *Controller) SetPower(on bool) {
	c.Write(PowerCommand(on))
}

// SetColor sends ColorCommand.
func (c *Controller) SetColor(rgb color.RGB) {
	c.Write(ColorCommand(rgb))
}

// SetBrightness sends BrightnessCommand.
func (c *Controller) SetBrightness(percent int) {
	c.Write(BrightnessCommand(percent))
}

// SetRgbOrder sends RgbOrderCommand.
func (c *Controller) SetRgbOrder(v1, v2, v3 int) {
	c.Write(RgbOrderCommand(v1, v2, v3))
}
