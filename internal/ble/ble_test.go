package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bling-controller/internal/color"
)

func TestCommandEncoding(t *testing.T) {
	assert.Equal(t, []byte{0x7E, 0x04, 0x04, 0x01, 0x00, 0x01, 0xFF, 0x00, 0xEF}, PowerCommand(true))
	assert.Equal(t, []byte{0x7E, 0x04, 0x04, 0x00, 0x00, 0x00, 0xFF, 0x00, 0xEF}, PowerCommand(false))
	assert.Equal(t, []byte{0x7E, 0x07, 0x05, 0x03, 0x01, 0x02, 0x03, 0x10, 0xEF}, ColorCommand(color.RGB{R: 1, G: 2, B: 3}))
	assert.Equal(t, byte(100), BrightnessCommand(250)[3])
	assert.Equal(t, byte(0), BrightnessCommand(-5)[3])
	assert.Equal(t, []byte{0x7E, 0x06, 0x81, 0x02, 0x01, 0x03, 0xFF, 0x00, 0xEF}, RgbOrderCommand(2, 1, 3))
}

func TestAverageIgnoresDarkPixels(t *testing.T) {
	c, ok := average([]color.RGB{{}, {R: 200}, {}, {R: 100, B: 50}})
	assert.True(t, ok)
	assert.Equal(t, color.RGB{R: 150, B: 25}, c)

	_, ok = average(make([]color.RGB, 4))
	assert.False(t, ok)
}

type recorder struct {
	sent [][]byte
}

func (r *recorder) write(b []byte) { r.sent = append(r.sent, b) }

func TestMirrorSendsOnlyChanges(t *testing.T) {
	rec := &recorder{}
	m := &mirror{write: rec.write}
	red := []color.RGB{color.Red, color.Red}

	m.render(red, 255)
	assert.Equal(t, [][]byte{PowerCommand(true), ColorCommand(color.Red), BrightnessCommand(100)}, rec.sent)

	rec.sent = nil
	m.render(red, 255)
	assert.Empty(t, rec.sent)

	m.render([]color.RGB{color.Blue, color.Blue}, 255)
	assert.Equal(t, [][]byte{ColorCommand(color.Blue)}, rec.sent)

	rec.sent = nil
	m.render(make([]color.RGB, 2), 255)
	m.render(make([]color.RGB, 2), 255)
	assert.Equal(t, [][]byte{PowerCommand(false)}, rec.sent)

	rec.sent = nil
	m.render([]color.RGB{color.Blue, color.Blue}, 51)
	assert.Equal(t, [][]byte{PowerCommand(true), BrightnessCommand(20)}, rec.sent)
}

func TestMirrorResetResendsState(t *testing.T) {
	rec := &recorder{}
	m := &mirror{write: rec.write}
	m.render([]color.RGB{color.Green}, 255)

	rec.sent = nil
	m.reset()
	m.render([]color.RGB{color.Green}, 255)
	assert.Len(t, rec.sent, 3)
}
