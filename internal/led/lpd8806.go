package led

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/rpi"

	"bling-controller/internal/color"
)

// LPD8806SpeedHz is the SPI clock used for LPD8806 strips.
const LPD8806SpeedHz = 2000000

// ChannelOrder is the order in which a strip expects the colour channels on the wire.
// The Test pattern exists to find the right value for a given strip.
type ChannelOrder [3]int

var channelOrders = map[string]ChannelOrder{
	"RGB": {0, 1, 2},
	"RBG": {0, 2, 1},
	"GRB": {1, 0, 2},
	"GBR": {1, 2, 0},
	"BRG": {2, 0, 1},
	"BGR": {2, 1, 0},
}

// ParseChannelOrder parses names such as "GRB".
func ParseChannelOrder(name string) (ChannelOrder, error) {
	o, ok := channelOrders[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return ChannelOrder{}, fmt.Errorf("unknown channel order %q", name)
	}
	return o, nil
}

func (o ChannelOrder) apply(c color.RGB) [3]byte {
	ch := [3]byte{c.R, c.G, c.B}
	return [3]byte{ch[o[0]], ch[o[1]], ch[o[2]]}
}

// LPD8806 drives an LPD8806 strip over a SPI bus.
type LPD8806 struct {
	mu      sync.Mutex
	w       io.WriteCloser
	order   ChannelOrder
	buf     []byte
	release func() error
}

// OpenLPD8806 opens the SPI bus named by device (for example /dev/spidev0.0) in mode 0
// with 8 bits per word.
func OpenLPD8806(device string, order ChannelOrder) (*LPD8806, error) {
	channel, err := SPIChannel(device)
	if err != nil {
		return nil, err
	}
	if err := embd.InitSPI(); err != nil {
		return nil, fmt.Errorf("failed to initialise SPI for '%s': %w", device, err)
	}
	bus := embd.NewSPIBus(embd.SPIMode0, channel, LPD8806SpeedHz, 8, 0)
	l := NewLPD8806(bus, order)
	l.release = embd.CloseSPI
	return l, nil
}

// SPIChannel extracts the chip-select channel from a spidev node name such as
// /dev/spidev0.1.
func SPIChannel(device string) (byte, error) {
	name := filepath.Base(device)
	rest, ok := strings.CutPrefix(name, "spidev")
	if !ok {
		return 0, fmt.Errorf("invalid SPI device '%s': expected /dev/spidevB.C", device)
	}
	_, ch, ok := strings.Cut(rest, ".")
	if !ok {
		return 0, fmt.Errorf("invalid SPI device '%s': missing channel", device)
	}
	n, err := strconv.ParseUint(ch, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid SPI channel in '%s': %w", device, err)
	}
	return byte(n), nil
}

// NewLPD8806 wraps an already open bus.
func NewLPD8806(w io.WriteCloser, order ChannelOrder) *LPD8806 {
	return &LPD8806{w: w, order: order}
}

// Render encodes the frame as 7-bit channels with the high bit set, followed by the
// zero latch bytes the chip needs to start a new frame.
func (l *LPD8806) Render(pixels []color.RGB, brightness uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf = EncodeLPD8806(l.buf[:0], Dim(pixels, brightness), l.order)
	_, err := l.w.Write(l.buf)
	return err
}

func (l *LPD8806) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.w.Close()
	if l.release != nil {
		if rerr := l.release(); err == nil {
			err = rerr
		}
		l.release = nil
	}
	return err
}

// EncodeLPD8806 appends the wire encoding of pixels to dst.
func EncodeLPD8806(dst []byte, pixels []color.RGB, order ChannelOrder) []byte {
	for _, p := range pixels {
		ch := order.apply(p)
		dst = append(dst, 0x80|ch[0]>>1, 0x80|ch[1]>>1, 0x80|ch[2]>>1)
	}
	latch := (len(pixels) + 31) / 32
	for i := 0; i < latch; i++ {
		dst = append(dst, 0x00)
	}
	return dst
}
