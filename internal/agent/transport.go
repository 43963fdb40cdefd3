package agent

import (
	"fmt"

	"bling-controller/internal/config"
	"bling-controller/internal/led"
)

// OpenTransport opens the frame output selected by the strip's driver. The BLE mirror
// is added separately by the agent since it needs the connection manager.
func OpenTransport(cfg config.StripConfig) (led.Transport, error) {
	switch cfg.Driver {
	case config.DriverMemory, config.DriverBLE:
		return led.NewMemory(), nil
	case config.DriverLPD8806:
		order, err := led.ParseChannelOrder(cfg.ChannelOrder)
		if err != nil {
			return nil, err
		}
		spi, err := led.OpenLPD8806(cfg.Device, order)
		if err != nil {
			return nil, err
		}
		return spi, nil
	case config.DriverTerminal:
		term, err := led.NewTerminal()
		if err != nil {
			return nil, err
		}
		return term, nil
	}
	return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
}
