package main

import (
	"fmt"
	"log"

	"bling-controller/internal/agent"
	"bling-controller/internal/bling"
	"bling-controller/internal/config"
	"bling-controller/internal/led"
)

// openLocal drives the configured strip directly, without the agent's servers.
func openLocal(cfg *config.Config) (*bling.Processor, func(), error) {
	transport, err := agent.OpenTransport(cfg.Strip)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s driver: %w", cfg.Strip.Driver, err)
	}
	brightness := uint8(cfg.BrightnessLevel())
	layout, err := led.NewBuffer(cfg.Strip.NumLEDs, brightness, transport)
	if err != nil {
		transport.Close()
		return nil, nil, err
	}
	p, err := bling.New(layout, bling.Options{
		Segments:    cfg.Strip.NumSegments,
		Brightness:  brightness,
		StopTimeout: cfg.StopTimeout(),
	})
	if err != nil {
		layout.Close()
		return nil, nil, err
	}

	closeFn := func() {
		p.Stop()
		if err := layout.Close(); err != nil {
			log.Printf("Failed to close strip: %v", err)
		}
	}
	return p, closeFn, nil
}
