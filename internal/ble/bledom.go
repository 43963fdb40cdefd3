// Package ble mirrors the strip onto a BLEDOM Bluetooth LED controller.
package ble

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"tinygo.org/x/bluetooth"
)

var (
	adapter = bluetooth.DefaultAdapter

	serviceUUIDStr        = "0000fff0-0000-1000-8000-00805f9b34fb"
	characteristicUUIDStr = "0000fff3-0000-1000-8000-00805f9b34fb"
	genericAccessUUIDStr  = "00001800-0000-1000-8000-00805f9b34fb"
	deviceNameUUIDStr     = "00002a00-0000-1000-8000-00805f9b34fb"
)

var errNoCharacteristic = errors.New("command characteristic not found")

// Config holds the connection settings.
type Config struct {
	DeviceNames       []string
	ScanTimeout       time.Duration
	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration
	RetryDelay        time.Duration
	RateLimit         float64
	RateBurst         int
}

// Controller manages the BLE connection and a rate-limited command queue.
type Controller struct {
	cfg                Config
	serviceUUID        bluetooth.UUID
	characteristicUUID bluetooth.UUID

	charMu         sync.RWMutex
	characteristic bluetooth.DeviceCharacteristic
	heartbeatChar  bluetooth.DeviceCharacteristic

	// disconnectChan is buffered so writers never block when signalling.
	disconnectChan chan struct{}
	commandChan    chan []byte
	limiter        *rate.Limiter
	dropLog        rate.Sometimes

	mirrorMu sync.Mutex
	mirror   mirror
}

// NewController creates a controller and starts its command writer.
func NewController(ctx context.Context, cfg Config) *Controller {
	serviceUUID, _ := bluetooth.ParseUUID(serviceUUIDStr)
	characteristicUUID, _ := bluetooth.ParseUUID(characteristicUUIDStr)

	c := &Controller{
		cfg:                cfg,
		serviceUUID:        serviceUUID,
		characteristicUUID: characteristicUUID,
		commandChan:        make(chan []byte, cfg.RateBurst*2),
		disconnectChan:     make(chan struct{}, 1),
		limiter:            rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		dropLog:            rate.Sometimes{Interval: 5 * time.Second},
	}
	c.mirror.write = c.Write

	go c.commandWriterLoop(ctx)
	return c
}

// Write queues a raw command, dropping it when the queue is full.
func (c *Controller) Write(payload []byte) {
	select {
	case c.commandChan <- payload:
	default:
		c.dropLog.Do(func() {
			log.Printf("[BLE] Command queue full, dropping command: %x", payload)
		})
	}
}

func (c *Controller) commandWriterLoop(ctx context.Context) {
	log.Println("[BLE] Command writer loop started")
	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-c.commandChan:
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}

			c.charMu.RLock()
			char := c.characteristic
			c.charMu.RUnlock()
			if char.UUID() == (bluetooth.UUID{}) {
				// not connected yet
				continue
			}

			if _, err := char.WriteWithoutResponse(payload); err != nil {
				log.Printf("[BLE] Write failed, assuming disconnected: %v", err)
				c.signalDisconnect()
			}
		}
	}
}

func (c *Controller) signalDisconnect() {
	select {
	case c.disconnectChan <- struct{}{}:
	default:
	}
}

func (c *Controller) setCharacteristics(cmd, heartbeat bluetooth.DeviceCharacteristic) {
	c.charMu.Lock()
	defer c.charMu.Unlock()
	c.characteristic = cmd
	c.heartbeatChar = heartbeat
}

// Run keeps a connection to the first matching device alive until ctx is cancelled.
// onStatusChange is called on every connect and disconnect.
func (c *Controller) Run(ctx context.Context, onStatusChange func(connected bool, rssi int16)) {
	onStatusChange(false, 0)

	for ctx.Err() == nil {
		if err := adapter.Enable(); err != nil {
			log.Printf("[BLE] Failed to enable adapter: %v", err)
			sleep(ctx, c.cfg.RetryDelay)
			continue
		}

		// drop stale disconnect signals from the previous session
		select {
		case <-c.disconnectChan:
		default:
		}
		c.setCharacteristics(bluetooth.DeviceCharacteristic{}, bluetooth.DeviceCharacteristic{})

		result, ok := c.scan(ctx)
		if !ok {
			sleep(ctx, c.cfg.RetryDelay)
			continue
		}

		device, err := c.connect(ctx, result)
		if err != nil {
			log.Printf("[BLE] Failed to connect: %v", err)
			onStatusChange(false, 0)
			sleep(ctx, c.cfg.RetryDelay)
			continue
		}
		log.Printf("[BLE] Connected to %s", result.LocalName())
		onStatusChange(true, result.RSSI)

		if err := c.discover(ctx, device); err != nil {
			log.Printf("[BLE] Service discovery failed: %v", err)
			device.Disconnect()
			onStatusChange(false, 0)
			sleep(ctx, c.cfg.RetryDelay)
			continue
		}
		log.Println("[BLE] Device is ready")

		c.mirrorMu.Lock()
		c.mirror.reset()
		c.mirrorMu.Unlock()

		c.hold(ctx)

		onStatusChange(false, 0)
		c.setCharacteristics(bluetooth.DeviceCharacteristic{}, bluetooth.DeviceCharacteristic{})
		if err := device.Disconnect(); err != nil {
			log.Printf("[BLE] Disconnect warning: %v", err)
		}
		sleep(ctx, c.cfg.RetryDelay)
	}
	log.Println("[BLE] Controller shutting down")
}

func (c *Controller) scan(ctx context.Context) (bluetooth.ScanResult, bool) {
	log.Println("[BLE] Scanning for device...")
	adapter.StopScan()

	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if slices.Contains(c.cfg.DeviceNames, result.LocalName()) {
				a.StopScan()
				select {
				case found <- result:
				default:
				}
			}
		})
		if err != nil {
			log.Printf("[BLE] Scan error: %v", err)
		}
	}()

	scanCtx, cancel := context.WithTimeout(ctx, c.cfg.ScanTimeout)
	defer cancel()
	select {
	case result := <-found:
		log.Printf("[BLE] Found device: %s (RSSI: %d)", result.LocalName(), result.RSSI)
		return result, true
	case <-scanCtx.Done():
		adapter.StopScan()
		log.Println("[BLE] Scan timed out or interrupted")
		return bluetooth.ScanResult{}, false
	}
}

// connect wraps adapter.Connect with a timeout; BlueZ occasionally never returns.
func (c *Controller) connect(ctx context.Context, result bluetooth.ScanResult) (bluetooth.Device, error) {
	type outcome struct {
		device bluetooth.Device
		err    error
	}
	done := make(chan outcome, 1)

	log.Printf("[BLE] Connecting to %s...", result.Address.String())
	go func() {
		d, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
		done <- outcome{d, err}
	}()

	select {
	case o := <-done:
		return o.device, o.err
	case <-time.After(c.cfg.ConnectTimeout):
		adapter.StopScan()
		return bluetooth.Device{}, errors.New("connection attempt timed out")
	case <-ctx.Done():
		return bluetooth.Device{}, ctx.Err()
	}
}

func (c *Controller) discover(ctx context.Context, device bluetooth.Device) error {
	done := make(chan error, 1)
	go func() {
		services, err := device.DiscoverServices([]bluetooth.UUID{c.serviceUUID})
		if err != nil || len(services) == 0 {
			done <- errors.Join(errNoCharacteristic, err)
			return
		}
		chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{c.characteristicUUID})
		if err != nil || len(chars) == 0 {
			done <- errors.Join(errNoCharacteristic, err)
			return
		}

		// The device name characteristic doubles as a cheap heartbeat read.
		var heartbeat bluetooth.DeviceCharacteristic
		gaUUID, _ := bluetooth.ParseUUID(genericAccessUUIDStr)
		nameUUID, _ := bluetooth.ParseUUID(deviceNameUUIDStr)
		if ga, _ := device.DiscoverServices([]bluetooth.UUID{gaUUID}); len(ga) > 0 {
			if hc, _ := ga[0].DiscoverCharacteristics([]bluetooth.UUID{nameUUID}); len(hc) > 0 {
				heartbeat = hc[0]
			}
		}
		c.setCharacteristics(chars[0], heartbeat)
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(c.cfg.ConnectTimeout):
		return errors.New("service discovery timed out")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// hold blocks until the link drops or ctx is cancelled, reading the heartbeat
// characteristic periodically to detect silent disconnects.
func (c *Controller) hold(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	buf := make([]byte, 20)

	for {
		select {
		case <-ticker.C:
			c.charMu.RLock()
			hb := c.heartbeatChar
			c.charMu.RUnlock()
			if hb.UUID() == (bluetooth.UUID{}) {
				continue
			}
			if _, err := hb.Read(buf); err != nil {
				log.Printf("[BLE] Heartbeat failed: %v", err)
				c.signalDisconnect()
			}
		case <-c.disconnectChan:
			log.Println("[BLE] Disconnection signal received, resetting connection")
			return
		case <-ctx.Done():
			log.Println("[BLE] Disconnecting due to shutdown")
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
