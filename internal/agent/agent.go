// Package agent wires the command processor to its inputs (web, MQTT, schedules,
// scripts) and its outputs (LED transports, BLE mirror, status fan-out).
package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"bling-controller/internal/ble"
	"bling-controller/internal/bling"
	"bling-controller/internal/config"
	"bling-controller/internal/core"
	"bling-controller/internal/led"
	"bling-controller/internal/lua"
	"bling-controller/internal/metrics"
	"bling-controller/internal/mqtt"
	"bling-controller/internal/scheduler"
	"bling-controller/internal/server"
)

type Agent struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config
	wg     sync.WaitGroup

	state          *core.State
	eventBus       *core.EventBus
	commandChannel core.CommandChannel
	metrics        *metrics.Metrics

	layout        *led.Buffer
	processor     *bling.Processor
	bleController *ble.Controller
	luaEngine     *lua.Engine
	scheduler     *scheduler.Scheduler
	server        *server.Server
	mqttClient    *mqtt.Client
}

// NewAgent opens the strip and builds every component. Nothing runs until Run.
func NewAgent(cfg *config.Config) (*Agent, error) {
	transport, err := OpenTransport(cfg.Strip)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s driver: %w", cfg.Strip.Driver, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &Agent{
		ctx:            ctx,
		cancel:         cancel,
		config:         cfg,
		state:          core.NewState(),
		eventBus:       core.NewEventBus(),
		commandChannel: make(core.CommandChannel, 20),
		metrics:        metrics.New(),
	}

	if cfg.BLEEnabled() {
		scan, connect, heartbeat, retry := cfg.BLEDurations()
		a.bleController = ble.NewController(ctx, ble.Config{
			DeviceNames:       cfg.BLE.DeviceNames,
			ScanTimeout:       scan,
			ConnectTimeout:    connect,
			HeartbeatInterval: heartbeat,
			RetryDelay:        retry,
			RateLimit:         cfg.BLE.RateLimit,
			RateBurst:         cfg.BLE.RateBurst,
		})
		transport = led.Multi{transport, a.bleController}
	}

	brightness := uint8(cfg.BrightnessLevel())
	a.layout, err = led.NewBuffer(cfg.Strip.NumLEDs, brightness, transport)
	if err != nil {
		cancel()
		transport.Close()
		return nil, err
	}

	a.processor, err = bling.New(a.layout, bling.Options{
		Segments:    cfg.Strip.NumSegments,
		Brightness:  brightness,
		StopTimeout: cfg.StopTimeout(),
		EventBus:    a.eventBus,
		Metrics:     a.metrics,
	})
	if err != nil {
		cancel()
		a.layout.Close()
		return nil, err
	}
	a.state.SetBrightness(int(brightness))

	a.luaEngine = lua.NewEngine(a.processor, cfg.ScriptsDir, a.eventBus)
	a.scheduler = scheduler.NewScheduler(a.commandChannel, cfg.SchedulesFile)

	opts := server.Options{
		Port:           cfg.Server.Port,
		StaticFilesDir: cfg.Server.WebFilesDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Commands:       a.commandChannel,
		Status:         a.status,
		Patterns:       a.processor.Patterns,
		Colors:         a.processor.Colors,
		Segments:       a.processor.Segments,
		Schedules:      func() any { return a.scheduler.Entries() },
		Scripts:        a.luaEngine.Scripts,
	}
	if cfg.Server.MetricsEnabled {
		opts.Metrics = a.metrics.Handler()
	}
	a.server = server.NewServer(opts)

	a.mqttClient = mqtt.NewClient(cfg.MQTT, a.commandChannel, a.processor.Patterns)

	return a, nil
}

// Run starts every component and serves commands until Shutdown.
func (a *Agent) Run() {
	sub := a.eventBus.Subscribe(eventTypes...)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.listenEvents(sub)
	}()

	if a.mqttClient != nil {
		go func() {
			if err := a.mqttClient.Connect(); err != nil {
				log.Printf("[Agent] MQTT Setup Error: %v", err)
			}
		}()
	}

	if a.bleController != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.bleController.Run(a.ctx, a.onConnectionChange)
		}()
	}

	if err := a.luaEngine.Watch(a.ctx, func(scripts []string) {
		a.server.Hub.Broadcast(server.NewMessage("script_list", scripts))
	}); err != nil {
		log.Printf("[Agent] Not watching scripts directory: %v", err)
	}

	a.scheduler.Start()

	log.Printf("[Agent] Running on http://localhost:%s", a.config.Server.Port)
	go func() {
		if err := a.server.ListenAndServe(); err != nil {
			log.Printf("[Agent] Server error: %v", err)
		}
	}()

	log.Println("[Agent] Orchestrator ready")
	for {
		select {
		case <-a.ctx.Done():
			log.Println("[Agent] Orchestrator shutting down...")
			return
		case cmd := <-a.commandChannel:
			a.handleCommand(cmd)
		}
	}
}

var eventTypes = []core.EventType{
	core.PatternChangedEvent,
	core.BrightnessChangedEvent,
	core.DeviceConnectedEvent,
	core.ScriptChangedEvent,
	core.ScheduleChangedEvent,
}

func (a *Agent) onConnectionChange(connected bool, rssi int16) {
	a.eventBus.Publish(core.Event{
		Type:    core.DeviceConnectedEvent,
		Payload: core.ConnectionChange{Connected: connected, RSSI: rssi},
	})
}

// listenEvents keeps State current and fans every change out to WebSocket and MQTT.
func (a *Agent) listenEvents(sub core.Subscriber) {
	defer a.eventBus.Unsubscribe(sub, eventTypes...)

	for {
		select {
		case <-a.ctx.Done():
			return
		case event := <-sub:
			a.handleEvent(event)
		}
	}
}

func (a *Agent) handleEvent(event core.Event) {
	switch payload := event.Payload.(type) {
	case core.PatternChange:
		a.state.SetPattern(payload.Pattern, payload.Command, payload.Status)
		a.server.Hub.Broadcast(server.NewMessage("pattern_status", map[string]string{
			"running": payload.Pattern,
			"command": payload.Command,
			"status":  payload.Status,
		}))
		a.mqttClient.PublishPattern(payload)

	case core.BrightnessChange:
		a.state.SetBrightness(int(payload.Level))
		a.server.Hub.Broadcast(server.NewMessage("brightness_update", map[string]int{"value": int(payload.Level)}))
		a.mqttClient.PublishBrightness(payload.Level)

	case core.ConnectionChange:
		wasConnected := a.state.Clone().IsConnected
		a.state.SetConnection(payload.Connected, payload.RSSI)
		a.server.Hub.Broadcast(server.NewMessage("ble_status", map[string]any{
			"connected": payload.Connected,
			"rssi":      payload.RSSI,
		}))
		a.mqttClient.PublishConnection(payload.Connected)

		if !wasConnected && payload.Connected && len(a.config.BLE.RgbOrder) == 3 {
			order := a.config.BLE.RgbOrder
			a.enqueue(core.Command{Type: core.CmdSetRgbOrder, Payload: map[string]any{
				"v1": order[0], "v2": order[1], "v3": order[2],
			}})
		}

	case core.ScriptChange:
		a.state.SetRunningScript(payload.Name)
		a.server.Hub.Broadcast(server.NewMessage("script_status", map[string]string{"running": payload.Name}))

	default:
		if event.Type == core.ScheduleChangedEvent {
			a.server.Hub.Broadcast(server.NewMessage("schedule_list", a.scheduler.Entries()))
		}
	}
}

func (a *Agent) enqueue(cmd core.Command) {
	select {
	case a.commandChannel <- cmd:
	default:
		log.Printf("[Agent] Command queue full, dropping %s", cmd.Type)
	}
}

func (a *Agent) status() server.Status {
	st := a.state.Clone()
	return server.Status{
		NumLEDs:     a.processor.NumLEDs(),
		NumSegments: a.processor.NumSegments(),
		Brightness:  int(a.processor.Brightness()),
		Pattern:     a.processor.Running(),
		Command:     a.processor.LastCommand(),
		Status:      st.LastStatus,
		Script:      a.luaEngine.Running(),
		Connected:   st.IsConnected,
		RSSI:        st.RSSI,
		Frames:      a.processor.Frames(),
	}
}

// Shutdown stops every component and blanks the strip.
func (a *Agent) Shutdown() {
	a.scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		log.Printf("[Agent] Server shutdown: %v", err)
	}

	a.mqttClient.Disconnect()
	a.luaEngine.StopWait()
	a.processor.Stop()

	a.cancel()
	a.wg.Wait()

	if err := a.layout.Close(); err != nil {
		log.Printf("[Agent] Failed to close strip: %v", err)
	}
}
