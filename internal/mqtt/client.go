// Package mqtt accepts bling commands over MQTT, publishes strip state and announces the
// strip to Home Assistant.
package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"bling-controller/internal/config"
	"bling-controller/internal/core"
)

// Payloads the Home Assistant light sends on the command topic.
const (
	payloadOn  = "Pattern=Solid,Color=WHITE"
	payloadOff = "OFF"
)

// Client wraps a paho client. A nil *Client is valid and does nothing.
type Client struct {
	client   mqtt.Client
	cfg      config.MQTTConfig
	commands core.CommandChannel
	patterns func() []string
	prefix   string
}

// NewClient creates a client that forwards incoming messages to commands. It returns
// nil when MQTT is disabled.
func NewClient(cfg config.MQTTConfig, commands core.CommandChannel, patterns func() []string) *Client {
	if !cfg.Enabled {
		return nil
	}

	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)

	opts.SetKeepAlive(10 * time.Second)
	opts.SetPingTimeout(5 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(1 * time.Minute)
	// keep retrying at startup; the broker may come up after us
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOrderMatters(false)

	opts.SetWill(prefix+"/availability", "offline", 1, true)

	c := &Client{
		cfg:      cfg,
		commands: commands,
		patterns: patterns,
		prefix:   prefix,
	}

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v. Retrying in background...", err)
	})
	opts.SetReconnectingHandler(func(client mqtt.Client, options *mqtt.ClientOptions) {
		log.Println("[MQTT] Attempting to reconnect...")
	})

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect starts the connection loop and waits for the first attempt.
func (c *Client) Connect() error {
	if c == nil {
		return nil
	}
	log.Printf("[MQTT] Starting connection loop to %s...", c.cfg.Broker)

	token := c.client.Connect()
	if token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] Initial connection error: %v", token.Error())
		return token.Error()
	}
	return nil
}

// Disconnect publishes offline and closes the connection.
func (c *Client) Disconnect() {
	if c == nil || !c.client.IsConnected() {
		return
	}
	log.Println("[MQTT] Disconnecting...")

	token := c.client.Publish(c.topic("availability"), 0, true, "offline")
	if !token.WaitTimeout(2 * time.Second) {
		log.Println("[MQTT] Warning: timed out publishing offline status")
	} else if token.Error() != nil {
		log.Printf("[MQTT] Warning: failed to publish offline status: %v", token.Error())
	}

	c.client.Disconnect(250)
	log.Println("[MQTT] Disconnected.")
}

// Publish sends payload to <prefix>/<subtopic> without blocking the caller.
func (c *Client) Publish(subtopic string, payload any, retained bool) {
	if c == nil || !c.client.IsConnected() {
		return
	}

	topic := c.topic(subtopic)
	token := c.client.Publish(topic, 0, retained, fmt.Sprintf("%v", payload))
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("[MQTT] Timeout publishing to %s", topic)
		} else if token.Error() != nil {
			log.Printf("[MQTT] Publish error to %s: %v", topic, token.Error())
		}
	}()
}

// PublishPattern reports the outcome of a processed command.
func (c *Client) PublishPattern(change core.PatternChange) {
	if c == nil {
		return
	}
	power := "OFF"
	if change.Pattern != "" {
		power = "ON"
	}
	c.Publish("power/state", power, true)
	c.Publish("pattern/state", change.Pattern, true)
	c.Publish("command/state", change.Command, true)
	c.Publish("status", change.Status, true)
}

// PublishBrightness reports the configured strip brightness.
func (c *Client) PublishBrightness(level uint8) {
	c.Publish("brightness/state", level, true)
}

// PublishConnection reports the BLE mirror's link state.
func (c *Client) PublishConnection(connected bool) {
	state := "disconnected"
	if connected {
		state = "connected"
	}
	c.Publish("connection", state, true)
}

func (c *Client) topic(subtopic string) string {
	return fmt.Sprintf("%s/%s", c.prefix, subtopic)
}

func (c *Client) onConnect(client mqtt.Client) {
	log.Println("[MQTT] Connected to broker.")

	for _, sub := range subscriptions {
		topic := c.topic(sub)
		if token := client.Subscribe(topic, 1, c.handle(sub)); token.Wait() && token.Error() != nil {
			log.Printf("[MQTT] Error subscribing to %s: %v", topic, token.Error())
		} else {
			log.Printf("[MQTT] Subscribed to %s", topic)
		}
	}

	// discovery waits a moment, keep it off paho's callback goroutine
	go func() {
		c.Publish("availability", "online", true)
		if c.cfg.HADiscoveryEnabled {
			c.PublishHADiscovery()
		}
	}()
}

var subscriptions = []string{"command/set", "pattern/run", "pattern/stop", "brightness/set", "script/run"}

func (c *Client) handle(subtopic string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		cmd, err := commandFor(subtopic, string(msg.Payload()))
		if err != nil {
			log.Printf("[MQTT] Ignoring message on %s: %v", msg.Topic(), err)
			return
		}
		select {
		case c.commands <- cmd:
		default:
			log.Printf("[MQTT] Command queue full, dropping message on %s", msg.Topic())
		}
	}
}

// commandFor maps a message on <prefix>/<subtopic> to an agent command.
func commandFor(subtopic, payload string) (core.Command, error) {
	payload = strings.TrimSpace(payload)
	switch subtopic {
	case "command/set":
		if payload == "" {
			return core.Command{}, fmt.Errorf("empty command")
		}
		return core.Command{Type: core.CmdProcess, Payload: map[string]any{"command": payload}}, nil
	case "pattern/run":
		if payload == "" {
			return core.Command{}, fmt.Errorf("empty pattern name")
		}
		// HA sends a bare effect name; full commands are passed through
		command := payload
		if !strings.Contains(payload, "=") && !strings.EqualFold(payload, payloadOff) {
			command = "Pattern=" + payload
		}
		return core.Command{Type: core.CmdProcess, Payload: map[string]any{"command": command}}, nil
	case "pattern/stop":
		return core.Command{Type: core.CmdStop}, nil
	case "brightness/set":
		level, err := strconv.Atoi(payload)
		if err != nil {
			return core.Command{}, fmt.Errorf("brightness %q: %w", payload, err)
		}
		return core.Command{Type: core.CmdSetBrightness, Payload: map[string]any{"value": level}}, nil
	case "script/run":
		if payload == "" {
			return core.Command{}, fmt.Errorf("empty script name")
		}
		return core.Command{Type: core.CmdRunScript, Payload: map[string]any{"name": payload}}, nil
	}
	return core.Command{}, fmt.Errorf("unknown topic %q", subtopic)
}

// PublishHADiscovery sends the Home Assistant light configuration.
func (c *Client) PublishHADiscovery() {
	if c == nil {
		return
	}
	// let subscriptions settle first
	time.Sleep(1 * time.Second)

	var patterns []string
	if c.patterns != nil {
		patterns = c.patterns()
	}

	topic, payload := c.discovery(patterns)
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[MQTT] Failed to encode HA discovery: %v", err)
		return
	}
	c.client.Publish(topic, 0, true, data)
	log.Printf("[MQTT] HA Discovery sent to %s", topic)
}

func (c *Client) discovery(patterns []string) (string, map[string]any) {
	id := safeID(c.cfg.ClientID)
	topic := fmt.Sprintf("%s/light/%s/light/config", c.cfg.HADiscoveryPrefix, id)
	if patterns == nil {
		patterns = []string{}
	}

	return topic, map[string]any{
		"name":      "Light",
		"unique_id": id + "_light",
		"object_id": id,
		"icon":      "mdi:led-strip",

		"command_topic": c.topic("command/set"),
		"state_topic":   c.topic("power/state"),
		"payload_on":    payloadOn,
		"payload_off":   payloadOff,

		"brightness_command_topic": c.topic("brightness/set"),
		"brightness_state_topic":   c.topic("brightness/state"),
		"brightness_scale":         255,

		"effect_command_topic": c.topic("pattern/run"),
		"effect_state_topic":   c.topic("pattern/state"),
		"effect_list":          patterns,

		"availability_topic":    c.topic("availability"),
		"payload_available":     "online",
		"payload_not_available": "offline",

		"device": map[string]any{
			"identifiers": []string{id},
			"name":        "Bling Controller",
			"model":       "Addressable LED strip",
			"sw_version":  "bling-controller",
		},
	}
}

func safeID(clientID string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-':
			return r
		}
		return -1
	}, clientID)
}
