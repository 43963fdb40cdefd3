package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/config"
	"bling-controller/internal/core"
)

func TestCommandFor(t *testing.T) {
	tests := []struct {
		subtopic string
		payload  string
		typ      core.CommandType
		key      string
		want     any
	}{
		{"command/set", "Pattern=Wave,Color=BLUE", core.CmdProcess, "command", "Pattern=Wave,Color=BLUE"},
		{"pattern/run", "Scanner", core.CmdProcess, "command", "Pattern=Scanner"},
		{"pattern/run", "Pattern=Scanner,Speed=FAST", core.CmdProcess, "command", "Pattern=Scanner,Speed=FAST"},
		{"pattern/run", "OFF", core.CmdProcess, "command", "OFF"},
		{"brightness/set", " 64 ", core.CmdSetBrightness, "value", 64},
		{"script/run", "police.lua", core.CmdRunScript, "name", "police.lua"},
	}
	for _, tt := range tests {
		cmd, err := commandFor(tt.subtopic, tt.payload)
		require.NoError(t, err, tt.subtopic)
		assert.Equal(t, tt.typ, cmd.Type)
		assert.Equal(t, tt.want, cmd.Payload[tt.key])
	}

	cmd, err := commandFor("pattern/stop", "")
	require.NoError(t, err)
	assert.Equal(t, core.CmdStop, cmd.Type)

	for _, bad := range [][2]string{
		{"command/set", ""},
		{"brightness/set", "bright"},
		{"script/run", " "},
		{"power/set", "ON"},
	} {
		_, err := commandFor(bad[0], bad[1])
		assert.Error(t, err, bad)
	}
}

func TestNewClientDisabled(t *testing.T) {
	c := NewClient(config.MQTTConfig{}, nil, nil)
	assert.Nil(t, c)
	assert.NotPanics(t, func() {
		c.Publish("status", "OK", true)
		c.PublishPattern(core.PatternChange{Pattern: "Solid"})
		c.PublishBrightness(10)
		c.PublishConnection(true)
		c.Disconnect()
		assert.NoError(t, c.Connect())
	})
}

func TestDiscoveryPayload(t *testing.T) {
	cfg := config.Default().MQTT
	cfg.Enabled = true
	cfg.ClientID = "porch strip!"
	c := NewClient(cfg, make(core.CommandChannel, 1), nil)
	require.NotNil(t, c)

	topic, payload := c.discovery([]string{"Rainbow", "Scanner"})
	assert.Equal(t, "homeassistant/light/porch_strip/light/config", topic)
	assert.Equal(t, "bling/command/set", payload["command_topic"])
	assert.Equal(t, payloadOff, payload["payload_off"])
	assert.Equal(t, []string{"Rainbow", "Scanner"}, payload["effect_list"])
	assert.Equal(t, "bling/availability", payload["availability_topic"])

	_, payload = c.discovery(nil)
	assert.Equal(t, []string{}, payload["effect_list"])
}

func TestHandleForwardsCommands(t *testing.T) {
	cfg := config.Default().MQTT
	cfg.Enabled = true
	ch := make(core.CommandChannel, 1)
	c := NewClient(cfg, ch, nil)

	c.handle("pattern/run")(nil, fakeMessage{topic: "bling/pattern/run", payload: "Wave"})
	cmd := <-ch
	assert.Equal(t, "Pattern=Wave", cmd.Payload["command"])

	// full queue drops instead of blocking paho
	c.handle("pattern/stop")(nil, fakeMessage{topic: "bling/pattern/stop"})
	c.handle("pattern/stop")(nil, fakeMessage{topic: "bling/pattern/stop"})
	assert.Len(t, ch, 1)
}

type fakeMessage struct {
	topic   string
	payload string
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return []byte(m.payload) }
func (m fakeMessage) Ack()              {}
