package agent

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/bling"
	"bling-controller/internal/config"
	"bling-controller/internal/core"
	"bling-controller/internal/pattern"
)

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Strip.NumLEDs = 24
	cfg.ScriptsDir = filepath.Join(dir, "scripts")
	cfg.SchedulesFile = filepath.Join(dir, "schedules.json")
	cfg.Server.WebFilesDir = ""

	a, err := NewAgent(cfg)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a
}

func run(a *Agent, t core.CommandType, payload map[string]any) core.Result {
	cmd := core.NewCommand(t, payload)
	a.handleCommand(cmd)
	return <-cmd.Reply
}

func TestProcessCommand(t *testing.T) {
	a := newTestAgent(t)

	res := run(a, core.CmdProcess, map[string]any{"command": "Pattern=Solid,Color=BLUE"})
	assert.Equal(t, string(bling.StatusOK), res.Status)
	assert.Equal(t, pattern.NameSolid, a.processor.Running())

	res = run(a, core.CmdProcess, map[string]any{"command": "Pattern=Nope"})
	assert.Equal(t, string(bling.StatusError), res.Status)
	assert.Equal(t, pattern.NameError, a.processor.Running())

	res = run(a, core.CmdStop, nil)
	assert.NoError(t, res.Err)
	assert.Equal(t, "", a.processor.Running())

	res = run(a, core.CmdProcess, nil)
	assert.Error(t, res.Err)
}

func TestBrightnessCommand(t *testing.T) {
	a := newTestAgent(t)

	res := run(a, core.CmdSetBrightness, map[string]any{"value": float64(42)})
	require.NoError(t, res.Err)
	assert.Equal(t, uint8(42), a.processor.Brightness())

	res = run(a, core.CmdSetBrightness, map[string]any{"value": 999})
	assert.Error(t, res.Err)
	assert.Equal(t, uint8(42), a.processor.Brightness())
}

func TestRgbOrderNeedsBLE(t *testing.T) {
	a := newTestAgent(t)
	res := run(a, core.CmdSetRgbOrder, map[string]any{"v1": 1, "v2": 2, "v3": 3})
	assert.Error(t, res.Err)
}

func TestScheduleCommands(t *testing.T) {
	a := newTestAgent(t)

	res := run(a, core.CmdAddSchedule, map[string]any{"spec": "@daily", "command": "Pattern=Wave"})
	require.NoError(t, res.Err)
	id := res.Data.(int)
	require.Len(t, a.scheduler.Entries(), 1)

	res = run(a, core.CmdAddSchedule, map[string]any{"spec": "whenever", "command": "off"})
	assert.Error(t, res.Err)

	res = run(a, core.CmdRemoveSchedule, map[string]any{"id": itoa(id)})
	require.NoError(t, res.Err)
	assert.Empty(t, a.scheduler.Entries())
}

func TestScriptCommands(t *testing.T) {
	a := newTestAgent(t)

	res := run(a, core.CmdSaveScript, map[string]any{"name": "glow.lua", "code": `bling("Pattern=Solid,Color=GREEN")`})
	require.NoError(t, res.Err)

	res = run(a, core.CmdGetScript, map[string]any{"name": "glow.lua"})
	require.NoError(t, res.Err)
	assert.Equal(t, `bling("Pattern=Solid,Color=GREEN")`, res.Data.(map[string]string)["code"])

	res = run(a, core.CmdRunScript, map[string]any{"name": "glow.lua"})
	require.NoError(t, res.Err)
	require.Eventually(t, func() bool {
		return a.processor.Running() == pattern.NameSolid
	}, 2*time.Second, 10*time.Millisecond)

	res = run(a, core.CmdRunScript, map[string]any{"name": "../etc/passwd"})
	assert.Error(t, res.Err)

	res = run(a, core.CmdDeleteScript, map[string]any{"name": "glow.lua"})
	require.NoError(t, res.Err)
	res = run(a, core.CmdGetScript, map[string]any{"name": "glow.lua"})
	assert.Error(t, res.Err)
}

func TestProcessStopsRunningScript(t *testing.T) {
	a := newTestAgent(t)

	a.luaEngine.ExecuteString(`
		while true do
			bling("Pattern=Wave")
			sleep(20)
		end
	`)
	require.Eventually(t, func() bool { return a.luaEngine.Running() != "" }, 2*time.Second, 10*time.Millisecond)

	res := run(a, core.CmdProcess, map[string]any{"command": "Pattern=Solid,Color=RED"})
	assert.Equal(t, "OK", res.Status)
	assert.Equal(t, "", a.luaEngine.Running())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, pattern.NameSolid, a.processor.Running())
}

func TestUnknownCommand(t *testing.T) {
	a := newTestAgent(t)
	res := run(a, core.CommandType("setPower"), nil)
	assert.Error(t, res.Err)
}

func TestEventsUpdateState(t *testing.T) {
	a := newTestAgent(t)

	a.handleEvent(core.Event{Type: core.PatternChangedEvent, Payload: core.PatternChange{Pattern: "Wave", Command: "Pattern=Wave", Status: "OK"}})
	a.handleEvent(core.Event{Type: core.BrightnessChangedEvent, Payload: core.BrightnessChange{Level: 80}})
	a.handleEvent(core.Event{Type: core.DeviceConnectedEvent, Payload: core.ConnectionChange{Connected: true, RSSI: -50}})
	a.handleEvent(core.Event{Type: core.ScriptChangedEvent, Payload: core.ScriptChange{Name: "glow.lua"}})
	a.handleEvent(core.Event{Type: core.ScheduleChangedEvent})

	st := a.state.Clone()
	assert.Equal(t, "Wave", st.RunningPattern)
	assert.Equal(t, "OK", st.LastStatus)
	assert.Equal(t, 80, st.Brightness)
	assert.True(t, st.IsConnected)
	assert.Equal(t, "glow.lua", st.RunningScript)

	status := a.status()
	assert.Equal(t, 24, status.NumLEDs)
	assert.True(t, status.Connected)
}

func TestOpenTransport(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverBLE} {
		tr, err := OpenTransport(config.StripConfig{Driver: driver})
		require.NoError(t, err)
		assert.NoError(t, tr.Close())
	}
	_, err := OpenTransport(config.StripConfig{Driver: "dmx"})
	assert.Error(t, err)
	_, err = OpenTransport(config.StripConfig{Driver: config.DriverLPD8806, ChannelOrder: "GRB", Device: filepath.Join(t.TempDir(), "ttyUSB0")})
	assert.Error(t, err)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
