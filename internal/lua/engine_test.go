package lua

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/bling"
	"bling-controller/internal/core"
)

type fakeController struct {
	mu         sync.Mutex
	commands   []string
	stops      int
	brightness []int
}

func (f *fakeController) Process(cmd string) bling.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	if cmd == "Pattern=Bogus" {
		return bling.StatusError
	}
	return bling.StatusOK
}

func (f *fakeController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeController) SetBrightness(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brightness = append(f.brightness, level)
	return nil
}

func (f *fakeController) Brightness() uint8 { return 127 }

func (f *fakeController) snapshot() ([]string, int, []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...), f.stops, append([]int(nil), f.brightness...)
}

func newEngine(t *testing.T) (*Engine, *fakeController, *core.EventBus) {
	t.Helper()
	ctrl := &fakeController{}
	bus := core.NewEventBus()
	e := NewEngine(ctrl, t.TempDir(), bus)
	t.Cleanup(e.Stop)
	return e, ctrl, bus
}

func TestScriptDrivesController(t *testing.T) {
	e, ctrl, _ := newEngine(t)

	e.ExecuteString(`
		local s = bling("Pattern=Bogus")
		if s == "ERROR" then
			bling("Pattern=Solid,Color=RED")
		end
		brightness(42)
		off()
	`)

	require.Eventually(t, func() bool {
		_, stops, _ := ctrl.snapshot()
		return stops == 1
	}, 2*time.Second, 5*time.Millisecond)

	cmds, _, levels := ctrl.snapshot()
	assert.Equal(t, []string{"Pattern=Bogus", "Pattern=Solid,Color=RED"}, cmds)
	assert.Equal(t, []int{42}, levels)
}

func TestStopCancelsLoopingScript(t *testing.T) {
	e, ctrl, bus := newEngine(t)
	sub := bus.Subscribe(core.ScriptChangedEvent)

	e.ExecuteString(`
		while not should_stop() do
			bling("Pattern=Scanner")
			sleep(10)
		end
	`)
	require.Eventually(t, func() bool { return e.Running() == "inline" }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		cmds, _, _ := ctrl.snapshot()
		return len(cmds) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	e.Stop()
	require.Eventually(t, func() bool { return e.Running() == "" }, 2*time.Second, 5*time.Millisecond)

	cmds, _, _ := ctrl.snapshot()
	time.Sleep(50 * time.Millisecond)
	after, _, _ := ctrl.snapshot()
	assert.Equal(t, len(cmds), len(after), "script kept running after Stop")

	assert.Equal(t, core.ScriptChange{Name: "inline"}, (<-sub).Payload)
	assert.Equal(t, core.ScriptChange{Name: ""}, (<-sub).Payload)
}

func TestStopWaitReturnsAfterScript(t *testing.T) {
	e, _, _ := newEngine(t)

	e.ExecuteString(`while true do sleep(1000) end`)
	require.Eventually(t, func() bool { return e.Running() == "inline" }, 2*time.Second, 5*time.Millisecond)

	e.StopWait()
	assert.Equal(t, "", e.Running())

	// nothing running is fine too
	e.StopWait()
}

func TestNewScriptReplacesRunningOne(t *testing.T) {
	e, ctrl, _ := newEngine(t)

	e.ExecuteString(`while true do sleep(1000) end`)
	require.Eventually(t, func() bool { return e.Running() == "inline" }, 2*time.Second, 5*time.Millisecond)

	e.ExecuteString(`bling("Pattern=Wave")`)
	require.Eventually(t, func() bool {
		cmds, _, _ := ctrl.snapshot()
		return len(cmds) == 1 && cmds[0] == "Pattern=Wave"
	}, 3*time.Second, 5*time.Millisecond)
}

func TestFadeRampsBrightness(t *testing.T) {
	e, ctrl, _ := newEngine(t)

	e.ExecuteString(`fade(0, 100, 50)`)
	require.Eventually(t, func() bool {
		_, _, levels := ctrl.snapshot()
		return len(levels) == fadeSteps+1
	}, 2*time.Second, 5*time.Millisecond)

	_, _, levels := ctrl.snapshot()
	assert.Equal(t, 0, levels[0])
	assert.Equal(t, 100, levels[len(levels)-1])
	assert.IsNonDecreasing(t, levels)
}

func TestScriptFiles(t *testing.T) {
	e, ctrl, _ := newEngine(t)

	require.NoError(t, e.SaveScript("party.lua", `bling("Pattern=PartyMode,Color=RAINBOW")`))
	require.NoError(t, e.SaveScript("alert.lua", `bling("Pattern=Blinking,Color=RED")`))

	scripts, err := e.Scripts()
	require.NoError(t, err)
	assert.Equal(t, []string{"alert.lua", "party.lua"}, scripts)

	code, err := e.ScriptCode("party.lua")
	require.NoError(t, err)
	assert.Contains(t, code, "PartyMode")

	require.NoError(t, e.RunScript("party.lua"))
	require.Eventually(t, func() bool {
		cmds, _, _ := ctrl.snapshot()
		return len(cmds) == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, e.DeleteScript("alert.lua"))
	scripts, err = e.Scripts()
	require.NoError(t, err)
	assert.Equal(t, []string{"party.lua"}, scripts)
}

func TestSanitizeFilename(t *testing.T) {
	for _, bad := range []string{"notes.txt", "../evil.lua", "dir/x.lua", ".lua", "a..b.lua"} {
		_, err := sanitizeFilename(bad)
		assert.Error(t, err, bad)
	}
	name, err := sanitizeFilename("ok.lua")
	require.NoError(t, err)
	assert.Equal(t, "ok.lua", name)
}

func TestRunScriptRejectsBadName(t *testing.T) {
	e, _, _ := newEngine(t)
	assert.Error(t, e.RunScript("../../etc/passwd"))
}

func TestWatchReportsNewScripts(t *testing.T) {
	e, _, _ := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 4)
	require.NoError(t, e.Watch(ctx, func(s []string) { changes <- s }))

	require.NoError(t, os.WriteFile(filepath.Join(e.scriptsDir, "new.lua"), []byte("off()"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.scriptsDir, "ignored.txt"), []byte("x"), 0o644))

	select {
	case got := <-changes:
		assert.Equal(t, []string{"new.lua"}, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification")
	}
}
