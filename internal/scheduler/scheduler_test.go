package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bling-controller/internal/core"
)

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("off")
	require.NoError(t, err)
	assert.Equal(t, core.CmdStop, cmd.Type)

	cmd, err = ParseCommand("script sunset.lua")
	require.NoError(t, err)
	assert.Equal(t, core.CmdRunScript, cmd.Type)
	assert.Equal(t, "sunset.lua", cmd.Payload["name"])

	cmd, err = ParseCommand(" Pattern=Solid,Color=RED ")
	require.NoError(t, err)
	assert.Equal(t, core.CmdProcess, cmd.Type)
	assert.Equal(t, "Pattern=Solid,Color=RED", cmd.Payload["command"])

	_, err = ParseCommand("   ")
	assert.Error(t, err)
	_, err = ParseCommand("script")
	assert.Error(t, err)
}

func TestAddRemovePersist(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schedules.json")
	s := NewScheduler(make(core.CommandChannel, 1), file)

	id, err := s.Add("0 7 * * *", "Pattern=Solid,Color=WHITE")
	require.NoError(t, err)
	_, err = s.Add("@every 1h", "off")
	require.NoError(t, err)

	_, err = s.Add("not a spec", "off")
	assert.Error(t, err)
	_, err = s.Add("@daily", "")
	assert.Error(t, err)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "0 7 * * *", entries[0].Spec)

	require.NoError(t, s.Remove(id))
	assert.Error(t, s.Remove(id))

	reloaded := NewScheduler(make(core.CommandChannel, 1), file)
	entries = reloaded.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "off", entries[0].Command)
}

func TestExecuteDispatches(t *testing.T) {
	ch := make(core.CommandChannel, 1)
	s := NewScheduler(ch, filepath.Join(t.TempDir(), "schedules.json"))

	s.execute("Pattern=Wave,Color=BLUE")
	cmd := <-ch
	assert.Equal(t, core.CmdProcess, cmd.Type)
	assert.Equal(t, "Pattern=Wave,Color=BLUE", cmd.Payload["command"])
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(make(core.CommandChannel, 1), filepath.Join(t.TempDir(), "schedules.json"))
	s.Start()
	_, err := s.Add("@every 1h", "off")
	require.NoError(t, err)
	assert.False(t, s.Entries()[0].Next.IsZero())
	s.Stop()
}
