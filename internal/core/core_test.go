package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDelivers(t *testing.T) {
	eb := NewEventBus()
	sub := eb.Subscribe(PatternChangedEvent)

	eb.Publish(Event{Type: PatternChangedEvent, Payload: PatternChange{Pattern: "Wave", Status: "OK"}})
	eb.Publish(Event{Type: BrightnessChangedEvent, Payload: BrightnessChange{Level: 3}})

	require.Len(t, sub, 1)
	ev := <-sub
	assert.Equal(t, PatternChange{Pattern: "Wave", Status: "OK"}, ev.Payload)
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := NewEventBus()
	a := eb.Subscribe(PatternChangedEvent)
	b := eb.Subscribe(PatternChangedEvent)

	eb.Unsubscribe(a, PatternChangedEvent)
	eb.Publish(Event{Type: PatternChangedEvent})

	assert.Len(t, a, 0)
	assert.Len(t, b, 1)
}

func TestEventBusDropsWhenFull(t *testing.T) {
	eb := NewEventBus()
	sub := eb.Subscribe(StateChangedEvent)
	for i := 0; i < cap(sub)+10; i++ {
		eb.Publish(Event{Type: StateChangedEvent})
	}
	assert.Len(t, sub, cap(sub))
}

func TestNilEventBusPublish(t *testing.T) {
	var eb *EventBus
	assert.NotPanics(t, func() { eb.Publish(Event{Type: StateChangedEvent}) })
}

func TestCommandRespond(t *testing.T) {
	cmd := NewCommand(CmdProcess, map[string]any{"command": "Pattern=OFF", "level": float64(12)})

	s, err := cmd.String("command")
	require.NoError(t, err)
	assert.Equal(t, "Pattern=OFF", s)

	n, err := cmd.Int("level")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = cmd.String("missing")
	assert.Error(t, err)
	_, err = cmd.Int("command")
	assert.Error(t, err)

	cmd.Respond(Result{Status: "OK"})
	cmd.Respond(Result{Status: "ignored"})
	assert.Equal(t, "OK", (<-cmd.Reply).Status)

	assert.NotPanics(t, func() { Command{Type: CmdStop}.Respond(Result{}) })
}

func TestStateClone(t *testing.T) {
	s := NewState()
	s.SetConnection(true, -60)
	s.SetBrightness(90)
	s.SetPattern("Scanner", "Pattern=Scanner", "OK")
	s.SetRunningScript("police.lua")

	c := s.Clone()
	assert.True(t, c.IsConnected)
	assert.Equal(t, int16(-60), c.RSSI)
	assert.Equal(t, 90, c.Brightness)
	assert.Equal(t, "Scanner", c.RunningPattern)
	assert.Equal(t, "Pattern=Scanner", c.LastCommand)
	assert.Equal(t, "OK", c.LastStatus)
	assert.Equal(t, "police.lua", c.RunningScript)
}

func TestCommandTypeValid(t *testing.T) {
	assert.True(t, CmdProcess.Valid())
	assert.True(t, CmdDeleteScript.Valid())
	assert.False(t, CommandType("setPower").Valid())
	assert.False(t, CommandType("").Valid())
}
