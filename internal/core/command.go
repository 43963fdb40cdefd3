package core

import "fmt"

// CommandType defines the type of command being dispatched.
type CommandType string

const (
	CmdProcess        CommandType = "process"
	CmdStop           CommandType = "stop"
	CmdSetBrightness  CommandType = "setBrightness"
	CmdSetRgbOrder    CommandType = "setRgbOrder"
	CmdRunScript      CommandType = "runScript"
	CmdStopScript     CommandType = "stopScript"
	CmdAddSchedule    CommandType = "addSchedule"
	CmdRemoveSchedule CommandType = "removeSchedule"
	CmdGetScript      CommandType = "getScript"
	CmdSaveScript     CommandType = "saveScript"
	CmdDeleteScript   CommandType = "deleteScript"
)

// Valid reports whether t is a known command type.
func (t CommandType) Valid() bool {
	switch t {
	case CmdProcess, CmdStop, CmdSetBrightness, CmdSetRgbOrder, CmdRunScript, CmdStopScript,
		CmdAddSchedule, CmdRemoveSchedule, CmdGetScript, CmdSaveScript, CmdDeleteScript:
		return true
	}
	return false
}

// Result is sent back on a command's Reply channel.
type Result struct {
	Status string
	Data   any
	Err    error
}

// Command is the envelope for incoming requests to change state or perform actions.
// Reply is optional; when set it receives exactly one Result.
type Command struct {
	Type    CommandType
	Payload map[string]any
	Reply   chan Result
}

// NewCommand builds a command with a buffered reply channel.
func NewCommand(t CommandType, payload map[string]any) Command {
	if payload == nil {
		payload = map[string]any{}
	}
	return Command{Type: t, Payload: payload, Reply: make(chan Result, 1)}
}

// Respond delivers res if the sender asked for a reply. It never blocks.
func (c Command) Respond(res Result) {
	if c.Reply == nil {
		return
	}
	select {
	case c.Reply <- res:
	default:
	}
}

// String returns the named payload field as a string.
func (c Command) String(key string) (string, error) {
	v, ok := c.Payload[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string", key)
	}
	return s, nil
}

// Int returns the named payload field as an int. JSON numbers decode as float64.
func (c Command) Int(key string) (int, error) {
	switch v := c.Payload[key].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case nil:
		return 0, fmt.Errorf("missing %q", key)
	default:
		return 0, fmt.Errorf("%q must be a number", key)
	}
}

// CommandChannel is the single channel that the core Agent listens to for commands.
type CommandChannel chan Command
