package agent

import (
	"fmt"
	"log"
	"strconv"

	"bling-controller/internal/core"
)

func (a *Agent) handleCommand(cmd core.Command) {
	log.Printf("[Agent] Handling command: %s with payload: %v", cmd.Type, cmd.Payload)

	res := a.execute(cmd)
	if res.Err != nil {
		log.Printf("[Agent] Command %s failed: %v", cmd.Type, res.Err)
	}
	cmd.Respond(res)
}

func (a *Agent) execute(cmd core.Command) core.Result {
	switch cmd.Type {
	case core.CmdProcess:
		command, err := cmd.String("command")
		if err != nil {
			return core.Result{Err: err}
		}
		// a command from outside replaces whatever a script was doing
		a.stopScript()
		return core.Result{Status: string(a.processor.Process(command))}

	case core.CmdStop:
		a.stopScript()
		a.processor.Stop()
		return ok(nil)

	case core.CmdSetBrightness:
		level, err := cmd.Int("value")
		if err != nil {
			return core.Result{Err: err}
		}
		if err := a.processor.SetBrightness(level); err != nil {
			return core.Result{Err: err}
		}
		return ok(level)

	case core.CmdSetRgbOrder:
		if a.bleController == nil {
			return core.Result{Err: fmt.Errorf("BLE is not enabled")}
		}
		var v [3]int
		for i, key := range []string{"v1", "v2", "v3"} {
			n, err := cmd.Int(key)
			if err != nil {
				return core.Result{Err: err}
			}
			v[i] = n
		}
		a.bleController.SetRgbOrder(v[0], v[1], v[2])
		return ok(nil)

	case core.CmdRunScript:
		name, err := cmd.String("name")
		if err != nil {
			return core.Result{Err: err}
		}
		if err := a.luaEngine.RunScript(name); err != nil {
			return core.Result{Err: err}
		}
		return ok(name)

	case core.CmdStopScript:
		a.luaEngine.Stop()
		return ok(nil)

	case core.CmdAddSchedule:
		spec, err := cmd.String("spec")
		if err != nil {
			return core.Result{Err: err}
		}
		command, err := cmd.String("command")
		if err != nil {
			return core.Result{Err: err}
		}
		id, err := a.scheduler.Add(spec, command)
		if err != nil {
			return core.Result{Err: err}
		}
		a.eventBus.Publish(core.Event{Type: core.ScheduleChangedEvent})
		return ok(id)

	case core.CmdRemoveSchedule:
		id, err := scheduleID(cmd)
		if err != nil {
			return core.Result{Err: err}
		}
		if err := a.scheduler.Remove(id); err != nil {
			return core.Result{Err: err}
		}
		a.eventBus.Publish(core.Event{Type: core.ScheduleChangedEvent})
		return ok(id)

	case core.CmdGetScript:
		name, err := cmd.String("name")
		if err != nil {
			return core.Result{Err: err}
		}
		code, err := a.luaEngine.ScriptCode(name)
		if err != nil {
			return core.Result{Err: err}
		}
		return ok(map[string]string{"name": name, "code": code})

	case core.CmdSaveScript:
		name, err := cmd.String("name")
		if err != nil {
			return core.Result{Err: err}
		}
		code, err := cmd.String("code")
		if err != nil {
			return core.Result{Err: err}
		}
		if err := a.luaEngine.SaveScript(name, code); err != nil {
			return core.Result{Err: err}
		}
		return ok(name)

	case core.CmdDeleteScript:
		name, err := cmd.String("name")
		if err != nil {
			return core.Result{Err: err}
		}
		if err := a.luaEngine.DeleteScript(name); err != nil {
			return core.Result{Err: err}
		}
		return ok(name)
	}
	return core.Result{Err: fmt.Errorf("unknown command type: %s", cmd.Type)}
}

func (a *Agent) stopScript() {
	if name := a.luaEngine.Running(); name != "" {
		log.Printf("[Agent] Stopping script '%s'", name)
	}
	a.luaEngine.StopWait()
}

func ok(data any) core.Result {
	return core.Result{Status: "OK", Data: data}
}

// scheduleID accepts the id as a number or, as the web UI sends it, a string.
func scheduleID(cmd core.Command) (int, error) {
	if id, err := cmd.Int("id"); err == nil {
		return id, nil
	}
	s, err := cmd.String("id")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
