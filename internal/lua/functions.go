package lua

import (
	"context"
	"log"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// registerFunctions exposes the controller to a script. Every blocking helper wakes
// up as soon as ctx is cancelled.
func (e *Engine) registerFunctions(ctx context.Context, L *lua.LState) {
	L.SetGlobal("bling", L.NewFunction(func(L *lua.LState) int {
		cmd := L.CheckString(1)
		if ctx.Err() != nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(e.ctrl.Process(cmd)))
		return 1
	}))
	L.SetGlobal("off", L.NewFunction(func(L *lua.LState) int {
		e.ctrl.Stop()
		return 0
	}))
	L.SetGlobal("brightness", L.NewFunction(func(L *lua.LState) int {
		if err := e.ctrl.SetBrightness(L.CheckInt(1)); err != nil {
			L.RaiseError("%v", err)
		}
		return 0
	}))
	L.SetGlobal("sleep", L.NewFunction(func(L *lua.LState) int {
		sleep(ctx, time.Duration(L.CheckInt(1))*time.Millisecond)
		return 0
	}))
	L.SetGlobal("should_stop", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(ctx.Err() != nil))
		return 1
	}))
	L.SetGlobal("fade", L.NewFunction(func(L *lua.LState) int {
		e.fade(ctx, L.CheckInt(1), L.CheckInt(2), time.Duration(L.CheckInt(3))*time.Millisecond)
		return 0
	}))
	L.SetGlobal("breathe", L.NewFunction(func(L *lua.LState) int {
		d := time.Duration(L.CheckInt(1)) * time.Millisecond
		peak := int(e.ctrl.Brightness())
		e.fade(ctx, 1, 255, d/2)
		e.fade(ctx, 255, 1, d/2)
		if ctx.Err() == nil {
			_ = e.ctrl.SetBrightness(peak)
		}
		return 0
	}))
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		log.Printf("[Lua] %s", L.ToString(1))
		return 0
	}))
}

const fadeSteps = 50

// fade ramps the strip brightness linearly from one level to another over d.
func (e *Engine) fade(ctx context.Context, from, to int, d time.Duration) {
	step := d / fadeSteps
	for i := 0; i <= fadeSteps; i++ {
		level := from + (to-from)*i/fadeSteps
		if err := e.ctrl.SetBrightness(level); err != nil {
			log.Printf("[Lua] fade: %v", err)
			return
		}
		if !sleep(ctx, step) {
			return
		}
	}
}

// sleep waits for d and reports false if ctx was cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
