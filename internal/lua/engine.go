// Package lua runs user scripts that sequence bling commands. One script runs at a
// time; starting another stops the current one first.
package lua

import (
	"context"
	"log"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"bling-controller/internal/bling"
	"bling-controller/internal/core"
)

// stopTimeout bounds the wait for a cancelled script to return.
const stopTimeout = 2 * time.Second

// Controller is the part of the command processor scripts can drive.
type Controller interface {
	Process(cmd string) bling.Status
	Stop()
	SetBrightness(level int) error
	Brightness() uint8
}

type cmdType int

const (
	cmdRunFile cmdType = iota
	cmdRunString
	cmdStop
)

type engineCmd struct {
	kind cmdType
	name string
	code string
	// ack is closed once a stop has taken effect.
	ack chan struct{}
}

// Engine owns a single worker goroutine that runs scripts sequentially.
type Engine struct {
	ctrl       Controller
	scriptsDir string
	eventBus   *core.EventBus

	cmdChan chan engineCmd

	mu      sync.Mutex
	running string
}

// NewEngine creates an engine and starts its worker.
func NewEngine(ctrl Controller, scriptsDir string, eb *core.EventBus) *Engine {
	e := &Engine{
		ctrl:       ctrl,
		scriptsDir: scriptsDir,
		eventBus:   eb,
		cmdChan:    make(chan engineCmd, 10),
	}
	go e.runLoop()
	return e
}

func (e *Engine) runLoop() {
	var cancel context.CancelFunc
	var done chan struct{}

	for cmd := range e.cmdChan {
		if cancel != nil {
			cancel()
			select {
			case <-done:
			case <-time.After(stopTimeout):
				log.Println("[Lua] Timeout waiting for script to stop")
			}
			cancel, done = nil, nil
		}

		if cmd.kind == cmdStop {
			if cmd.ack != nil {
				close(cmd.ack)
			}
			continue
		}

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})

		go func(ctx context.Context, cmd engineCmd, done chan struct{}) {
			defer close(done)
			switch cmd.kind {
			case cmdRunFile:
				e.execute(ctx, cmd.name, func(L *lua.LState) error { return L.DoFile(cmd.code) })
			case cmdRunString:
				e.execute(ctx, cmd.name, func(L *lua.LState) error { return L.DoString(cmd.code) })
			}
		}(ctx, cmd, done)
	}
	if cancel != nil {
		cancel()
	}
}

// Stop cancels the running script, if any.
func (e *Engine) Stop() {
	select {
	case e.cmdChan <- engineCmd{kind: cmdStop}:
	default:
		log.Println("[Lua] Command channel full, could not send stop command")
	}
}

// StopWait cancels the running script and waits until it has returned, so nothing the
// script does can land after the caller's next command.
func (e *Engine) StopWait() {
	ack := make(chan struct{})
	select {
	case e.cmdChan <- engineCmd{kind: cmdStop, ack: ack}:
	case <-time.After(stopTimeout):
		log.Println("[Lua] Command channel full, could not send stop command")
		return
	}
	select {
	case <-ack:
	case <-time.After(2 * stopTimeout):
		log.Println("[Lua] Timeout waiting for stop")
	}
}

// RunScript runs a script from the scripts directory.
func (e *Engine) RunScript(name string) error {
	path, err := e.ScriptPath(name)
	if err != nil {
		return err
	}
	e.cmdChan <- engineCmd{kind: cmdRunFile, name: name, code: path}
	return nil
}

// ExecuteString runs a one-off chunk of Lua.
func (e *Engine) ExecuteString(code string) {
	e.cmdChan <- engineCmd{kind: cmdRunString, name: "inline", code: code}
}

// Running returns the name of the running script, or "".
func (e *Engine) Running() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) setRunning(name string) {
	e.mu.Lock()
	e.running = name
	e.mu.Unlock()
	e.eventBus.Publish(core.Event{Type: core.ScriptChangedEvent, Payload: core.ScriptChange{Name: name}})
}

func (e *Engine) execute(ctx context.Context, name string, run func(*lua.LState) error) {
	log.Printf("[Lua] Starting script '%s'", name)
	e.setRunning(name)
	defer func() {
		log.Printf("[Lua] Script '%s' finished", name)
		e.setRunning("")
	}()

	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)
	e.registerFunctions(ctx, L)

	if err := run(L); err != nil {
		if ctx.Err() != nil {
			log.Printf("[Lua] Script '%s' was cancelled", name)
		} else {
			log.Printf("[Lua] Error executing script '%s': %v", name, err)
		}
	}
}
