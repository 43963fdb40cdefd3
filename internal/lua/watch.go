package lua

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 250 * time.Millisecond

// Watch calls onChange with the current script list whenever a .lua file in the
// scripts directory is created, written, renamed or removed. It returns once the
// watcher is running; the watch ends with ctx.
func (e *Engine) Watch(ctx context.Context, onChange func([]string)) error {
	if err := os.MkdirAll(e.scriptsDir, 0o755); err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(e.scriptsDir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".lua" || event.Op == fsnotify.Chmod {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C

			case <-timerC:
				timerC = nil
				scripts, err := e.Scripts()
				if err != nil {
					log.Printf("[Lua] Failed to list scripts: %v", err)
					continue
				}
				onChange(scripts)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[Lua] Script watcher error: %v", err)
			}
		}
	}()
	return nil
}
