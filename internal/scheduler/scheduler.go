// Package scheduler runs saved commands on cron schedules.
package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"bling-controller/internal/core"
)

// Entry is a saved schedule. Command is "off", "script <name>.lua" or a bling command
// string such as "Pattern=Solid,Color=RED".
type Entry struct {
	ID      int       `json:"id"`
	Spec    string    `json:"spec"`
	Command string    `json:"command"`
	Next    time.Time `json:"next,omitempty"`
}

type stored struct {
	Spec    string `json:"spec"`
	Command string `json:"command"`
}

// Scheduler manages cron jobs and persists them to a JSON file.
type Scheduler struct {
	cron           *cron.Cron
	store          map[cron.EntryID]stored
	commandChannel core.CommandChannel
	mu             sync.RWMutex
	schedulesFile  string
}

// NewScheduler creates a scheduler and loads saved schedules.
func NewScheduler(cmdChan core.CommandChannel, schedulesFile string) *Scheduler {
	s := &Scheduler{
		cron:           cron.New(cron.WithChain(cron.Recover(cron.PrintfLogger(log.Default())))),
		store:          make(map[cron.EntryID]stored),
		commandChannel: cmdChan,
		schedulesFile:  schedulesFile,
	}
	s.load()
	return s
}

// Start begins the cron ticker.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[Scheduler] Started")
}

// Stop halts the cron ticker and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[Scheduler] Stopped")
}

// Add creates and saves a schedule.
func (s *Scheduler) Add(spec, command string) (int, error) {
	if _, err := ParseCommand(command); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.execute(command) })
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.store[id] = stored{Spec: spec, Command: command}
	log.Printf("[Scheduler] Added schedule %d: %s -> %s", id, spec, command)
	return int(id), s.save()
}

// Remove deletes a schedule.
func (s *Scheduler) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID := cron.EntryID(id)
	if _, ok := s.store[entryID]; !ok {
		return fmt.Errorf("no schedule with id %d", id)
	}
	s.cron.Remove(entryID)
	delete(s.store, entryID)
	log.Printf("[Scheduler] Removed schedule %d", id)
	return s.save()
}

// Entries returns the schedules ordered by ID.
func (s *Scheduler) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.store))
	for id, st := range s.store {
		out = append(out, Entry{ID: int(id), Spec: st.Spec, Command: st.Command, Next: s.cron.Entry(id).Next})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ParseCommand turns a schedule command into the core command it dispatches.
func ParseCommand(command string) (core.Command, error) {
	command = strings.TrimSpace(command)
	fields := strings.Fields(command)
	switch {
	case len(fields) == 0:
		return core.Command{}, errors.New("empty schedule command")
	case strings.EqualFold(command, "off"):
		return core.Command{Type: core.CmdStop}, nil
	case fields[0] == "script":
		if len(fields) != 2 {
			return core.Command{}, fmt.Errorf("usage: script <name>.lua")
		}
		return core.Command{Type: core.CmdRunScript, Payload: map[string]any{"name": fields[1]}}, nil
	default:
		return core.Command{Type: core.CmdProcess, Payload: map[string]any{"command": command}}, nil
	}
}

func (s *Scheduler) execute(command string) {
	log.Printf("[Scheduler] Executing scheduled command: %s", command)
	cmd, err := ParseCommand(command)
	if err != nil {
		log.Printf("[Scheduler] %v", err)
		return
	}
	s.commandChannel <- cmd
}

func (s *Scheduler) save() error {
	data, err := json.MarshalIndent(s.store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedules: %w", err)
	}
	if err := os.WriteFile(s.schedulesFile, data, 0o644); err != nil {
		return fmt.Errorf("write schedules: %w", err)
	}
	return nil
}

func (s *Scheduler) load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.schedulesFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Scheduler] Error reading schedule file: %v", err)
		}
		return
	}

	saved := make(map[cron.EntryID]stored)
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Printf("[Scheduler] Error unmarshalling schedule file: %v", err)
		return
	}

	// keep the file's order stable across restarts
	ids := make([]cron.EntryID, 0, len(saved))
	for id := range saved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	log.Printf("[Scheduler] Loading %d schedules from '%s'", len(saved), s.schedulesFile)
	for _, id := range ids {
		entry := saved[id]
		newID, err := s.cron.AddFunc(entry.Spec, func() { s.execute(entry.Command) })
		if err != nil {
			log.Printf("[Scheduler] Error re-adding schedule: %v", err)
			continue
		}
		s.store[newID] = entry
	}
}
