package core

import "sync"

// State holds the single source of truth for the controller.
type State struct {
	mu             sync.RWMutex
	IsConnected    bool
	RSSI           int16
	Brightness     int
	RunningPattern string
	LastCommand    string
	LastStatus     string
	RunningScript  string
}

// NewState creates a new State instance.
func NewState() *State {
	return &State{}
}

// Clone returns a snapshot of the current state for safe reading.
func (s *State) Clone() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		IsConnected:    s.IsConnected,
		RSSI:           s.RSSI,
		Brightness:     s.Brightness,
		RunningPattern: s.RunningPattern,
		LastCommand:    s.LastCommand,
		LastStatus:     s.LastStatus,
		RunningScript:  s.RunningScript,
	}
}

// SetConnection updates connection state.
func (s *State) SetConnection(connected bool, rssi int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsConnected = connected
	s.RSSI = rssi
}

// SetBrightness updates the brightness state.
func (s *State) SetBrightness(brightness int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Brightness = brightness
}

// SetPattern records the outcome of a processed command.
func (s *State) SetPattern(pattern, command, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RunningPattern = pattern
	s.LastCommand = command
	s.LastStatus = status
}

// SetRunningScript updates the running script name; empty means none.
func (s *State) SetRunningScript(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RunningScript = name
}
