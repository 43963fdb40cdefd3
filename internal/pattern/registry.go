package pattern

import (
	"fmt"
	"sort"
	"strings"
)

// Pattern names a command can select. Error is also the fallback after a failed command.
const (
	NameSolid          = "Solid"
	NameBlinking       = "Blinking"
	NameAlternates     = "Alternates"
	NameColorChase     = "ColorChase"
	NameColorFade      = "ColorFade"
	NameColorPattern   = "ColorPattern"
	NameColorWipe      = "ColorWipe"
	NameFireFlies      = "FireFlies"
	NameScanner        = "Scanner"
	NameRainbowScanner = "RainbowScanner"
	NamePingPong       = "PingPong"
	NamePartyMode      = "PartyMode"
	NameRainbowHalves  = "RainbowHalves"
	NameRainbow        = "Rainbow"
	NameRainbowCycle   = "RainbowCycle"
	NameLinearRainbow  = "LinearRainbow"
	NameSearchLights   = "SearchLights"
	NameWave           = "Wave"
	NameTest           = "Test"
	NameError          = "Error"
)

func builtins() []*definition {
	return []*definition{
		{NameSolid, Fixed(0), setupSolid},
		{NameBlinking, Speeds{2, 4, 8}, setupBlink},
		{NameAlternates, Speeds{2, 5, 10}, setupAlternates},
		{NameColorChase, Speeds{5, 10, 20}, setupColorChase},
		{NameColorFade, Speeds{20, 40, 80}, setupColorFade},
		{NameColorPattern, Speeds{5, 15, 25}, setupColorPattern},
		{NameColorWipe, Speeds{5, 15, 25}, setupColorWipe},
		{NameFireFlies, Speeds{20, 40, 80}, setupFireFlies},
		{NameScanner, Speeds{5, 10, 25}, setupScanner},
		{NameRainbowScanner, Speeds{10, 20, 40}, setupRainbowScanner},
		{NamePingPong, Speeds{10, 20, 40}, setupPingPong},
		{NamePartyMode, Speeds{5, 10, 30}, setupBlink},
		{NameRainbowHalves, Speeds{10, 20, 40}, setupRainbowHalves},
		{NameRainbow, Speeds{50, 100, 200}, setupRainbow},
		{NameRainbowCycle, Speeds{100, 200, 400}, setupRainbowCycle},
		{NameLinearRainbow, Speeds{25, 50, 100}, setupLinearRainbow},
		{NameSearchLights, Speeds{10, 20, 40}, setupSearchLights},
		{NameWave, Speeds{3, 6, 12}, setupWave},
		{NameTest, Fixed(4), setupTest},
		{NameError, Fixed(25), setupError},
	}
}

// Registry looks patterns up by name.
type Registry struct {
	byKey map[string]Pattern
	names []string
}

// NewRegistry returns a registry holding every built-in pattern.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]Pattern)}
	for _, d := range builtins() {
		r.Register(d)
	}
	return r
}

// Register adds p, replacing any pattern with the same name.
func (r *Registry) Register(p Pattern) {
	key := strings.ToUpper(p.Name())
	if _, ok := r.byKey[key]; !ok {
		r.names = append(r.names, p.Name())
		sort.Strings(r.names)
	}
	r.byKey[key] = p
}

// Get finds a pattern ignoring case.
func (r *Registry) Get(name string) (Pattern, error) {
	p, ok := r.byKey[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}
	return p, nil
}

// Names lists the registered pattern names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Animated reports whether a pattern needs a stepping loop.
func Animated(p Pattern) bool {
	fps, err := p.FramesPerSecond(Medium)
	return err == nil && fps > 0
}
