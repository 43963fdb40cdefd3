package led

import (
	"fmt"
	"sync"

	"bling-controller/internal/color"

	"github.com/gdamore/tcell/v2"
)

// Terminal previews the strip in a terminal, one coloured cell per LED, wrapping
// rows at the screen width.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal takes over the terminal for the preview.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	return NewTerminalWithScreen(screen), nil
}

// NewTerminalWithScreen renders to an existing screen, such as a simulation screen.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	screen.Clear()
	return &Terminal{screen: screen}
}

func (t *Terminal) Render(pixels []color.RGB, brightness uint8) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	width, _ := t.screen.Size()
	if width <= 0 {
		width = len(pixels)
	}
	for i, p := range Dim(pixels, brightness) {
		style := tcell.StyleDefault.Background(tcell.NewRGBColor(int32(p.R), int32(p.G), int32(p.B)))
		t.screen.SetContent(i%width, i/width, ' ', nil, style)
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.screen.Fini()
	return nil
}
