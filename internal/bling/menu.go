package bling

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSelection is returned by MenuCommand for numbers not on the menu.
var ErrUnknownSelection = errors.New("unknown menu selection")

// MenuEntry is one canned command offered by the interactive menu.
type MenuEntry struct {
	Selection int
	Label     string
	Command   string
}

var menu = []MenuEntry{
	{1, "Alternates (two alternating colors)", "Pattern=Alternates,Color=TEAMCOLORS,Speed=MEDIUM,Segment=ALL"},
	{2, "Color Chase (one LED moving end to end)", "Pattern=ColorChase,Color=GREEN,Speed=MEDIUM"},
	{3, "Color Fade (one color fading in/out)", "Pattern=ColorFade,Color=RAINBOW,Speed=MEDIUM"},
	{4, "Color Pattern (mix of colors)", "Pattern=ColorPattern,Color=RAINBOW,Speed=MEDIUM"},
	{5, "Color Wipe (one color moving up/down)", "Pattern=ColorWipe,Color=GREEN,Speed=MEDIUM"},
	{6, "Fire Flies (colors randomly blinking)", "Pattern=FireFlies,Color=RAINBOW,Speed=MEDIUM"},
	{7, "Scanner (one color moving up/down)", "Pattern=Scanner,Color=BLUE,Speed=MEDIUM"},
	{8, "Rainbow Scanner (colors moving up/down)", "Pattern=RainbowScanner,Color=RAINBOW,Speed=MEDIUM"},
	{9, "Ping Pong (colors bouncing around)", "Pattern=PingPong,Color=BLUE,Speed=MEDIUM"},
	{10, "Party Mode (colors blinking on/off)", "Pattern=PartyMode,Color=RAINBOW,Speed=MEDIUM"},
	{11, "Rainbow Halves (strand divided in two)", "Pattern=RainbowHalves,Color=RAINBOW,Speed=MEDIUM"},
	{12, "Rainbow (set of colors moving end to end)", "Pattern=Rainbow,Color=RAINBOW,Speed=MEDIUM"},
	{13, "Rainbow Cycles (variation of above)", "Pattern=RainbowCycle,Color=RAINBOW,Speed=MEDIUM"},
	{14, "Linear Rainbow (another variation)", "Pattern=LinearRainbow,Color=RAINBOW,Speed=MEDIUM"},
	{15, "Search Lights (colors moving up/down)", "Pattern=SearchLights,Color=RAINBOW,Speed=MEDIUM"},
	{16, "Wave (colors moving up/down)", "Pattern=Wave,Color=BLUE,Speed=MEDIUM"},
	{17, "Solid Red (one color on all LEDs)", "Pattern=Solid,Color=RED"},
	{18, "Solid Yellow (one color on all LEDs)", "Pattern=Solid,Color=YELLOW"},
	{19, "Solid Green (one color on all LEDs)", "Pattern=Solid,Color=GREEN"},
	{20, "Test Strip (test pattern for RGB cal.)", "Pattern=Test,Color=TEST,Speed=MEDIUM"},
	{21, "Blinking Purple (slow on all LEDs)", "Pattern=Blinking,Color=PURPLE,Speed=SLOW,Segment=ALL"},
	{22, "Blinking Green (medium on all LEDs)", "Pattern=Blinking,Color=GREEN,Speed=MEDIUM,Segment=ALL"},
	{23, "Blinking Green (fast on all LEDs)", "Pattern=Blinking,Color=GREEN,Speed=FAST,Segment=ALL"},
	{24, "Blinking Green (medium on left LEDs)", "Pattern=Blinking,Color=GREEN,Speed=MEDIUM,Segment=LEFT"},
	{25, "Blinking Green (medium on right LEDs)", "Pattern=Blinking,Color=GREEN,Speed=MEDIUM,Segment=RIGHT"},
	{99, "All Off", "Pattern=OFF"},
}

// Menu lists the canned commands in selection order.
func Menu() []MenuEntry {
	out := make([]MenuEntry, len(menu))
	copy(out, menu)
	return out
}

// MenuCommand returns the command string behind a menu selection.
func MenuCommand(selection int) (string, error) {
	for _, e := range menu {
		if e.Selection == selection {
			return e.Command, nil
		}
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownSelection, selection)
}

// MenuText renders the menu in two columns.
func MenuText() string {
	var b strings.Builder
	b.WriteString("\n                              Available Bling Patterns\n\n")
	half := (len(menu) + 1) / 2
	for i := 0; i < half; i++ {
		left := menu[i]
		fmt.Fprintf(&b, "%-48s", fmt.Sprintf("(%d) %s", left.Selection, left.Label))
		if j := i + half; j < len(menu) {
			right := menu[j]
			fmt.Fprintf(&b, "(%d) %s", right.Selection, right.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}
