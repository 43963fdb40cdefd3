package color

import (
	"sort"
	"strings"
)

// ErrorSet is the name of the colour set returned for unknown names.
const ErrorSet = "ERROR"

// Named colours used by the colour sets.
var (
	Black        = RGB{0, 0, 0}
	White        = RGB{255, 255, 255}
	Red          = RGB{255, 0, 0}
	Green        = RGB{0, 255, 0}
	Blue         = RGB{0, 0, 255}
	Yellow       = RGB{255, 255, 0}
	Orange       = RGB{255, 165, 0}
	Purple       = RGB{128, 0, 128}
	MidnightBlue = RGB{25, 25, 112}
	Teal         = RGB{0, 128, 128}
	IndianRed    = RGB{205, 92, 92}
	Salmon       = RGB{250, 128, 114}
	Plaid        = RGB{204, 85, 51}
	LightPink    = RGB{255, 182, 193}
	Gold         = RGB{255, 215, 0}
	Sienna       = RGB{160, 82, 45}
	Lime         = RGB{50, 205, 50}
	Indigo       = RGB{75, 0, 130}
	DarkViolet   = RGB{148, 0, 211}
	DeepPink     = RGB{255, 20, 147}
	Amethyst     = RGB{153, 102, 204}
	MintCream    = RGB{245, 255, 250}
	HotPink      = RGB{255, 105, 180}
	Pink         = RGB{255, 192, 203}
	Plum         = RGB{221, 160, 221}
	Aqua         = RGB{0, 255, 255}
	Violet       = RGB{238, 130, 238}
	Navy         = RGB{0, 0, 128}
	SkyBlue      = RGB{135, 206, 235}
	ForestGreen  = RGB{34, 139, 34}
	SeaGreen     = RGB{46, 139, 87}
	Maroon       = RGB{128, 0, 0}
	Orchid       = RGB{218, 112, 214}
	Coral        = RGB{255, 127, 80}
	OldLace      = RGB{253, 245, 230}
	LemonChiffon = RGB{255, 250, 205}
	YellowGreen  = RGB{154, 205, 50}
)

func defaultSets() map[string][]RGB {
	return map[string][]RGB{
		"RED":          {Red},
		"GREEN":        {Green},
		"YELLOW":       {Yellow},
		"BLUE":         {Blue},
		"WHITE":        {White},
		"MIDNIGHTBLUE": {MidnightBlue},
		"TEAL":         {Teal},
		"INDIANRED":    {IndianRed},
		"SALMON":       {Salmon},
		"PLAID":        {Plaid},
		"LIGHTPINK":    {LightPink},
		"GOLD":         {Gold},
		"SIENNA":       {Sienna},
		"LIME":         {Lime},
		"INDIGO":       {Indigo},
		"DARKVIOLET":   {DarkViolet},
		"DEEPPINK":     {DeepPink},
		"AMETHYST":     {Amethyst},
		"MINT":         {MintCream},
		"HOTPINK":      {HotPink},
		"PINK":         {Pink},
		"PURPLE":       {Purple},
		"PLUM":         {Plum},
		"AQUA":         {Aqua},
		"BLACK":        {Black},
		"VIOLET":       {Violet},
		"NAVY":         {Navy},
		"SKY":          {SkyBlue},
		"DARKGREEN":    {ForestGreen},
		"SEAGREEN":     {SeaGreen},
		"MAROON":       {Maroon},
		"ORCHID":       {Orchid},
		"CORAL":        {Coral},
		"OLD":          {OldLace},
		"LEMON":        {LemonChiffon},
		"ORANGE":       {Orange},
		"LIGHTGREEN":   {YellowGreen},

		"BLACKANDYELLOW": {Black, Yellow},
		"PINKY":          {Pink, HotPink, Salmon, LightPink, DeepPink, Coral},
		"TEAMCOLORS":     {Blue, Orange},
		"RAINBOW":        {Red, Orange, Yellow, Green, Blue, Purple},
		"CHRISTMAS":      {Red, Green},
		"BROWN":          {Blue, Orange, Purple},
		"TEST":           {Red, Green, Blue, White},

		ErrorSet: {Red},
	}
}

// Registry maps colour-set names to ordered, non-empty colour lists.
// It is read-only after construction and safe for concurrent use.
type Registry struct {
	sets map[string][]RGB
}

// NewRegistry returns a registry holding the built-in colour sets.
func NewRegistry() *Registry {
	return &Registry{sets: defaultSets()}
}

// Resolve looks up a colour set by name, ignoring case. Unknown names yield the
// single-entry ERROR set. The returned slice is a copy the caller may modify.
func (r *Registry) Resolve(name string) []RGB {
	set, ok := r.sets[strings.ToUpper(name)]
	if !ok {
		set = r.sets[ErrorSet]
	}
	out := make([]RGB, len(set))
	copy(out, set)
	return out
}

// ResolveFirst returns only the first colour of the named set, with the same fallback.
func (r *Registry) ResolveFirst(name string) RGB {
	if set, ok := r.sets[strings.ToUpper(name)]; ok {
		return set[0]
	}
	return r.sets[ErrorSet][0]
}

// Has reports whether name is a registered colour set.
func (r *Registry) Has(name string) bool {
	_, ok := r.sets[strings.ToUpper(name)]
	return ok
}

// Names returns every registered set name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for n := range r.sets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
