package bling

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parameter names recognised by Process.
const (
	ParamPattern    = "Pattern"
	ParamSegment    = "Segment"
	ParamColor      = "Color"
	ParamSpeed      = "Speed"
	ParamMin        = "Min"
	ParamMax        = "Max"
	ParamBrightness = "Brightness"
)

// Off is the Pattern value that blanks the strip.
const Off = "OFF"

var (
	// ErrMalformedParam is returned for a command entry that is not a single name=value pair.
	ErrMalformedParam = errors.New("malformed parameter")
	// ErrInvalidBrightness is returned for brightness levels outside 0-255.
	ErrInvalidBrightness = errors.New("invalid brightness")
)

// Param is one name=value pair of a parsed command.
type Param struct {
	Name  string
	Value string
}

// params is an insertion-ordered parameter map.
type params struct {
	order  []string
	values map[string]string
}

// defaultParams holds the values every command starts from. The Segment and Speed
// defaults are mixed case, so an omitted Segment selects the whole strip through the
// unknown-name fallback.
func defaultParams(brightness uint8) *params {
	p := &params{values: make(map[string]string)}
	p.set(ParamPattern, "Error")
	p.set(ParamSegment, "All")
	p.set(ParamColor, "Error")
	p.set(ParamSpeed, "Medium")
	p.set(ParamMin, "0")
	p.set(ParamMax, "100")
	p.set(ParamBrightness, strconv.Itoa(int(brightness)))
	return p
}

func (p *params) set(name, value string) {
	if _, ok := p.values[name]; !ok {
		p.order = append(p.order, name)
	}
	p.values[name] = value
}

func (p *params) get(name string) string {
	return p.values[name]
}

func (p *params) int(name string) (int, error) {
	n, err := strconv.Atoi(p.values[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedParam, name, p.values[name])
	}
	return n, nil
}

func (p *params) list() []Param {
	out := make([]Param, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, Param{Name: name, Value: p.values[name]})
	}
	return out
}

// parse splits cmd into name=value entries, title-casing names and upper-casing values.
func (p *params) parse(cmd string) error {
	for _, entry := range strings.Split(cmd, ",") {
		if strings.Count(entry, "=") != 1 {
			return fmt.Errorf("%w: %q", ErrMalformedParam, entry)
		}
		name, value, _ := strings.Cut(entry, "=")
		p.set(titleCase(name), strings.ToUpper(value))
	}
	return nil
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the
// rest, so "min_led" becomes "Min_Led".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
