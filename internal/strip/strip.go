// Package strip describes the physical layout of the LED strip: its length, how it is
// divided into repeating segments, and the named logical segments a command can target.
package strip

import (
	"fmt"
	"log"
)

// Segment names understood by RangeFor.
const (
	All        = "ALL"
	Left       = "LEFT"
	Right      = "RIGHT"
	RightFront = "RIGHT_FRONT"
	RightRear  = "RIGHT_REAR"
	LeftRear   = "LEFT_REAR"
	LeftFront  = "LEFT_FRONT"
)

var segmentOrder = []string{All, Left, Right, RightFront, RightRear, LeftRear, LeftFront}

// Range is a pair of LED indexes. Start is the first LED; End is the upper bound as
// produced by the segment table and window arithmetic. Inverted ranges are valid and
// mean "no LEDs".
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("(%d,%d)", r.Start, r.End)
}

// Strip holds the fixed geometry of one LED strip.
type Strip struct {
	numLEDs     int
	numSegments int
	segments    map[string]Range
}

// New computes the segment table for a strip of numLEDs LEDs. numSegments is the number
// of identical physical segments used by segment-replicated patterns; zero disables
// replication.
func New(numLEDs, numSegments int) (*Strip, error) {
	if numLEDs <= 0 {
		return nil, fmt.Errorf("invalid LED count %d: must be positive", numLEDs)
	}
	if numSegments < 0 {
		return nil, fmt.Errorf("invalid segment count %d: must not be negative", numSegments)
	}
	if numSegments > numLEDs {
		return nil, fmt.Errorf("invalid segment count %d: strip only has %d LEDs", numSegments, numLEDs)
	}

	half := numLEDs / 2
	quarter := numLEDs / 4

	// LEFT stops one LED short of the centre; RIGHT starts on it.
	s := &Strip{
		numLEDs:     numLEDs,
		numSegments: numSegments,
		segments: map[string]Range{
			All:        {0, numLEDs},
			Left:       {0, max(half-1, 0)},
			Right:      {half, numLEDs},
			RightFront: {0, max(quarter-1, 0)},
			RightRear:  {quarter, max(2*quarter-1, quarter)},
			LeftRear:   {2 * quarter, max(3*quarter-1, 2*quarter)},
			LeftFront:  {3 * quarter, max(4*quarter-1, 3*quarter)},
		},
	}
	return s, nil
}

// NumLEDs returns the strip length.
func (s *Strip) NumLEDs() int { return s.numLEDs }

// NumSegments returns the configured physical segment count, zero when unsegmented.
func (s *Strip) NumSegments() int { return s.numSegments }

// Segmented reports whether segment-replicated patterns should be used.
func (s *Strip) Segmented() bool { return s.numSegments > 0 }

// SegmentSize returns the number of LEDs in each physical segment.
func (s *Strip) SegmentSize() int {
	if s.numSegments <= 0 {
		return s.numLEDs
	}
	return s.numLEDs / s.numSegments
}

// SegmentBounds returns the first and last LED of physical segment index when the
// strip is split into count equal parts.
func (s *Strip) SegmentBounds(count, index int) (int, int) {
	size := s.numLEDs / count
	lo := size * index
	return lo, lo + size - 1
}

// Segments returns the named segments in table order.
func (s *Strip) Segments() []string {
	out := make([]string, len(segmentOrder))
	copy(out, segmentOrder)
	return out
}

// RangeFor returns the LED range of a named segment. Names must match exactly;
// anything else silently selects the whole strip.
func (s *Strip) RangeFor(name string) Range {
	if r, ok := s.segments[name]; ok {
		return r
	}
	return Range{0, s.numLEDs}
}

// ApplyWindow narrows r to the minPct..maxPct percentage window. Percentages above 100
// are reset to their defaults. The result is not clamped and may be inverted.
func ApplyWindow(r Range, minPct, maxPct int) Range {
	if minPct > 100 {
		log.Printf("[Strip] Invalid minimum setting: %d, must be 0-100", minPct)
		minPct = 0
	}
	if maxPct > 100 {
		log.Printf("[Strip] Invalid maximum setting: %d, must be 0-100", maxPct)
		maxPct = 100
	}

	span := r.End - r.Start
	if minPct != 0 {
		r.Start += span*minPct/100 + 1
	}
	if maxPct != 100 {
		r.End -= span*(100-maxPct)/100 + 1
	}
	return r
}
