package rhythm

// Parameter bounds. Out-of-range setter values saturate at the boundary
// rather than wrapping; CC values span 0..127 while these ranges are
// narrower, and saturation matches how players expect a knob to behave at
// the end of its travel.
const (
	MinBeats = 1
	MaxBeats = 16
	MinBPM   = 30
	MaxBPM   = 300
)

// Spec holds the live rhythm parameters and the pattern derived from them.
// The pattern is regenerated synchronously on every parameter change, so a
// reader never observes a pattern that is stale with respect to the
// parameters. Spec is not safe for concurrent use; the event loop is the
// only writer and reader.
type Spec struct {
	beats   int
	hits    int
	shift   int
	bpm     int
	pattern Pattern
}

// NewSpec returns a Spec with a four-on-the-floor default: 16 beats, 4
// hits, no shift, 120 BPM.
func NewSpec() *Spec {
	s := &Spec{beats: 16, hits: 4, shift: 0, bpm: 120}
	s.regenerate()
	return s
}

func (s *Spec) Beats() int { return s.beats }
func (s *Spec) Hits() int  { return s.hits }
func (s *Spec) Shift() int { return s.shift }
func (s *Spec) BPM() int   { return s.bpm }

// Pattern returns the current pattern. Callers must not mutate it.
func (s *Spec) Pattern() Pattern { return s.pattern }

// SetBeats clamps v to 1..16. Hits and shift are re-clamped so they never
// exceed the new beat count.
func (s *Spec) SetBeats(v int) {
	s.beats = clamp(v, MinBeats, MaxBeats)
	if s.hits > s.beats {
		s.hits = s.beats
	}
	if s.shift > s.beats {
		s.shift = s.beats
	}
	s.regenerate()
}

// SetHits clamps v to 0..beats.
func (s *Spec) SetHits(v int) {
	s.hits = clamp(v, 0, s.beats)
	s.regenerate()
}

// SetShift clamps v to 0..beats.
func (s *Spec) SetShift(v int) {
	s.shift = clamp(v, 0, s.beats)
	s.regenerate()
}

// SetBPM clamps v to 30..300.
func (s *Spec) SetBPM(v int) {
	s.bpm = clamp(v, MinBPM, MaxBPM)
	s.regenerate()
}

func (s *Spec) regenerate() {
	s.pattern = Generate(s.beats, s.hits, s.shift)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
