// Package rhythm generates Euclidean rhythm patterns with Bjorklund's
// algorithm and tracks the live pattern parameters driven by MIDI control
// changes.
//
// Reference: Godfried T. Toussaint, "The Euclidean algorithm generates
// traditional musical rhythms", BRIDGES 2005.
package rhythm

// Step is one slot of a rhythm pattern.
type Step uint8

const (
	Rest Step = iota
	Hit
)

// Pattern is an ordered sequence of hit/rest steps.
type Pattern []Step

// String renders the pattern in the conventional "x.x." notation.
func (p Pattern) String() string {
	out := make([]byte, len(p))
	for i, s := range p {
		if s == Hit {
			out[i] = 'x'
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// Hits returns the number of Hit steps.
func (p Pattern) Hits() int {
	n := 0
	for _, s := range p {
		if s == Hit {
			n++
		}
	}
	return n
}

// Generate produces a length-beats pattern with exactly hits Hit steps
// distributed as evenly as possible, rotated left by shift positions
// (reduced modulo beats). It is pure and deterministic. Out-of-range hits
// values are clamped to 0..beats.
func Generate(beats, hits, shift int) Pattern {
	if beats < 1 {
		beats = 1
	}
	if hits < 0 {
		hits = 0
	}
	if hits > beats {
		hits = beats
	}

	group1 := make([]Pattern, hits)
	for i := range group1 {
		group1[i] = Pattern{Hit}
	}
	group2 := make([]Pattern, beats-hits)
	for i := range group2 {
		group2[i] = Pattern{Rest}
	}

	p := bjorklund(group1, group2)
	if shift > 0 {
		s := shift % beats
		rotated := make(Pattern, 0, len(p))
		rotated = append(rotated, p[s:]...)
		rotated = append(rotated, p[:s]...)
		return rotated
	}
	return p
}

// bjorklund distributes group2 items onto the front group1 items, left to
// right, recursing on whatever group is left over. Initially group1 holds
// singleton hits and group2 singleton rests; on later passes group2 holds
// the remainder still to be spread into group1.
func bjorklund(group1, group2 []Pattern) Pattern {
	len1, len2 := len(group1), len(group2)
	switch {
	case len1 == 0:
		// No hits at all: the rests are the pattern.
		return flatten(group2)
	case len2 == 0:
		// Nothing left to distribute.
		return flatten(group1)
	case len1 == len2:
		// One pass pairs everything with no leftovers.
		for i := range group1 {
			group1[i] = append(group1[i], group2[i]...)
		}
		return flatten(group1)
	case len2 < len1:
		// Pairing consumes all of group2 and leaves a short tail of
		// group1 unpaired; that tail becomes the next remainder.
		for i := range group2 {
			group1[i] = append(group1[i], group2[i]...)
		}
		return bjorklund(group1[:len2], group1[len2:])
	default:
		// group2 outnumbers group1: pair across all of group1 and
		// recurse on the excess of group2.
		for i := range group1 {
			group1[i] = append(group1[i], group2[i]...)
		}
		return bjorklund(group1, group2[len1:])
	}
}

func flatten(groups []Pattern) Pattern {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make(Pattern, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
