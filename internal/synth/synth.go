// Package synth provides the default note sink. Audio synthesis itself is
// out of scope; this sink tracks which notes are held and logs note
// activity so the rest of the system can be exercised without a DAC.
package synth

import (
	"log/slog"
	"sort"

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/midi"
)

// Sink implements host.Synth.
type Sink struct {
	logger *slog.Logger
	active map[uint8]struct{}
}

var _ host.Synth = (*Sink)(nil)

func New(logger *slog.Logger) *Sink {
	return &Sink{
		logger: logger,
		active: make(map[uint8]struct{}),
	}
}

func (s *Sink) Press(note uint8) {
	s.active[note] = struct{}{}
	s.logger.Debug("note on", "note", midi.NoteName(note), "num", note)
}

func (s *Sink) Release(note uint8) {
	delete(s.active, note)
	s.logger.Debug("note off", "note", midi.NoteName(note), "num", note)
}

// Panic releases every held note at once.
func (s *Sink) Panic() {
	s.logger.Info("releasing all notes", "held", len(s.active))
	clear(s.active)
}

// Active returns the held notes in ascending order.
func (s *Sink) Active() []uint8 {
	out := make([]uint8, 0, len(s.active))
	for n := range s.active {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
