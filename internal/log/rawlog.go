package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/jamloop/jamloop/pkg/midi"
)

// EventLog writes one line per raw USB-MIDI packet for offline debugging.
// A nil writer disables it; Packet is then a no-op cheap enough to leave in
// the hot decode path.
type EventLog struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEventLog creates an EventLog. Pass nil to disable output.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{w: w}
}

// Enabled reports whether packets are being written anywhere.
func (l *EventLog) Enabled() bool {
	return l != nil && l.w != nil
}

var cinNames = map[uint8]string{
	midi.CINNoteOff:       "Off",
	midi.CINNoteOn:        "On",
	midi.CINPolyPressure:  "MPE",
	midi.CINControlChange: "CC",
	midi.CINChanPressure:  "CP",
	midi.CINPitchBend:     "PB",
}

// Packet logs one raw event packet with its decoded summary.
func (l *EventLog) Packet(p midi.Packet) {
	if !l.Enabled() {
		return
	}
	ev := midi.Decode(p)
	name, ok := cinNames[ev.CIN]
	if !ok {
		name = fmt.Sprintf("0x%X", ev.CIN)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%-3s %2d %3d %3d raw=%02x%02x%02x%02x\n",
		name, ev.Channel, ev.Data1, ev.Data2, p[0], p[1], p[2], p[3])
}
