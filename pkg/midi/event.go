// Package midi decodes 4-byte USB-MIDI event packets.
package midi

// Packet is one USB-MIDI event packet as read from a streaming endpoint.
// Byte 0 carries the cable number (high nibble) and code index number
// (low nibble); bytes 1-3 are the embedded MIDI message.
type Packet [4]byte

// Code index numbers (CIN) of interest. Other values are left undecoded.
const (
	CINNoteOff       uint8 = 0x8
	CINNoteOn        uint8 = 0x9
	CINPolyPressure  uint8 = 0xA
	CINControlChange uint8 = 0xB
	CINChanPressure  uint8 = 0xD
	CINPitchBend     uint8 = 0xE
)

// CCAllNotesOff is the control change number for "all notes off" (panic).
const CCAllNotesOff uint8 = 123

// Event is a decoded packet. Channel is 1-based (1..16).
type Event struct {
	CIN     uint8
	Channel uint8
	Data1   uint8
	Data2   uint8
}

// Decode extracts the CIN, channel and data bytes from a packet. The cable
// number in the high nibble of byte 0 is discarded: virtual port routing is
// a multi-device concern and this decoder tracks a single device.
func Decode(p Packet) Event {
	return Event{
		CIN:     p[0] & 0x0f,
		Channel: (p[1] & 0x0f) + 1,
		Data1:   p[2],
		Data2:   p[3],
	}
}

// IsZero reports whether the packet is all zeroes. Some host controllers
// pad bulk transfers with empty packets; these carry no event.
func (p Packet) IsZero() bool {
	return p[0] == 0 && p[1] == 0 && p[2] == 0 && p[3] == 0
}
