// Package host defines the narrow capability interfaces between the
// controller core and its hardware collaborators: the USB host transport,
// the synthesis engine, the display, and the millisecond tick source. The
// core depends only on these interfaces so it can be tested with fakes.
package host

import (
	"time"

	"github.com/jamloop/jamloop/pkg/midi"
)

// GET_DESCRIPTOR control transfer parameters (USB 2.0 §9.4.3).
const (
	RequestTypeIn        = 0x80
	RequestGetDescriptor = 0x06

	// DescriptorTimeout bounds a single descriptor control transfer.
	DescriptorTimeout = 300 * time.Millisecond

	// ConfigBufLen is the buffer size for variable-length configuration
	// descriptor responses.
	ConfigBufLen = 256
)

// Bus scans for attached devices. Probe returns the next candidate device
// connection, (nil, nil) when nothing is attached, or an error when the
// host controller itself failed.
type Bus interface {
	Probe() (Conn, error)
}

// Conn is an open connection to one attached device.
//
// NextEvent must not block waiting for data: a poll with no pending event
// returns ok=false immediately so the caller can keep servicing its timing
// budget. Any returned error ends the session; the caller discards the
// device and resumes scanning.
type Conn interface {
	// Descriptor issues a GET_DESCRIPTOR control transfer for the given
	// descriptor type (index 0) and fills buf, returning the byte count.
	Descriptor(descType uint8, buf []byte) (int, error)

	// Claim prepares the event stream: selects the configuration, claims
	// the interface and opens the IN endpoint.
	Claim(configValue, iface, endpointAddr uint8) error

	// NextEvent polls for the next 4-byte USB-MIDI event packet.
	NextEvent() (midi.Packet, bool, error)

	Close() error
}

// Synth receives decoded note semantics. Implementations own voice
// allocation; Panic releases everything at once.
type Synth interface {
	Press(note uint8)
	Release(note uint8)
	Panic()
}

// Display is the rate-limited visual refresh trigger.
type Display interface {
	Refresh()
}

// Clock is a monotonic millisecond tick source wrapping at 2^29. Tick
// values are only meaningful for elapsed-time comparisons with
// wraparound-safe subtraction, never as absolute time.
type Clock interface {
	Ticks() uint32
}

// TransportError wraps an I/O failure or timeout from the host-controller
// collaborator. It ends the active session and triggers a rescan; it is
// never fatal to the process.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return "transport: " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
