// Package hosttest provides in-memory fakes for the host capability
// interfaces, used by discovery and engine tests.
package hosttest

import (
	"errors"

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/midi"
	"github.com/jamloop/jamloop/pkg/usb"
)

// FakeConn scripts descriptor payloads and a finite stream of event
// packets. Once the events are drained, NextEvent returns EventErr if set,
// otherwise "no data".
type FakeConn struct {
	DevDesc    []byte
	ConfigDesc []byte
	DescErr    error

	// NoDataPolls is the number of empty polls to report before the
	// scripted events are handed out.
	NoDataPolls int
	Events      []midi.Packet
	EventErr    error

	ClaimErr       error
	ClaimedConfig  uint8
	ClaimedIface   uint8
	ClaimedEP      uint8
	Claimed        bool
	Closed         bool
	DescriptorReqs int
}

var _ host.Conn = (*FakeConn)(nil)

func (c *FakeConn) Descriptor(descType uint8, buf []byte) (int, error) {
	c.DescriptorReqs++
	if c.DescErr != nil {
		return 0, c.DescErr
	}
	var src []byte
	switch descType {
	case usb.DeviceDescType:
		src = c.DevDesc
	case usb.ConfigDescType:
		src = c.ConfigDesc
	default:
		return 0, errors.New("unexpected descriptor type")
	}
	n := copy(buf, src)
	return n, nil
}

func (c *FakeConn) Claim(configValue, iface, endpointAddr uint8) error {
	if c.ClaimErr != nil {
		return c.ClaimErr
	}
	c.Claimed = true
	c.ClaimedConfig = configValue
	c.ClaimedIface = iface
	c.ClaimedEP = endpointAddr
	return nil
}

func (c *FakeConn) NextEvent() (midi.Packet, bool, error) {
	if c.NoDataPolls > 0 {
		c.NoDataPolls--
		return midi.Packet{}, false, nil
	}
	if len(c.Events) == 0 {
		if c.EventErr != nil {
			return midi.Packet{}, false, c.EventErr
		}
		return midi.Packet{}, false, nil
	}
	p := c.Events[0]
	c.Events = c.Events[1:]
	return p, true, nil
}

func (c *FakeConn) Close() error {
	c.Closed = true
	return nil
}

// FakeBus hands out scripted connections one Probe at a time, then reports
// an empty bus.
type FakeBus struct {
	Conns  []host.Conn
	Probes int
}

var _ host.Bus = (*FakeBus)(nil)

func (b *FakeBus) Probe() (host.Conn, error) {
	b.Probes++
	if len(b.Conns) == 0 {
		return nil, nil
	}
	c := b.Conns[0]
	b.Conns = b.Conns[1:]
	return c, nil
}

// FakeSynth records the note calls it receives.
type FakeSynth struct {
	Pressed  []uint8
	Released []uint8
	Panics   int
}

var _ host.Synth = (*FakeSynth)(nil)

func (s *FakeSynth) Press(note uint8)   { s.Pressed = append(s.Pressed, note) }
func (s *FakeSynth) Release(note uint8) { s.Released = append(s.Released, note) }
func (s *FakeSynth) Panic()             { s.Panics++ }

// FakeDisplay counts refreshes.
type FakeDisplay struct {
	Refreshes int
}

var _ host.Display = (*FakeDisplay)(nil)

func (d *FakeDisplay) Refresh() { d.Refreshes++ }

// FakeClock replays a scripted tick sequence; the last value sticks once
// the sequence is drained.
type FakeClock struct {
	Seq  []uint32
	last uint32
}

var _ host.Clock = (*FakeClock)(nil)

func (c *FakeClock) Ticks() uint32 {
	if len(c.Seq) == 0 {
		return c.last
	}
	c.last = c.Seq[0]
	c.Seq = c.Seq[1:]
	return c.last
}
