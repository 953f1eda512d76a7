// Package seqport adapts an OS MIDI input port (via gomidi) to the
// host.Bus and host.Conn capabilities, for hosts where raw USB access is
// unavailable. Incoming messages are framed into 4-byte USB-MIDI packets
// and a canonical descriptor blob is synthesized so the discovery and
// classification paths are identical to the real USB transport.
package seqport

import (
	"errors"
	"log/slog"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register MIDI driver

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/midi"
	"github.com/jamloop/jamloop/pkg/usb"
)

// Synthetic identity reported by the descriptor blob. 0xF055 is the
// community VID used by open source projects.
const (
	vendorID  = 0xF055
	productID = 0x4A4C
)

// Bus lists the OS MIDI input ports and connects to the first one whose
// name contains the configured substring (or the first port when no filter
// is set).
type Bus struct {
	portFilter string
	logger     *slog.Logger
}

var _ host.Bus = (*Bus)(nil)

func New(portFilter string, logger *slog.Logger) *Bus {
	return &Bus{portFilter: portFilter, logger: logger}
}

// Close shuts down the MIDI driver.
func (b *Bus) Close() error {
	gomidi.CloseDriver()
	return nil
}

func (b *Bus) Probe() (host.Conn, error) {
	for _, in := range gomidi.GetInPorts() {
		if b.portFilter != "" && !strings.Contains(strings.ToLower(in.String()), strings.ToLower(b.portFilter)) {
			continue
		}
		b.logger.Debug("opening MIDI port", "port", in.String())
		return newConn(in)
	}
	return nil, nil
}

type conn struct {
	port   drivers.In
	stop   func()
	events chan midi.Packet

	devDesc []byte
	cfgBlob []byte
}

var _ host.Conn = (*conn)(nil)

func newConn(port drivers.In) (*conn, error) {
	c := &conn{
		port:   port,
		events: make(chan midi.Packet, 256),
	}

	stop, err := gomidi.ListenTo(port, c.onMessage)
	if err != nil {
		return nil, &host.TransportError{Op: "open port", Err: err}
	}
	c.stop = stop

	c.devDesc = usb.DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       usb.ClassPerInterface,
		BMaxPacketSize0:    64,
		IDVendor:           vendorID,
		IDProduct:          productID,
		BNumConfigurations: 1,
	}.Bytes()
	c.cfgBlob = usb.ConfigBlob(
		usb.ConfigurationDescriptor{BConfigurationValue: 1, BMaxPower: 50},
		[]usb.InterfaceDescriptor{
			{
				BInterfaceNumber:   0,
				BInterfaceClass:    usb.ClassAudio,
				BInterfaceSubClass: usb.SubclassMIDIStreaming,
				Endpoints: []usb.EndpointDescriptor{
					{BEndpointAddress: 0x81, BMAttributes: 0x02, WMaxPacketSize: 64},
				},
			},
		},
	)
	return c, nil
}

// onMessage frames a parsed MIDI message back into a USB-MIDI packet.
// The channel buffer absorbs bursts; if the consumer falls behind, the
// oldest semantics win and new packets are dropped rather than blocking
// the driver callback.
func (c *conn) onMessage(msg gomidi.Message, _ int32) {
	var ch, d1, d2 uint8
	var p midi.Packet
	switch {
	case msg.GetNoteOn(&ch, &d1, &d2):
		p = midi.Packet{midi.CINNoteOn, 0x90 | ch, d1, d2}
	case msg.GetNoteOff(&ch, &d1, &d2):
		p = midi.Packet{midi.CINNoteOff, 0x80 | ch, d1, d2}
	case msg.GetControlChange(&ch, &d1, &d2):
		p = midi.Packet{midi.CINControlChange, 0xB0 | ch, d1, d2}
	default:
		return
	}
	select {
	case c.events <- p:
	default:
	}
}

func (c *conn) Descriptor(descType uint8, buf []byte) (int, error) {
	switch descType {
	case usb.DeviceDescType:
		return copy(buf, c.devDesc), nil
	case usb.ConfigDescType:
		return copy(buf, c.cfgBlob), nil
	}
	return 0, &host.TransportError{Op: "get descriptor", Err: errUnknownDescriptor}
}

var errUnknownDescriptor = errors.New("unknown descriptor type")

// Claim is a no-op: the port is already open and streaming.
func (c *conn) Claim(configValue, iface, endpointAddr uint8) error {
	return nil
}

func (c *conn) NextEvent() (midi.Packet, bool, error) {
	select {
	case p := <-c.events:
		return p, true, nil
	default:
		return midi.Packet{}, false, nil
	}
}

func (c *conn) Close() error {
	if c.stop != nil {
		c.stop()
	}
	return c.port.Close()
}
