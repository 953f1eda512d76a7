// Package gousbhost adapts a libusb host controller (via gousb) to the
// host.Bus and host.Conn capabilities. Descriptor bytes are fetched with
// raw GET_DESCRIPTOR control transfers so the core's own parser and
// classifier stay in charge; gousb's pre-parsed descriptor view is only
// used to pick a candidate to open.
package gousbhost

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/gousb"

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/midi"
)

// pollTimeout bounds one IN transfer attempt. The event loop needs polls
// to return quickly when no data is pending; libusb reports that as a
// cancelled/timed-out transfer, which the adapter maps to "no data".
const pollTimeout = 2 * time.Millisecond

// Bus scans the libusb device list. The first device that is not the host
// itself gets opened and handed to discovery for classification.
type Bus struct {
	ctx    *gousb.Context
	logger *slog.Logger
	seen   map[string]bool
}

var _ host.Bus = (*Bus)(nil)

func New(logger *slog.Logger) *Bus {
	return &Bus{
		ctx:    gousb.NewContext(),
		logger: logger,
		seen:   make(map[string]bool),
	}
}

func (b *Bus) Close() error {
	return b.ctx.Close()
}

// Probe opens the next device on the bus that has not been rejected in
// this scan pass. Devices with no configurations (hubs mid-enumeration)
// are skipped.
func (b *Bus) Probe() (host.Conn, error) {
	var picked *gousb.DeviceDesc
	devs, err := b.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if picked != nil || len(desc.Configs) == 0 || b.seen[key(desc)] {
			return false
		}
		picked = desc
		return true
	})
	if err != nil && len(devs) == 0 {
		// OpenDevices reports an error when any open fails; with no
		// device in hand there is nothing to probe this pass.
		return nil, &host.TransportError{Op: "open device", Err: err}
	}
	if len(devs) == 0 {
		b.seen = make(map[string]bool) // full pass done, rescan from scratch
		return nil, nil
	}
	dev := devs[0]
	b.seen[key(dev.Desc)] = true
	dev.ControlTimeout = host.DescriptorTimeout
	if err := dev.SetAutoDetach(true); err != nil {
		b.logger.Debug("auto-detach not available", "device", dev.String(), "error", err)
	}
	return &conn{dev: dev}, nil
}

func key(desc *gousb.DeviceDesc) string {
	return desc.Vendor.String() + ":" + desc.Product.String()
}

// conn is one opened device.
type conn struct {
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	ep   *gousb.InEndpoint

	buf     []byte
	pending []midi.Packet
}

var _ host.Conn = (*conn)(nil)

func (c *conn) Descriptor(descType uint8, buf []byte) (int, error) {
	n, err := c.dev.Control(
		host.RequestTypeIn,
		host.RequestGetDescriptor,
		uint16(descType)<<8,
		0,
		buf,
	)
	if err != nil {
		return 0, &host.TransportError{Op: "get descriptor", Err: err}
	}
	return n, nil
}

func (c *conn) Claim(configValue, iface, endpointAddr uint8) error {
	cfg, err := c.dev.Config(int(configValue))
	if err != nil {
		return &host.TransportError{Op: "set configuration", Err: err}
	}
	intf, err := cfg.Interface(int(iface), 0)
	if err != nil {
		_ = cfg.Close()
		return &host.TransportError{Op: "claim interface", Err: err}
	}
	ep, err := intf.InEndpoint(int(endpointAddr & 0x0f))
	if err != nil {
		intf.Close()
		_ = cfg.Close()
		return &host.TransportError{Op: "open endpoint", Err: err}
	}
	c.cfg, c.intf, c.ep = cfg, intf, ep
	c.buf = make([]byte, ep.Desc.MaxPacketSize)
	return nil
}

// NextEvent returns one queued packet if a previous transfer carried
// several, otherwise attempts a single bounded read. A timed-out transfer
// means no data is pending, not a failure.
func (c *conn) NextEvent() (midi.Packet, bool, error) {
	if len(c.pending) > 0 {
		p := c.pending[0]
		c.pending = c.pending[1:]
		return p, true, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	n, err := c.ep.ReadContext(ctx, c.buf)
	cancel()
	if err != nil {
		if errors.Is(err, gousb.TransferCancelled) || errors.Is(err, gousb.TransferTimedOut) {
			return midi.Packet{}, false, nil
		}
		return midi.Packet{}, false, &host.TransportError{Op: "read event", Err: err}
	}

	for i := 0; i+4 <= n; i += 4 {
		var p midi.Packet
		copy(p[:], c.buf[i:i+4])
		if p.IsZero() {
			continue // transfer padding
		}
		c.pending = append(c.pending, p)
	}
	if len(c.pending) == 0 {
		return midi.Packet{}, false, nil
	}
	p := c.pending[0]
	c.pending = c.pending[1:]
	return p, true, nil
}

func (c *conn) Close() error {
	if c.intf != nil {
		c.intf.Close()
	}
	if c.cfg != nil {
		_ = c.cfg.Close()
	}
	return c.dev.Close()
}
