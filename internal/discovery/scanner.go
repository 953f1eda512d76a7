// Package discovery scans the USB bus for an attached USB-MIDI device. It
// fetches and parses device and configuration descriptors over control
// transfers, classifies candidates against the MIDI streaming class
// signature, and hands the first match to the event loop. Any failure at
// any step discards all partial state and resumes scanning.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/usb"
)

// State is the scan progress for one connection attempt.
type State uint8

const (
	StateScanning State = iota
	StateCandidateFound
	StateDescriptorFetched
	StateClassified
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateCandidateFound:
		return "candidate-found"
	case StateDescriptorFetched:
		return "descriptor-fetched"
	case StateClassified:
		return "classified"
	}
	return "unknown"
}

// errNotMIDI marks a well-formed device that is not a MIDI device. It is
// not surfaced to the user; the scanner silently keeps looking.
var errNotMIDI = errors.New("no MIDI streaming interface")

// Device is a classified USB-MIDI device ready for the event loop.
type Device struct {
	Conn host.Conn
	Desc usb.DeviceDescriptor
	Tree *usb.Tree

	// Interface is the bInterfaceNumber of the MIDI streaming interface;
	// In is its first IN endpoint.
	Interface uint8
	In        usb.EndpointDescriptor
}

// Close releases the underlying connection.
func (d *Device) Close() error {
	return d.Conn.Close()
}

// Scanner polls a bus for candidate devices at a fixed low-frequency
// interval. Only one device is tracked at a time: accepting a device
// invalidates everything from a previous one.
type Scanner struct {
	bus      host.Bus
	interval time.Duration
	logger   *slog.Logger
	state    State
}

func New(bus host.Bus, interval time.Duration, logger *slog.Logger) *Scanner {
	return &Scanner{bus: bus, interval: interval, logger: logger}
}

// State returns the current scan state.
func (s *Scanner) State() State { return s.state }

// Find blocks until a MIDI device is classified or ctx is canceled. The
// sleep between scan attempts is an intentional yield, not a busy-spin;
// discovery is not a hard real-time phase.
func (s *Scanner) Find(ctx context.Context) (*Device, error) {
	s.logger.Info("scanning bus for MIDI device")
	for {
		s.state = StateScanning
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.interval):
		}

		conn, err := s.bus.Probe()
		if err != nil {
			s.logger.Debug("bus probe failed", "error", err)
			continue
		}
		if conn == nil {
			continue
		}

		dev, err := s.classify(conn)
		if err != nil {
			_ = conn.Close()
			var pe *usb.ParseError
			switch {
			case errors.Is(err, errNotMIDI):
				s.logger.Debug("device is not USB-MIDI, rescanning")
			case errors.As(err, &pe):
				s.logger.Warn("malformed descriptor, rejecting device", "error", err)
			default:
				s.logger.Warn("descriptor fetch failed, rescanning", "error", err)
			}
			continue
		}

		s.state = StateClassified
		s.logger.Info("found MIDI device",
			"vid", fmt.Sprintf("%04X", dev.Desc.IDVendor),
			"pid", fmt.Sprintf("%04X", dev.Desc.IDProduct),
			"interface", dev.Interface,
			"endpoint", dev.In.BEndpointAddress,
		)
		return dev, nil
	}
}

// classify walks one candidate through CANDIDATE_FOUND and
// DESCRIPTOR_FETCHED. On any error the caller discards the connection; no
// partial device state survives a rejection.
func (s *Scanner) classify(conn host.Conn) (*Device, error) {
	s.state = StateCandidateFound

	buf := make([]byte, usb.DeviceDescLen)
	n, err := conn.Descriptor(usb.DeviceDescType, buf)
	if err != nil {
		return nil, err
	}
	desc, err := usb.ParseDevice(buf[:n])
	if err != nil {
		return nil, err
	}

	cfg := make([]byte, host.ConfigBufLen)
	n, err = conn.Descriptor(usb.ConfigDescType, cfg)
	if err != nil {
		return nil, err
	}
	tree, err := usb.BuildTree(desc, cfg[:n])
	if err != nil {
		return nil, err
	}
	s.state = StateDescriptorFetched

	iface, in, ok := findMIDIStreaming(tree)
	if !ok {
		return nil, errNotMIDI
	}

	configValue := uint8(1)
	if len(tree.Configs) > 0 {
		configValue = tree.Configs[0].BConfigurationValue
	}
	if err := conn.Claim(configValue, iface, in.BEndpointAddress); err != nil {
		return nil, err
	}

	return &Device{
		Conn:      conn,
		Desc:      desc,
		Tree:      tree,
		Interface: iface,
		In:        in,
	}, nil
}

// findMIDIStreaming looks for an interface with the USB-MIDI streaming
// class signature (audio class 0x01, MIDI streaming subclass 0x03) that has
// at least one IN endpoint. Device-level class must defer to interfaces
// (0x00) or be audio class itself.
func findMIDIStreaming(tree *usb.Tree) (uint8, usb.EndpointDescriptor, bool) {
	if class, _ := tree.ClassSignature(); class != usb.ClassPerInterface && class != usb.ClassAudio {
		return 0, usb.EndpointDescriptor{}, false
	}
	for _, i := range tree.Interfaces {
		if i.BInterfaceClass != usb.ClassAudio || i.BInterfaceSubClass != usb.SubclassMIDIStreaming {
			continue
		}
		ins := tree.Endpoints(i.BInterfaceNumber, usb.DirIn)
		if len(ins) == 0 {
			continue
		}
		return i.BInterfaceNumber, ins[0], true
	}
	return 0, usb.EndpointDescriptor{}, false
}
