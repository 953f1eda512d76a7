package usb

import (
	"encoding/binary"
	"fmt"
)

// ParseError reports a malformed or truncated descriptor. It is structural:
// the enclosing device is rejected, never retried.
type ParseError struct {
	msg string
}

func (e *ParseError) Error() string { return "usb: " + e.msg }

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{msg: fmt.Sprintf(format, args...)}
}

// SplitDescriptors slices a combined descriptor blob into its individual
// sub-descriptors. The first byte of each slice is that sub-descriptor's
// declared length. Slicing stops cleanly, without error, at the first
// zero-length byte, at the end of the buffer, or when a declared length
// would read past the buffer end; real devices routinely pad the tail of a
// configuration response with garbage. No partial sub-descriptor is ever
// returned.
func SplitDescriptors(data []byte) [][]byte {
	var slices [][]byte
	cursor := 0
	limit := len(data)
	for cursor < limit {
		length := int(data[cursor])
		if length == 0 {
			break
		}
		if cursor+length > limit {
			break
		}
		slices = append(slices, data[cursor:cursor+length])
		cursor += length
	}
	return slices
}

// ParseDevice validates and parses an 18-byte device descriptor. Every
// field offset is trusted only after the length/type signature checks, so a
// truncated buffer yields a ParseError rather than an out-of-range read.
func ParseDevice(d []byte) (DeviceDescriptor, error) {
	if len(d) != DeviceDescLen || d[0] != DeviceDescLen || d[1] != DeviceDescType {
		return DeviceDescriptor{}, parseErrorf("bad device descriptor (%d bytes)", len(d))
	}
	return DeviceDescriptor{
		BcdUSB:             binary.LittleEndian.Uint16(d[2:4]),
		BDeviceClass:       d[4],
		BDeviceSubClass:    d[5],
		BDeviceProtocol:    d[6],
		BMaxPacketSize0:    d[7],
		IDVendor:           binary.LittleEndian.Uint16(d[8:10]),
		IDProduct:          binary.LittleEndian.Uint16(d[10:12]),
		BcdDevice:          binary.LittleEndian.Uint16(d[12:14]),
		IManufacturer:      d[14],
		IProduct:           d[15],
		ISerialNumber:      d[16],
		BNumConfigurations: d[17],
	}, nil
}

// ParseConfiguration validates and parses a 9-byte configuration
// descriptor header.
func ParseConfiguration(d []byte) (ConfigurationDescriptor, error) {
	if len(d) != ConfigDescLen || d[0] != ConfigDescLen || d[1] != ConfigDescType {
		return ConfigurationDescriptor{}, parseErrorf("bad configuration descriptor (%d bytes)", len(d))
	}
	return ConfigurationDescriptor{
		WTotalLength:        binary.LittleEndian.Uint16(d[2:4]),
		BNumInterfaces:      d[4],
		BConfigurationValue: d[5],
		IConfiguration:      d[6],
		BMAttributes:        d[7],
		BMaxPower:           d[8],
	}, nil
}

// ParseInterface validates and parses a 9-byte interface descriptor.
func ParseInterface(d []byte) (InterfaceDescriptor, error) {
	if len(d) != InterfaceDescLen || d[0] != InterfaceDescLen || d[1] != InterfaceDescType {
		return InterfaceDescriptor{}, parseErrorf("bad interface descriptor (%d bytes)", len(d))
	}
	return InterfaceDescriptor{
		BInterfaceNumber:   d[2],
		BAlternateSetting:  d[3],
		BNumEndpoints:      d[4],
		BInterfaceClass:    d[5],
		BInterfaceSubClass: d[6],
		BInterfaceProtocol: d[7],
		IInterface:         d[8],
	}, nil
}

// ParseEndpoint validates and parses an endpoint descriptor. Audio-class
// devices use 7, 8 or 9 byte variants; trailing bytes are ignored.
func ParseEndpoint(d []byte) (EndpointDescriptor, error) {
	if len(d) < EndpointDescLen || d[0] < EndpointDescLen || d[1] != EndpointDescType {
		return EndpointDescriptor{}, parseErrorf("bad endpoint descriptor (%d bytes)", len(d))
	}
	return EndpointDescriptor{
		BEndpointAddress: d[2],
		BMAttributes:     d[3],
		WMaxPacketSize:   binary.LittleEndian.Uint16(d[4:6]),
		BInterval:        d[6],
	}, nil
}

// Tree is the parsed descriptor tree for one device: exactly one device
// descriptor, zero or more configurations, and the interfaces encountered
// across all configuration blobs with their endpoints attached in parse
// order.
type Tree struct {
	Device     DeviceDescriptor
	Configs    []ConfigurationDescriptor
	Interfaces []InterfaceDescriptor
}

// Descriptor tag values packed as (bLength << 8) | bDescriptorType.
// Endpoint descriptors have no fixed tag since their length varies.
const (
	tagConfiguration = 0x0902
	tagInterface     = 0x0904
)

// BuildTree splits a raw configuration blob, classifies each slice by its
// (length, type) tag and routes it to the matching parser. Class-specific
// and other unrecognized descriptors are skipped. An endpoint descriptor is
// only valid immediately after a parsed interface descriptor; one appearing
// before any interface is a structural error.
func BuildTree(device DeviceDescriptor, blob []byte) (*Tree, error) {
	slices := SplitDescriptors(blob)
	if len(slices) == 0 {
		return nil, parseErrorf("empty configuration descriptor")
	}
	t := &Tree{Device: device}
	for _, d := range slices {
		if len(d) < 2 {
			continue
		}
		tag := uint16(d[0])<<8 | uint16(d[1])
		switch {
		case tag == tagConfiguration:
			cfg, err := ParseConfiguration(d)
			if err != nil {
				return nil, err
			}
			t.Configs = append(t.Configs, cfg)
		case tag == tagInterface:
			iface, err := ParseInterface(d)
			if err != nil {
				return nil, err
			}
			t.Interfaces = append(t.Interfaces, iface)
		case d[1] == EndpointDescType && d[0] >= EndpointDescLen && d[0] <= EndpointDescLenMax:
			ep, err := ParseEndpoint(d)
			if err != nil {
				return nil, err
			}
			if len(t.Interfaces) == 0 {
				return nil, parseErrorf("found endpoint before interface")
			}
			last := &t.Interfaces[len(t.Interfaces)-1]
			last.Endpoints = append(last.Endpoints, ep)
		}
	}
	return t, nil
}

// Interface returns the interface descriptor with the given
// bInterfaceNumber value, or nil. Lookup is by field value, not list
// position: parsed interface numbers need not be contiguous.
func (t *Tree) Interface(num uint8) *InterfaceDescriptor {
	for i := range t.Interfaces {
		if t.Interfaces[i].BInterfaceNumber == num {
			return &t.Interfaces[i]
		}
	}
	return nil
}

// Endpoints returns the named interface's endpoints filtered by direction.
// A missing interface or no matching endpoint yields an empty slice, not an
// error.
func (t *Tree) Endpoints(iface uint8, dir Direction) []EndpointDescriptor {
	var out []EndpointDescriptor
	for _, i := range t.Interfaces {
		if i.BInterfaceNumber != iface {
			continue
		}
		for _, e := range i.Endpoints {
			if e.Direction() == dir {
				out = append(out, e)
			}
		}
	}
	return out
}

// ClassSignature returns the device-level (class, subclass) pair.
func (t *Tree) ClassSignature() (uint8, uint8) {
	return t.Device.BDeviceClass, t.Device.BDeviceSubClass
}

// InterfaceSignature returns the (class, subclass) pair of the interface
// with the given number. ok is false when no such interface was parsed.
func (t *Tree) InterfaceSignature(num uint8) (class, subclass uint8, ok bool) {
	if i := t.Interface(num); i != nil {
		return i.BInterfaceClass, i.BInterfaceSubClass, true
	}
	return 0, 0, false
}
