// Package usb models standard USB descriptors: typed records, binary
// encoders, and a validating parser/classifier for raw descriptor blobs
// fetched over control transfers.
package usb

import (
	"bytes"
	"encoding/binary"
)

// USB descriptor type constants
const (
	DeviceDescType    = 0x01
	ConfigDescType    = 0x02
	InterfaceDescType = 0x04
	EndpointDescType  = 0x05
)

// Descriptor lengths in bytes (fixed values from USB spec). Endpoint
// descriptors may carry up to two extra trailing bytes on audio-class
// devices.
const (
	DeviceDescLen      = 18
	ConfigDescLen      = 9
	InterfaceDescLen   = 9
	EndpointDescLen    = 7
	EndpointDescLenMax = 9
)

// Class codes used for USB-MIDI classification.
const (
	ClassPerInterface     = 0x00
	ClassAudio            = 0x01
	SubclassMIDIStreaming = 0x03
)

// Direction is the endpoint direction encoded in the top bit of
// bEndpointAddress.
type Direction uint8

const (
	DirOut Direction = 0x00
	DirIn  Direction = 0x80
)

const dirMask = 0x80

func (d Direction) String() string {
	if d == DirIn {
		return "in"
	}
	return "out"
}

// TransferType is the endpoint transfer type from the low 2 bits of
// bmAttributes.
type TransferType uint8

const (
	TransferControl TransferType = iota
	TransferIsochronous
	TransferBulk
	TransferInterrupt
)

func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferIsochronous:
		return "iso"
	case TransferBulk:
		return "bulk"
	case TransferInterrupt:
		return "interrupt"
	}
	return ""
}

// DeviceDescriptor represents the standard 18-byte USB device descriptor.
// BLength and BDescriptorType are implied by DeviceDescLen/DeviceDescType.
type DeviceDescriptor struct {
	BcdUSB             uint16 // LE
	BDeviceClass       uint8
	BDeviceSubClass    uint8
	BDeviceProtocol    uint8
	BMaxPacketSize0    uint8
	IDVendor           uint16 // LE
	IDProduct          uint16 // LE
	BcdDevice          uint16 // LE
	IManufacturer      uint8
	IProduct           uint8
	ISerialNumber      uint8
	BNumConfigurations uint8
}

// Bytes returns the binary representation of the DeviceDescriptor.
func (d DeviceDescriptor) Bytes() []byte {
	var b bytes.Buffer
	b.WriteByte(DeviceDescLen)
	b.WriteByte(DeviceDescType)
	_ = binary.Write(&b, binary.LittleEndian, d.BcdUSB)
	b.WriteByte(d.BDeviceClass)
	b.WriteByte(d.BDeviceSubClass)
	b.WriteByte(d.BDeviceProtocol)
	b.WriteByte(d.BMaxPacketSize0)
	_ = binary.Write(&b, binary.LittleEndian, d.IDVendor)
	_ = binary.Write(&b, binary.LittleEndian, d.IDProduct)
	_ = binary.Write(&b, binary.LittleEndian, d.BcdDevice)
	b.WriteByte(d.IManufacturer)
	b.WriteByte(d.IProduct)
	b.WriteByte(d.ISerialNumber)
	b.WriteByte(d.BNumConfigurations)
	return b.Bytes()
}

// ConfigurationDescriptor represents the 9-byte USB configuration
// descriptor header.
type ConfigurationDescriptor struct {
	WTotalLength        uint16 // LE, patched by ConfigBlob when zero
	BNumInterfaces      uint8
	BConfigurationValue uint8
	IConfiguration      uint8
	BMAttributes        uint8
	BMaxPower           uint8 // units are 2 mA
}

func (c ConfigurationDescriptor) Write(b *bytes.Buffer) {
	b.WriteByte(ConfigDescLen)
	b.WriteByte(ConfigDescType)
	_ = binary.Write(b, binary.LittleEndian, c.WTotalLength)
	b.WriteByte(c.BNumInterfaces)
	b.WriteByte(c.BConfigurationValue)
	b.WriteByte(c.IConfiguration)
	b.WriteByte(c.BMAttributes)
	b.WriteByte(c.BMaxPower)
}

// InterfaceDescriptor represents the 9-byte USB interface descriptor plus
// the endpoint descriptors that followed it in the configuration blob
// (insertion order = parse order).
type InterfaceDescriptor struct {
	BInterfaceNumber   uint8
	BAlternateSetting  uint8
	BNumEndpoints      uint8
	BInterfaceClass    uint8
	BInterfaceSubClass uint8
	BInterfaceProtocol uint8
	IInterface         uint8

	Endpoints []EndpointDescriptor
}

func (i InterfaceDescriptor) Write(b *bytes.Buffer) {
	b.WriteByte(InterfaceDescLen)
	b.WriteByte(InterfaceDescType)
	b.WriteByte(i.BInterfaceNumber)
	b.WriteByte(i.BAlternateSetting)
	b.WriteByte(i.BNumEndpoints)
	b.WriteByte(i.BInterfaceClass)
	b.WriteByte(i.BInterfaceSubClass)
	b.WriteByte(i.BInterfaceProtocol)
	b.WriteByte(i.IInterface)
}

// EndpointDescriptor represents the 7-byte USB endpoint descriptor.
type EndpointDescriptor struct {
	BEndpointAddress uint8
	BMAttributes     uint8
	WMaxPacketSize   uint16 // LE
	BInterval        uint8
}

func (e EndpointDescriptor) Write(b *bytes.Buffer) {
	b.WriteByte(EndpointDescLen)
	b.WriteByte(EndpointDescType)
	b.WriteByte(e.BEndpointAddress)
	b.WriteByte(e.BMAttributes)
	_ = binary.Write(b, binary.LittleEndian, e.WMaxPacketSize)
	b.WriteByte(e.BInterval)
}

// Direction returns the direction bit of bEndpointAddress.
func (e EndpointDescriptor) Direction() Direction {
	return Direction(e.BEndpointAddress & dirMask)
}

// Number returns the endpoint number without the direction bit.
func (e EndpointDescriptor) Number() uint8 {
	return e.BEndpointAddress &^ dirMask
}

// TransferType returns the transfer type from the low 2 bits of
// bmAttributes.
func (e EndpointDescriptor) TransferType() TransferType {
	return TransferType(e.BMAttributes & 0x3)
}

// ConfigBlob assembles a full configuration descriptor blob: the
// configuration header followed by each interface descriptor and its
// endpoints. BNumInterfaces, per-interface BNumEndpoints and WTotalLength
// are auto-filled.
func ConfigBlob(cfg ConfigurationDescriptor, ifaces []InterfaceDescriptor) []byte {
	var b bytes.Buffer
	cfg.BNumInterfaces = uint8(len(ifaces))
	cfg.Write(&b)
	for _, i := range ifaces {
		i.BNumEndpoints = uint8(len(i.Endpoints))
		i.Write(&b)
		for _, e := range i.Endpoints {
			e.Write(&b)
		}
	}
	out := b.Bytes()
	binary.LittleEndian.PutUint16(out[2:4], uint16(len(out)))
	return out
}
