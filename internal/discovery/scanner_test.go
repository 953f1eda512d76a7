package discovery_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jamloop/jamloop/internal/discovery"
	"github.com/jamloop/jamloop/internal/hosttest"
	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/usb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func midiDeviceBytes() []byte {
	return usb.DeviceDescriptor{
		BcdUSB:             0x0200,
		BDeviceClass:       usb.ClassPerInterface,
		BMaxPacketSize0:    64,
		IDVendor:           0x1c75,
		IDProduct:          0x0288,
		BNumConfigurations: 1,
	}.Bytes()
}

func midiConfigBytes() []byte {
	return usb.ConfigBlob(
		usb.ConfigurationDescriptor{BConfigurationValue: 1, BMaxPower: 50},
		[]usb.InterfaceDescriptor{
			{
				BInterfaceNumber:   1,
				BInterfaceClass:    usb.ClassAudio,
				BInterfaceSubClass: usb.SubclassMIDIStreaming,
				Endpoints: []usb.EndpointDescriptor{
					{BEndpointAddress: 0x82, BMAttributes: 0x02, WMaxPacketSize: 64},
				},
			},
		},
	)
}

func hidConfigBytes() []byte {
	return usb.ConfigBlob(
		usb.ConfigurationDescriptor{BConfigurationValue: 1},
		[]usb.InterfaceDescriptor{
			{
				BInterfaceNumber: 0,
				BInterfaceClass:  0x03, // HID
				Endpoints: []usb.EndpointDescriptor{
					{BEndpointAddress: 0x81, BMAttributes: 0x03},
				},
			},
		},
	)
}

func TestFindAcceptsFirstMIDIDevice(t *testing.T) {
	conn := &hosttest.FakeConn{DevDesc: midiDeviceBytes(), ConfigDesc: midiConfigBytes()}
	bus := &hosttest.FakeBus{Conns: []host.Conn{conn}}

	s := discovery.New(bus, time.Millisecond, testLogger())
	dev, err := s.Find(context.Background())
	require.NoError(t, err)

	assert.Equal(t, discovery.StateClassified, s.State())
	assert.Equal(t, uint16(0x1c75), dev.Desc.IDVendor)
	assert.Equal(t, uint8(1), dev.Interface)
	assert.Equal(t, uint8(0x82), dev.In.BEndpointAddress)

	assert.True(t, conn.Claimed)
	assert.Equal(t, uint8(1), conn.ClaimedConfig)
	assert.Equal(t, uint8(1), conn.ClaimedIface)
	assert.Equal(t, uint8(0x82), conn.ClaimedEP)
	assert.False(t, conn.Closed)
}

func TestFindRejectsNonMIDIDeviceThenAcceptsNext(t *testing.T) {
	hid := &hosttest.FakeConn{DevDesc: midiDeviceBytes(), ConfigDesc: hidConfigBytes()}
	piano := &hosttest.FakeConn{DevDesc: midiDeviceBytes(), ConfigDesc: midiConfigBytes()}
	bus := &hosttest.FakeBus{Conns: []host.Conn{hid, piano}}

	s := discovery.New(bus, time.Millisecond, testLogger())
	dev, err := s.Find(context.Background())
	require.NoError(t, err)

	assert.True(t, hid.Closed, "rejected candidate must be closed")
	assert.False(t, hid.Claimed)
	assert.Same(t, piano, dev.Conn)
}

func TestFindRejectsMalformedDescriptors(t *testing.T) {
	type testCase struct {
		name string
		conn *hosttest.FakeConn
	}

	truncated := midiDeviceBytes()[:12]

	endpointFirst := []byte{
		9, 2, 25, 0, 1, 1, 0, 0x80, 50,
		7, 5, 0x81, 0x02, 0x40, 0x00, 0x00, // endpoint with no interface
	}

	cases := []testCase{
		{name: "truncated device descriptor", conn: &hosttest.FakeConn{DevDesc: truncated, ConfigDesc: midiConfigBytes()}},
		{name: "endpoint before interface", conn: &hosttest.FakeConn{DevDesc: midiDeviceBytes(), ConfigDesc: endpointFirst}},
		{name: "transport error", conn: &hosttest.FakeConn{DescErr: errors.New("timeout")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			good := &hosttest.FakeConn{DevDesc: midiDeviceBytes(), ConfigDesc: midiConfigBytes()}
			bus := &hosttest.FakeBus{Conns: []host.Conn{tc.conn, good}}

			s := discovery.New(bus, time.Millisecond, testLogger())
			dev, err := s.Find(context.Background())
			require.NoError(t, err)

			assert.True(t, tc.conn.Closed, "rejected candidate must be closed")
			assert.Same(t, good, dev.Conn)
		})
	}
}

func TestFindStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := discovery.New(&hosttest.FakeBus{}, time.Millisecond, testLogger())
	_, err := s.Find(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
