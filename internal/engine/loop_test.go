package engine_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jamloop/jamloop/internal/engine"
	"github.com/jamloop/jamloop/internal/hosttest"
	"github.com/jamloop/jamloop/internal/log"
	"github.com/jamloop/jamloop/pkg/midi"
	"github.com/jamloop/jamloop/pkg/rhythm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCC = engine.CCMap{Beats: 20, Hits: 21, Shift: 22, Tempo: 23}

func quietSpec() *rhythm.Spec {
	// No hits, so the sequencer never presses the percussion note.
	s := rhythm.NewSpec()
	s.SetHits(0)
	return s
}

func newLoop(conn *hosttest.FakeConn, synth *hosttest.FakeSynth, display *hosttest.FakeDisplay, clock *hosttest.FakeClock, spec *rhythm.Spec) *engine.Loop {
	return engine.New(conn, engine.Config{
		Synth:   synth,
		Display: display,
		Clock:   clock,
		Spec:    spec,
		CC:      testCC,
		HitNote: 36,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Trace:   log.NewEventLog(nil),
	})
}

func TestRunDispatchesNotesInRange(t *testing.T) {
	conn := &hosttest.FakeConn{
		Events: []midi.Packet{
			{0x09, 0x90, 60, 100},  // note on 60
			{0x09, 0x90, 127, 100}, // out of keyboard range: ignored
			{0x08, 0x80, 60, 0},    // note off 60
		},
		EventErr: io.ErrUnexpectedEOF,
	}
	synth := &hosttest.FakeSynth{}

	l := newLoop(conn, synth, &hosttest.FakeDisplay{}, &hosttest.FakeClock{}, quietSpec())
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, []uint8{60}, synth.Pressed)
	assert.Equal(t, []uint8{60}, synth.Released)
	assert.Zero(t, synth.Panics)
}

func TestRunIgnoresUndecodedEvents(t *testing.T) {
	conn := &hosttest.FakeConn{
		Events: []midi.Packet{
			{0x04, 0xf0, 1, 2},   // sysex start: passed through undecoded
			{0x0e, 0xe0, 0, 64},  // pitch bend: no action wired
			{0x0b, 0xb0, 99, 12}, // unmapped CC
			{0x08, 0x80, 20, 0},  // note off below range
			{0x09, 0x90, 109, 1}, // note on above range
		},
		EventErr: io.ErrUnexpectedEOF,
	}
	synth := &hosttest.FakeSynth{}

	l := newLoop(conn, synth, &hosttest.FakeDisplay{}, &hosttest.FakeClock{}, quietSpec())
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Empty(t, synth.Pressed)
	assert.Empty(t, synth.Released)
	assert.Zero(t, synth.Panics)
}

func TestRunPanicOnCC123(t *testing.T) {
	conn := &hosttest.FakeConn{
		Events: []midi.Packet{
			{0x09, 0x90, 60, 100},
			{0x0b, 0xb3, 123, 0}, // all notes off, any channel
			{0x0b, 0xb0, 123, 5}, // nonzero value: not a panic
		},
		EventErr: io.ErrUnexpectedEOF,
	}
	synth := &hosttest.FakeSynth{}

	l := newLoop(conn, synth, &hosttest.FakeDisplay{}, &hosttest.FakeClock{}, quietSpec())
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, 1, synth.Panics)
}

func TestRunUpdatesRhythmFromCC(t *testing.T) {
	conn := &hosttest.FakeConn{
		Events: []midi.Packet{
			{0x0b, 0xb0, 20, 8},   // beats = 8
			{0x0b, 0xb0, 21, 5},   // hits = 5
			{0x0b, 0xb0, 23, 127}, // bpm = 127
		},
		EventErr: io.ErrUnexpectedEOF,
	}
	spec := rhythm.NewSpec()

	l := newLoop(conn, &hosttest.FakeSynth{}, &hosttest.FakeDisplay{}, &hosttest.FakeClock{}, spec)
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, 8, spec.Beats())
	assert.Equal(t, 5, spec.Hits())
	assert.Equal(t, 127, spec.BPM())
	assert.Equal(t, "x.xx.x.x", spec.Pattern().String())
}

func TestRunRefreshRateLimit(t *testing.T) {
	// Six no-data polls with ticks 10,31,40,62,70: refresh fires only when
	// more than 30ms elapsed since the last one.
	conn := &hosttest.FakeConn{NoDataPolls: 5, EventErr: io.ErrUnexpectedEOF}
	display := &hosttest.FakeDisplay{}
	clock := &hosttest.FakeClock{Seq: []uint32{0, 10, 31, 40, 62, 70}}

	l := newLoop(conn, &hosttest.FakeSynth{}, display, clock, quietSpec())
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, 2, display.Refreshes)
}

func TestRunRefreshAcrossTickWraparound(t *testing.T) {
	conn := &hosttest.FakeConn{NoDataPolls: 1, EventErr: io.ErrUnexpectedEOF}
	display := &hosttest.FakeDisplay{}
	clock := &hosttest.FakeClock{Seq: []uint32{0x1FFFFFF0, 0x10}}

	l := newLoop(conn, &hosttest.FakeSynth{}, display, clock, quietSpec())
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	assert.Equal(t, 1, display.Refreshes)
}

func TestRunStepsSequencer(t *testing.T) {
	conn := &hosttest.FakeConn{NoDataPolls: 2, EventErr: io.ErrUnexpectedEOF}
	synth := &hosttest.FakeSynth{}
	// 120 BPM = one step every 500ms.
	spec := rhythm.NewSpec()
	spec.SetBeats(4)
	spec.SetHits(4)
	clock := &hosttest.FakeClock{Seq: []uint32{0, 500, 1000}}

	l := newLoop(conn, synth, &hosttest.FakeDisplay{}, clock, spec)
	err := l.Run(context.Background())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// Two steps on an all-hit pattern: press, then release+press.
	assert.Equal(t, []uint8{36, 36}, synth.Pressed)
	assert.Equal(t, []uint8{36}, synth.Released)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &hosttest.FakeConn{NoDataPolls: 1 << 20}
	l := newLoop(conn, &hosttest.FakeSynth{}, &hosttest.FakeDisplay{}, &hosttest.FakeClock{}, quietSpec())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on canceled context")
	}
}
