// Package engine runs the real-time MIDI event decode loop: it polls the
// device for 4-byte event packets without ever blocking, dispatches note
// and control-change semantics, steps the Euclidean sequencer, and
// rate-limits the display refresh with wraparound-safe tick arithmetic.
// Nothing in the loop body may perform unbounded blocking I/O; any extra
// time spent per iteration adds directly to input-to-sound latency.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/jamloop/jamloop/internal/log"
	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/midi"
	"github.com/jamloop/jamloop/pkg/rhythm"
)

// Playable note range. Notes outside 21..108 (the 88-key piano range) are
// silently ignored, a deliberate keyboard-range clamp.
const (
	NoteMin = 21
	NoteMax = 108
)

// DefaultRefreshInterval is the minimum time between display refreshes.
const DefaultRefreshInterval = 30 * time.Millisecond

// CCMap assigns control change numbers to the rhythm parameters.
type CCMap struct {
	Beats uint8
	Hits  uint8
	Shift uint8
	Tempo uint8
}

// Config wires the loop's collaborators.
type Config struct {
	Synth   host.Synth
	Display host.Display
	Clock   host.Clock
	Spec    *rhythm.Spec
	CC      CCMap

	// HitNote is the percussion note pressed on sequencer hit steps.
	HitNote uint8

	// RefreshInterval is the display refresh threshold; zero means
	// DefaultRefreshInterval.
	RefreshInterval time.Duration

	Logger *slog.Logger
	Trace  *log.EventLog
}

// Loop decodes events from one classified device until a transport error
// unwinds it. Recovery (rescan, reconnect) is entirely the caller's
// responsibility; the loop never retries I/O itself.
type Loop struct {
	conn    host.Conn
	synth   host.Synth
	display host.Display
	clock   host.Clock
	spec    *rhythm.Spec
	cc      CCMap
	hitNote uint8
	refresh uint32
	logger  *slog.Logger
	trace   *log.EventLog

	pos  int
	held bool
}

func New(conn host.Conn, cfg Config) *Loop {
	refresh := cfg.RefreshInterval
	if refresh == 0 {
		refresh = DefaultRefreshInterval
	}
	return &Loop{
		conn:    conn,
		synth:   cfg.Synth,
		display: cfg.Display,
		clock:   cfg.Clock,
		spec:    cfg.Spec,
		cc:      cfg.CC,
		hitNote: cfg.HitNote,
		refresh: uint32(refresh.Milliseconds()),
		logger:  cfg.Logger,
		trace:   cfg.Trace,
	}
}

// Run polls for events until the transport fails or ctx is canceled. A
// poll with no data returns immediately so the timing checks below it run
// every iteration: a burst of events must not starve the display, and
// heavy traffic must not force refreshes faster than the threshold.
func (l *Loop) Run(ctx context.Context) error {
	lastRefresh := l.clock.Ticks()
	lastStep := lastRefresh

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pkt, ok, err := l.conn.NextEvent()
		if err != nil {
			return err
		}
		if ok {
			l.dispatch(pkt)
		}

		now := l.clock.Ticks()

		if Elapsed(lastStep, now) >= l.stepMillis() {
			lastStep = now
			l.step()
		}

		if Elapsed(lastRefresh, now) > l.refresh {
			lastRefresh = now
			l.display.Refresh()
		}
	}
}

func (l *Loop) dispatch(pkt midi.Packet) {
	l.trace.Packet(pkt)
	ev := midi.Decode(pkt)
	switch {
	case ev.CIN == midi.CINNoteOn && inRange(ev.Data1):
		l.synth.Press(ev.Data1)
	case ev.CIN == midi.CINNoteOff && inRange(ev.Data1):
		l.synth.Release(ev.Data1)
	case ev.CIN == midi.CINControlChange && ev.Data1 == midi.CCAllNotesOff && ev.Data2 == 0:
		l.synth.Panic()
		l.held = false
		l.logger.Info("panic: all notes off", "channel", ev.Channel)
	case ev.CIN == midi.CINControlChange:
		l.controlChange(ev)
	}
}

// controlChange routes a CC to the rhythm parameter it is mapped to.
// Unmapped controllers are ignored without side effects. The pattern is
// regenerated synchronously inside the setter, so it is never observed
// stale.
func (l *Loop) controlChange(ev midi.Event) {
	v := int(ev.Data2)
	switch ev.Data1 {
	case l.cc.Beats:
		l.spec.SetBeats(v)
	case l.cc.Hits:
		l.spec.SetHits(v)
	case l.cc.Shift:
		l.spec.SetShift(v)
	case l.cc.Tempo:
		l.spec.SetBPM(v)
	default:
		return
	}
	l.logger.Debug("rhythm updated",
		"cc", ev.Data1, "value", ev.Data2,
		"beats", l.spec.Beats(), "hits", l.spec.Hits(),
		"shift", l.spec.Shift(), "bpm", l.spec.BPM(),
		"pattern", l.spec.Pattern().String(),
	)
}

// step advances the sequencer cursor by one beat, releasing the previous
// percussion hit and pressing a new one on Hit steps.
func (l *Loop) step() {
	if l.held {
		l.synth.Release(l.hitNote)
		l.held = false
	}
	pat := l.spec.Pattern()
	if len(pat) == 0 {
		return
	}
	if l.pos >= len(pat) {
		l.pos = 0
	}
	if pat[l.pos] == rhythm.Hit {
		l.synth.Press(l.hitNote)
		l.held = true
	}
	l.pos++
}

// Position returns the current sequencer cursor, for display.
func (l *Loop) Position() int { return l.pos }

func (l *Loop) stepMillis() uint32 {
	return uint32(60_000 / l.spec.BPM())
}

func inRange(note uint8) bool {
	return NoteMin <= note && note <= NoteMax
}
