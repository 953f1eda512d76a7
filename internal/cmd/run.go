// Package cmd holds the Kong command implementations.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamloop/jamloop/internal/discovery"
	"github.com/jamloop/jamloop/internal/engine"
	"github.com/jamloop/jamloop/internal/gousbhost"
	"github.com/jamloop/jamloop/internal/log"
	"github.com/jamloop/jamloop/internal/seqport"
	"github.com/jamloop/jamloop/internal/synth"
	"github.com/jamloop/jamloop/internal/ui"
	"github.com/jamloop/jamloop/pkg/host"
	"github.com/jamloop/jamloop/pkg/rhythm"
)

// bus is a host.Bus that owns OS resources.
type bus interface {
	host.Bus
	Close() error
}

type Run struct {
	Source       string        `help:"Event source: usb (libusb bus scan) or port (OS MIDI input port)" enum:"usb,port" default:"usb" env:"JAMLOOP_SOURCE"`
	Port         string        `help:"Substring match for the MIDI port name (source=port)" env:"JAMLOOP_PORT"`
	ScanInterval time.Duration `help:"Delay between bus scan attempts" default:"400ms" env:"JAMLOOP_SCAN_INTERVAL"`
	Refresh      time.Duration `help:"Minimum time between display refreshes" default:"30ms" env:"JAMLOOP_REFRESH"`
	HitNote      uint8         `help:"Percussion note pressed on sequencer hits" default:"36" env:"JAMLOOP_HIT_NOTE"`

	CCBeats uint8 `help:"CC number mapped to pattern length" default:"20" env:"JAMLOOP_CC_BEATS"`
	CCHits  uint8 `help:"CC number mapped to pattern hits" default:"21" env:"JAMLOOP_CC_HITS"`
	CCShift uint8 `help:"CC number mapped to pattern rotation" default:"22" env:"JAMLOOP_CC_SHIFT"`
	CCTempo uint8 `help:"CC number mapped to tempo" default:"23" env:"JAMLOOP_CC_TEMPO"`
}

// Run is called by Kong when the run command is executed. It owns the
// scan/connect/decode cycle: losing the device at any point drops back to
// scanning, forever, until interrupted.
func (r *Run) Run(logger *slog.Logger, eventLog *log.EventLog) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b bus
	switch r.Source {
	case "port":
		b = seqport.New(r.Port, logger)
	default:
		b = gousbhost.New(logger)
	}
	defer func() { _ = b.Close() }()

	spec := rhythm.NewSpec()
	sink := synth.New(logger)
	view := ui.New(spec, os.Stdout)
	scanner := discovery.New(b, r.ScanInterval, logger)
	clock := engine.NewSystemClock()

	logger.Info("starting jamloop", "source", r.Source)
	for {
		dev, err := scanner.Find(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		view.SetBanner(fmt.Sprintf("%04X:%04X", dev.Desc.IDVendor, dev.Desc.IDProduct))
		loop := engine.New(dev.Conn, engine.Config{
			Synth:           sink,
			Display:         view,
			Clock:           clock,
			Spec:            spec,
			CC:              engine.CCMap{Beats: r.CCBeats, Hits: r.CCHits, Shift: r.CCShift, Tempo: r.CCTempo},
			HitNote:         r.HitNote,
			RefreshInterval: r.Refresh,
			Logger:          logger,
			Trace:           eventLog,
		})
		view.SetCursor(loop)

		err = loop.Run(ctx)
		_ = dev.Close()
		view.SetCursor(nil)
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stdout)
			logger.Info("shutting down")
			return nil
		}
		logger.Warn("device lost, rescanning", "error", err)
	}
}
