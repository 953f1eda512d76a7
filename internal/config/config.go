// Package config defines the CLI structure and configuration for jamloop.
package config

import (
	"github.com/jamloop/jamloop/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"JAMLOOP_LOG_LEVEL"`
	File    string `help:"Log file path (default: none; logs only to console)" env:"JAMLOOP_LOG_FILE"`
	RawFile string `help:"Raw MIDI packet log file path (default: none)" env:"JAMLOOP_LOG_RAW_FILE"`
}

// CLI is the root command structure for Kong CLI parsing.
type CLI struct {
	Log    `embed:"" prefix:"log."`
	Config string `help:"Config file path" env:"JAMLOOP_CONFIG"`

	Run     cmd.Run     `cmd:"" default:"withargs" help:"Scan the USB bus for a MIDI device and run the event loop"`
	Pattern cmd.Pattern `cmd:"" help:"Print Euclidean rhythm patterns without connecting a device"`
}
