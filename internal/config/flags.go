package config

// This file registers CLI flags on pflag sets owned by the cobra commands.
// Flag names double as koanf keys so the posflag provider can overlay them.
// Negated flags (e.g. --no-overwrite) are applied after Load so Config
// defaults hold unless set.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// BindGlobalFlags registers flags shared by every command: tool paths,
// config file, logging and color.
func BindGlobalFlags(fs *pflag.FlagSet, def Config) {
	fs.String("config", "", "YAML config file")
	fs.String("ffmpeg", def.FFmpegPath, "ffmpeg executable")
	fs.String("ffprobe", def.FFprobePath, "ffprobe executable")
	fs.BoolP("verbose", "v", def.Verbose, "Verbose output")
	fs.Var(newColorModeValue(def.ColorMode), "color", "Color output: auto | always | never")
	fs.StringP("log-file", "l", def.LogFile, "Append logs to file")
}

// BindConvertFlags registers conversion flags (method, LUT, encoder
// settings, concurrency, output directory).
func BindConvertFlags(fs *pflag.FlagSet, def Config) {
	fs.VarP(newMethodValue(def.Method), "method", "m", "Transform method: advanced | simple")
	fs.String("dlog", string(def.DLogVariant), "Source log profile: dlog | dlogm")
	fs.String("lut", def.LUT, "3D LUT (.cube) to apply instead of the built-in transform")
	fs.StringP("preset", "p", def.Preset, "x264 preset (e.g. slow, medium)")
	fs.IntP("crf", "q", def.CRF, "x264 CRF (0-51, lower is better)")
	fs.Bool("overwrite", def.Overwrite, "Overwrite existing output files")
	fs.Bool("no-overwrite", false, "Refuse to overwrite existing output files")
	fs.IntP("concurrency", "j", def.Concurrency, "Number of files converted in parallel")
	fs.StringP("output", "o", def.OutputDir, "Output directory")
	fs.String("report", def.Report, "Write a batch report (.yaml, .yml or .json)")
}

// BindServerFlags registers flags for the HTTP API and event publishing.
func BindServerFlags(fs *pflag.FlagSet, def Config) {
	fs.String("listen", def.Listen, "HTTP listen address")
	BindEventFlags(fs, def)
}

// BindEventFlags registers the NATS publishing flags.
func BindEventFlags(fs *pflag.FlagSet, def Config) {
	fs.String("nats-url", def.NATSURL, "Publish batch events to this NATS server")
	fs.String("nats-subject", def.NATSSubject, "NATS subject prefix for batch events")
}

// applyNegatedFlags copies negated flag values into cfg.
func applyNegatedFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}
	if f := fs.Lookup("no-overwrite"); f != nil && f.Changed && f.Value.String() == "true" {
		cfg.Overwrite = false
	}
}

// pflag.Value adapters so enum types (Method, ColorMode) are validated at
// parse time.

type methodValue struct{ v Method }

func newMethodValue(def Method) *methodValue { return &methodValue{v: def} }

func (m *methodValue) String() string { return string(m.v) }
func (m *methodValue) Type() string   { return "method" }
func (m *methodValue) Set(s string) error {
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	m.v = parsed
	return nil
}

type colorModeValue struct{ v ColorMode }

func newColorModeValue(def ColorMode) *colorModeValue { return &colorModeValue{v: def} }

func (c *colorModeValue) String() string { return string(c.v) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		c.v = ColorAuto
	case "always":
		c.v = ColorAlways
	case "never":
		c.v = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}
