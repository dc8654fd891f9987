// Package config holds runtime configuration: defaults, layered loading
// (defaults, YAML file, .env, environment, CLI flags), and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Enumerated settings. Each has a Parse func used by flags and config files.

// Method selects the color transform strategy.
type Method string

const (
	MethodAdvanced Method = "advanced" // Two-stage transform through linear light (default).
	MethodSimple   Method = "simple"   // Direct Rec.709 tagging, no intermediate.
)

// DLogVariant names the camera log profile of the source footage.
type DLogVariant string

const (
	DLog  DLogVariant = "dlog"  // Original D-Log.
	DLogM DLogVariant = "dlogm" // D-Log M (default).
)

// ColorMode selects console styling.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // color only on a TTY
	ColorAlways ColorMode = "always" // always color
	ColorNever  ColorMode = "never"  // plain text
)

// x264Presets lists the presets libx264 accepts, fastest first.
var x264Presets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow", "placebo",
}

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then overlaid by [Load] before being passed (by pointer) to packages that
// need it. Koanf keys match the CLI flag names.
type Config struct {
	// External tools.
	FFmpegPath  string `koanf:"ffmpeg"`  // Default: "ffmpeg" (resolved on PATH).
	FFprobePath string `koanf:"ffprobe"` // Default: "ffprobe".

	// Conversion.
	Method      Method      `koanf:"method"`      // Default: "advanced".
	DLogVariant DLogVariant `koanf:"dlog"`        // Default: "dlogm".
	LUT         string      `koanf:"lut"`         // Optional .cube file; overrides method.
	Preset      string      `koanf:"preset"`      // Default: "slow".
	CRF         int         `koanf:"crf"`         // Default: 18.
	Overwrite   bool        `koanf:"overwrite"`   // Default: true.
	Concurrency int         `koanf:"concurrency"` // Default: 2.
	OutputDir   string      `koanf:"output"`
	Report      string      `koanf:"report"` // Optional report path (.yaml/.yml or .json).

	// Server and event transport.
	Listen      string `koanf:"listen"`       // Default: ":8080".
	NATSURL     string `koanf:"nats-url"`     // Empty disables NATS publishing.
	NATSSubject string `koanf:"nats-subject"` // Default: "dlogconv.batch".

	// Display and logging.
	Verbose   bool      `koanf:"verbose"`
	ColorMode ColorMode `koanf:"color"`    // Default: "auto".
	LogFile   string    `koanf:"log-file"` // Optional log file path.
}

// DefaultConfig returns a Config with the defaults of the desktop converter
// this tool replaces (advanced transform, D-Log M, slow/18, overwrite on,
// two concurrent jobs).
func DefaultConfig() Config {
	return Config{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Method:      MethodAdvanced,
		DLogVariant: DLogM,
		Preset:      "slow",
		CRF:         18,
		Overwrite:   true,
		Concurrency: 2,
		Listen:      ":8080",
		NATSSubject: "dlogconv.batch",
		ColorMode:   ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// "/" is kept as is.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// ParseMethod maps a user string onto a Method. The empty string selects
// the default.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(MethodAdvanced):
		return MethodAdvanced, nil
	case string(MethodSimple):
		return MethodSimple, nil
	}
	return "", fmt.Errorf("invalid method %q (use 'simple' or 'advanced')", s)
}

// ParseDLogVariant maps a user string onto a DLogVariant. Unknown names are
// kept as-is: the filter builder falls back to its default entry for them.
func ParseDLogVariant(s string) DLogVariant {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("-", "", "_", "", " ", "").Replace(v)
	if v == "" {
		return DLogM
	}
	return DLogVariant(v)
}

// ValidPreset reports whether p is a libx264 preset name.
func ValidPreset(p string) bool {
	for _, known := range x264Presets {
		if p == known {
			return true
		}
	}
	return false
}

// Validate checks enum fields and numeric ranges. It does not touch the
// filesystem; path checks happen per job.
func (c *Config) Validate() error {
	switch c.Method {
	case MethodAdvanced, MethodSimple:
		// valid
	default:
		return errors.New("invalid method (use 'simple' or 'advanced')")
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if !ValidPreset(c.Preset) {
		return fmt.Errorf("invalid preset %q (use one of %s)", c.Preset, strings.Join(x264Presets, ", "))
	}
	if c.CRF < 0 || c.CRF > 51 {
		return fmt.Errorf("crf must be between 0 and 51 (got %d)", c.CRF)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1 (got %d)", c.Concurrency)
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("ffmpeg and ffprobe paths must not be empty")
	}
	c.DLogVariant = ParseDLogVariant(string(c.DLogVariant))
	if c.OutputDir != "" {
		c.OutputDir = NormalizeDirArg(c.OutputDir)
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not the same as an
// input directory, so a later directory scan never picks up converted files
// as new inputs. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
