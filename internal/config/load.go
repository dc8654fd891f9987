package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment overrides, e.g. DLOGCONV_FFMPEG
// or DLOGCONV_LOG_FILE.
const EnvPrefix = "DLOGCONV_"

// DotEnvFile is read (when present) before environment variables are
// consulted. Variables already set in the process environment win.
var DotEnvFile = ".env"

// Load builds a Config from, lowest priority first:
//
//  1. DefaultConfig
//  2. the YAML file named by configFile (if non-empty)
//  3. DotEnvFile, merged into the process environment
//  4. DLOGCONV_* environment variables
//  5. flags explicitly set on flags
//
// The result is validated before it is returned.
func Load(flags *pflag.FlagSet, configFile string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(DefaultConfig()), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyNegatedFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps DLOGCONV_LOG_FILE to "log-file".
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "_", "-")
}

// loadDotEnv merges path into the process environment. A missing file is
// not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// defaultsMap flattens cfg into koanf keys. Every key must be present so
// that posflag only overlays flags the user actually set.
func defaultsMap(cfg Config) map[string]interface{} {
	return map[string]interface{}{
		"ffmpeg":       cfg.FFmpegPath,
		"ffprobe":      cfg.FFprobePath,
		"method":       string(cfg.Method),
		"dlog":         string(cfg.DLogVariant),
		"lut":          cfg.LUT,
		"preset":       cfg.Preset,
		"crf":          cfg.CRF,
		"overwrite":    cfg.Overwrite,
		"concurrency":  cfg.Concurrency,
		"output":       cfg.OutputDir,
		"report":       cfg.Report,
		"listen":       cfg.Listen,
		"nats-url":     cfg.NATSURL,
		"nats-subject": cfg.NATSSubject,
		"verbose":      cfg.Verbose,
		"color":        string(cfg.ColorMode),
		"log-file":     cfg.LogFile,
	}
}
