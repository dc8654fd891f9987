package planner

import (
	"github.com/backmassage/dlogconv/internal/config"
)

// JobConfig holds the per-job conversion settings.
type JobConfig struct {
	Method      config.Method      `json:"method" yaml:"method"`
	DLogVariant config.DLogVariant `json:"dlogType" yaml:"dlogType"`
	LUT         string             `json:"lutPath,omitempty" yaml:"lutPath,omitempty"`
	Preset      string             `json:"preset" yaml:"preset"`
	CRF         int                `json:"crf" yaml:"crf"`
	Overwrite   bool               `json:"overwrite" yaml:"overwrite"`
}

// JobConfigFrom copies the conversion settings out of cfg.
func JobConfigFrom(cfg *config.Config) JobConfig {
	return JobConfig{
		Method:      cfg.Method,
		DLogVariant: cfg.DLogVariant,
		LUT:         cfg.LUT,
		Preset:      cfg.Preset,
		CRF:         cfg.CRF,
		Overwrite:   cfg.Overwrite,
	}
}

// Job is one input/output conversion. Jobs are values; nothing mutates a
// Job after NewJob returns it.
type Job struct {
	Input  string    `json:"input" yaml:"input"`
	Output string    `json:"output" yaml:"output"`
	Config JobConfig `json:"config" yaml:"config"`
}

// NewJob builds a Job. Empty Method, DLogVariant and Preset take the
// defaults from [config.DefaultConfig].
func NewJob(input, output string, jc JobConfig) Job {
	def := config.DefaultConfig()
	if jc.Method == "" {
		jc.Method = def.Method
	}
	if jc.DLogVariant == "" {
		jc.DLogVariant = def.DLogVariant
	}
	if jc.Preset == "" {
		jc.Preset = def.Preset
	}
	return Job{Input: input, Output: output, Config: jc}
}
