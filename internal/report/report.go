// Package report writes a finished batch's Response to disk.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/backmassage/dlogconv/internal/pipeline"
)

// Write serializes resp to path: YAML for .yaml/.yml, indented JSON for
// anything else. Parent directories are created.
func Write(path string, resp pipeline.Response) error {
	data, err := Marshal(path, resp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Marshal encodes resp in the format implied by path's extension.
func Marshal(path string, resp pipeline.Response) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(resp)
		if err != nil {
			return nil, fmt.Errorf("encode report as yaml: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report as json: %w", err)
		}
		return append(data, '\n'), nil
	}
}
