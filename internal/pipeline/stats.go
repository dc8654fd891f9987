package pipeline

import (
	"os"

	"github.com/backmassage/dlogconv/internal/batch"
)

// SizeStats totals input and output bytes over the successful jobs of a
// batch.
type SizeStats struct {
	InputBytes  int64
	OutputBytes int64
}

// MeasureSizes stats the files of every successful result. Files that have
// disappeared since are ignored.
func MeasureSizes(results []batch.Result) SizeStats {
	var s SizeStats
	for _, r := range results {
		if !r.Success {
			continue
		}
		in, err := os.Stat(r.Input)
		if err != nil {
			continue
		}
		out, err := os.Stat(r.Output)
		if err != nil {
			continue
		}
		s.InputBytes += in.Size()
		s.OutputBytes += out.Size()
	}
	return s
}

// Ratio returns output size as a percentage of input size (100 when there
// is no input).
func (s SizeStats) Ratio() int64 {
	if s.InputBytes <= 0 {
		return 100
	}
	return s.OutputBytes * 100 / s.InputBytes
}
