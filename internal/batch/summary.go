package batch

// Summary aggregates a batch's results. Total == Success + Failed.
type Summary struct {
	Total   int `json:"total" yaml:"total"`
	Success int `json:"success" yaml:"success"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Summarize counts successes and failures in results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			s.Success++
		} else {
			s.Failed++
		}
	}
	return s
}

// OK reports whether every job succeeded.
func (s Summary) OK() bool { return s.Failed == 0 }
