package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/backmassage/dlogconv/internal/pipeline"
	"github.com/backmassage/dlogconv/internal/probe"
)

// probeEntry is one element of probe --json output.
type probeEntry struct {
	Path     string        `json:"path"`
	Metadata *probe.Result `json:"metadata,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func newProbeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe [--json] <file|dir>...",
		Short: "Show duration and stream metadata of clips",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			files, err := pipeline.ExpandInputs(args)
			if err != nil {
				return err
			}
			clips := pipeline.Inspect(cmd.Context(), probe.NewClient(a.cfg.FFprobePath), files)

			if !asJSON {
				pipeline.PrintClipTable(cmd.OutOrStdout(), clips)
				return nil
			}
			entries := make([]probeEntry, len(clips))
			for i, c := range clips {
				entries[i] = probeEntry{Path: c.Path, Metadata: c.Result}
				if c.Err != nil {
					entries[i].Error = c.Err.Error()
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print metadata as JSON")
	return cmd
}
