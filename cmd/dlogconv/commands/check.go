package commands

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/dlogconv/internal/check"
	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/display"
)

func newCheckCommand(def config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check ffmpeg, ffprobe, encoders and filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			display.PrintBanner(cmd.OutOrStdout())
			if !check.RunCheck(cmd.Context(), &a.cfg, a.log) {
				return ErrCheckFailed
			}
			return nil
		},
	}
	config.BindConvertFlags(cmd.Flags(), def)
	return cmd
}
