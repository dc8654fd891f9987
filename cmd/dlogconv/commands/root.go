// Package commands implements the dlogconv cobra command tree.
package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/ffmpeg"
	"github.com/backmassage/dlogconv/internal/logging"
	"github.com/backmassage/dlogconv/internal/pipeline"
	"github.com/backmassage/dlogconv/internal/probe"
)

const cliExecutable = "dlogconv"

// Errors that main reports through the exit code only.
var (
	ErrBatchFailed = errors.New("one or more conversions failed")
	ErrCheckFailed = errors.New("system check failed")
)

// NewCommand constructs the top-level dlogconv command with its
// subcommands. Global flags (tool paths, config file, logging, color) are
// persistent; each subcommand binds only the flags it uses.
func NewCommand(version, commit string) *cobra.Command {
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           cliExecutable,
		Short:         "Batch-convert DJI D-Log footage to Rec.709 with ffmpeg",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindGlobalFlags(cmd.PersistentFlags(), def)

	cmd.AddCommand(newConvertCommand(def))
	cmd.AddCommand(newProbeCommand())
	cmd.AddCommand(newServeCommand(def))
	cmd.AddCommand(newCheckCommand(def))
	cmd.AddCommand(newVersionCommand(version, commit))
	return cmd
}

// app is the per-invocation state shared by the subcommands.
type app struct {
	cfg config.Config
	log *logging.Logger
}

// setup loads the layered configuration for cmd and opens the logger.
func setup(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(&cfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return &app{cfg: cfg, log: log}, nil
}

func (a *app) close() {
	_ = a.log.Close()
}

// service wires the batch service to the configured ffmpeg and ffprobe.
func (a *app) service() *pipeline.Service {
	runner := ffmpeg.NewRunner(a.cfg.FFmpegPath)
	prober := probe.NewClient(a.cfg.FFprobePath)
	return pipeline.NewService(&a.cfg, runner, prober, a.log)
}

func newVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", cliExecutable, version, commit)
		},
	}
}
