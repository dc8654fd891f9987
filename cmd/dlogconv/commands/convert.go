package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/backmassage/dlogconv/internal/batch"
	"github.com/backmassage/dlogconv/internal/check"
	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/display"
	"github.com/backmassage/dlogconv/internal/pipeline"
	"github.com/backmassage/dlogconv/internal/report"
	"github.com/backmassage/dlogconv/internal/transport/natsbus"
)

func newConvertCommand(def config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "convert [flags] <file|dir>...",
		Short: "Convert clips (or every clip under a directory) to Rec.709",
		Long: `Convert runs one batch: each input becomes <output>/<name>_rec709.mp4.
Directories are searched recursively for video files; previously converted
outputs are skipped, and the output directory must not lie inside an input
directory. The exit status is 1 if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return runConvert(cmd, a, args, dryRun)
		},
	}

	config.BindConvertFlags(cmd.Flags(), def)
	config.BindEventFlags(cmd.Flags(), def)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print planned outputs without converting")
	return cmd
}

func runConvert(cmd *cobra.Command, a *app, args []string, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	cfg := &a.cfg

	if cfg.OutputDir == "" {
		return errors.New("an output directory is required (-o)")
	}
	if err := checkOutputOutsideInputs(cfg, args); err != nil {
		return err
	}

	svc := a.service()
	req := pipeline.Request{InputFiles: args, OutputDir: cfg.OutputDir}

	if dryRun {
		jobs, err := svc.Plan(req)
		if err != nil {
			return err
		}
		for _, j := range jobs {
			fmt.Fprintf(out, "%s -> %s\n", j.Input, j.Output)
		}
		return nil
	}

	display.PrintBanner(out)
	if err := check.CheckDeps(ctx, cfg); err != nil {
		return err
	}

	var sink batch.EventSink
	var events *natsbus.Sink
	if cfg.NATSURL != "" {
		nc, err := natsbus.Connect(cfg.NATSURL, a.log)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()
		id := uuid.NewString()
		events = natsbus.NewSink(nc, cfg.NATSSubject, id, a.log)
		sink = events
		a.log.Info("Publishing events to %s", events.Subject("*"))
	}

	stop := context.AfterFunc(ctx, func() {
		a.log.Warn("Interrupted, stopping running conversions...")
	})
	defer stop()

	resp, err := svc.Convert(ctx, req, sink)
	if err != nil {
		return err
	}
	if events != nil {
		events.Done(resp)
	}

	fmt.Fprintln(out, display.SummaryBox(resp.Summary.Total, resp.Summary.Success, resp.Summary.Failed,
		display.FormatSeconds(resp.Elapsed)))

	if cfg.Report != "" {
		if err := report.Write(cfg.Report, resp); err != nil {
			return err
		}
		a.log.Info("Report written to %s", cfg.Report)
	}
	if !resp.Success {
		return ErrBatchFailed
	}
	return nil
}

// checkOutputOutsideInputs rejects an output directory that is, or lies
// inside, one of the input directories.
func checkOutputOutsideInputs(cfg *config.Config, inputs []string) error {
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output path %s: %w", cfg.OutputDir, err)
	}
	for _, in := range inputs {
		fi, err := os.Stat(in)
		if err != nil || !fi.IsDir() {
			continue
		}
		inputAbs, err := absPath(in)
		if err != nil {
			return fmt.Errorf("resolve input path %s: %w", in, err)
		}
		if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
			return fmt.Errorf("%w (input %s)", err, in)
		}
	}
	return nil
}

// absPath returns the absolute, symlink-resolved path. Paths that do not
// exist yet are returned absolute but unresolved.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
