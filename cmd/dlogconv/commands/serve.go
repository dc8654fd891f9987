package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/dlogconv/internal/check"
	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/probe"
	httpapi "github.com/backmassage/dlogconv/internal/transport/http"
	"github.com/backmassage/dlogconv/internal/transport/natsbus"
)

// shutdownTimeout bounds how long serve waits for running batches after an
// interrupt.
const shutdownTimeout = 30 * time.Second

func newServeCommand(def config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion HTTP API",
		Long: `Serve exposes batch conversion over HTTP. Request fields left empty take
the values from flags, environment and config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return runServe(cmd.Context(), a)
		},
	}
	config.BindConvertFlags(cmd.Flags(), def)
	config.BindServerFlags(cmd.Flags(), def)
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := &a.cfg
	if err := check.CheckDeps(ctx, cfg); err != nil {
		return err
	}

	h := httpapi.NewHandler(a.service(), probe.NewClient(cfg.FFprobePath), cfg, a.log)
	if cfg.NATSURL != "" {
		nc, err := natsbus.Connect(cfg.NATSURL, a.log)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer nc.Close()
		h.NewBatchSink = func(id string) httpapi.BatchSink {
			return natsbus.NewSink(nc, cfg.NATSSubject, id, a.log)
		}
		a.log.Info("Publishing batch events under %s.<id>", cfg.NATSSubject)
	}

	srv := httpapi.NewServer(cfg.Listen, h)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.log.Info("Listening on %s", cfg.Listen)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Warn("Shutting down, canceling running batches...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.Shutdown(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
