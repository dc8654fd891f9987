// Command dlogconv converts DJI D-Log / D-Log M footage to Rec.709 H.264
// with ffmpeg, one batch at a time or as an HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/dlogconv/cmd/dlogconv/commands"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Canceling the context interrupts running ffmpeg processes; partial
	// outputs are removed by the runner.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewCommand(version, commit)
	if err := cmd.ExecuteContext(ctx); err != nil {
		// Failed batches and checks have already been reported by the logger.
		if !errors.Is(err, commands.ErrBatchFailed) && !errors.Is(err, commands.ErrCheckFailed) {
			fmt.Fprintf(os.Stderr, "dlogconv: %v\n", err)
		}
		return 1
	}
	return 0
}
