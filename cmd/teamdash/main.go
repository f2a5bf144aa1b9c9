// Package main contains teamdash
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/pkg/cmd/teamdash"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := teamdash.BuildRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		log.Error(ctx).Err(err).Msg("cmd/teamdash")
		os.Exit(1)
	}
}
