package teamdash

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/pomerium/teamdash/config"
	"github.com/pomerium/teamdash/internal/frontend"
	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/internal/version"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := *c.opts
			if addr != "" {
				opts.Addr = addr
			}
			ln, err := net.Listen("tcp", opts.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", opts.Addr, err)
			}
			return Serve(cmd.Context(), &opts, ln)
		},
	}
	cmd.Flags().StringVarP(&addr, "address", "a", "", "listen address (default: from config)")
	return cmd
}

// Serve runs the web front end on ln until ctx is done.
func Serve(ctx context.Context, opts *config.Options, ln net.Listener) error {
	_, _ = maxprocs.Set(maxprocs.Logger(func(s string, i ...any) { log.Debug(ctx).Msgf(s, i...) }))

	return withApp(opts, frontend.Navigator(), func(app *App) error {
		h, err := frontend.New(app.Flow, app.Guard, app.Directory, opts.DemoFallback)
		if err != nil {
			return err
		}

		eg, ctx := errgroup.WithContext(ctx)
		srv := &http.Server{
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		eg.Go(func() error {
			log.Info(ctx).
				Str("version", version.FullVersion()).
				Str("address", ln.Addr().String()).
				Str("storage", string(opts.StorageBackend)).
				Msg("cmd/teamdash: serving dashboard")
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}
			log.Info(ctx).Msg("cmd/teamdash: stopped")
			return nil
		})
		return eg.Wait()
	})
}
