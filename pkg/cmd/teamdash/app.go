// Package teamdash houses the teamdash CLI commands.
package teamdash

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/pomerium/teamdash/config"
	"github.com/pomerium/teamdash/internal/authclient"
	"github.com/pomerium/teamdash/internal/authenticateflow"
	"github.com/pomerium/teamdash/internal/directory"
	"github.com/pomerium/teamdash/internal/directory/remote"
	"github.com/pomerium/teamdash/internal/gate"
	"github.com/pomerium/teamdash/internal/httputil"
	"github.com/pomerium/teamdash/internal/kv"
	"github.com/pomerium/teamdash/internal/kv/file"
	"github.com/pomerium/teamdash/internal/kv/memory"
	"github.com/pomerium/teamdash/internal/kv/pebble"
	"github.com/pomerium/teamdash/internal/log"
	"github.com/pomerium/teamdash/internal/sessions"
	"github.com/pomerium/teamdash/internal/urlutil"
)

// An App holds the components shared by every front end.
type App struct {
	Options   *config.Options
	Storage   kv.Store
	Sessions  *sessions.Store
	Guard     *sessions.Guard
	Navigator *gate.Once
	Flow      *authenticateflow.Flow
	Directory directory.Provider
}

// NewApp wires storage, the session store, the request gate and the
// outbound clients together. Navigations caused by a rejected session go
// to nav, at most once per sign-in.
func NewApp(opts *config.Options, nav gate.Navigator) (*App, error) {
	authURL, err := opts.GetAuthURL()
	if err != nil {
		return nil, fmt.Errorf("invalid auth url: %w", err)
	}
	apiURL, err := opts.GetAPIBaseURL()
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	storage, err := openStorage(opts)
	if err != nil {
		return nil, err
	}

	app := &App{
		Options:   opts,
		Storage:   storage,
		Sessions:  sessions.NewStore(storage),
		Navigator: gate.NewOnce(nav),
	}
	app.Guard = sessions.NewGuard(app.Sessions)
	app.Flow = authenticateflow.New(
		authclient.New(
			authclient.WithURL(authURL),
			authclient.WithHTTPClient(httputil.NewClient("auth", opts.HTTPTimeout, nil)),
		),
		app.Sessions,
		authenticateflow.WithSessionTTL(opts.SessionTTL),
		authenticateflow.WithDemoFallback(opts.DemoFallback, opts.DemoFallbackDelay),
		authenticateflow.OnSignIn(app.Navigator.Reset),
	)
	app.Directory = remote.New(
		remote.WithURL(apiURL),
		remote.WithQPS(opts.DirectoryQPS),
		remote.WithHTTPClient(httputil.NewClient(remote.Name, opts.HTTPTimeout, nil,
			gate.New(app.Sessions, app.Navigator, gate.WithLoginPath(urlutil.LoginPath)))),
	)
	return app, nil
}

// Close releases the storage.
func (app *App) Close() error {
	return app.Storage.Close()
}

func openStorage(opts *config.Options) (kv.Store, error) {
	switch opts.StorageBackend {
	case config.StorageBackendMemory:
		return memory.New(), nil
	case config.StorageBackendPebble:
		s, err := pebble.Open(opts.GetStoragePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", pebble.Name, err)
		}
		return s, nil
	case config.StorageBackendFile, "":
		return file.New(opts.GetStoragePath()), nil
	}
	return nil, fmt.Errorf("%w: unknown storage backend %q", config.ErrInvalidOptions, opts.StorageBackend)
}

// withApp runs fn with a new App and closes it afterwards.
func withApp(opts *config.Options, nav gate.Navigator, fn func(app *App) error) (err error) {
	app, err := NewApp(opts, nav)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			err = multierror.Append(err, closeErr)
		}
	}()
	return fn(app)
}

// setupLogger replaces the global logger with one writing to w: a console
// writer for terminals and JSON otherwise.
func setupLogger(opts *config.Options, w io.Writer) error {
	level, err := opts.GetLogLevel()
	if err != nil {
		return err
	}

	var l zerolog.Logger
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	} else {
		l = zerolog.New(w).With().Timestamp().Logger()
	}
	log.SetLogger(&l)
	log.SetLevel(level)
	return nil
}
