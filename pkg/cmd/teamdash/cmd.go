package teamdash

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pomerium/teamdash/config"
	"github.com/pomerium/teamdash/internal/authenticateflow"
	"github.com/pomerium/teamdash/internal/directory"
	"github.com/pomerium/teamdash/internal/gate"
	"github.com/pomerium/teamdash/internal/sessions"
	"github.com/pomerium/teamdash/internal/urlutil"
	"github.com/pomerium/teamdash/internal/version"
)

// ErrSignInRequired is returned by commands that need a valid session.
var ErrSignInRequired = errors.New("sign-in required")

type cli struct {
	configFile string
	opts       *config.Options
}

// BuildRootCmd returns the teamdash root command.
func BuildRootCmd() *cobra.Command {
	c := new(cli)
	cmd := &cobra.Command{
		Use:          "teamdash",
		Short:        "Sign in and browse the team directory",
		Version:      version.FullVersion(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := config.Load(c.configFile)
			if err != nil {
				return err
			}
			if err := setupLogger(opts, cmd.ErrOrStderr()); err != nil {
				return err
			}
			c.opts = opts
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "config file")

	cmd.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.statusCmd(),
		c.membersCmd(),
		c.serveCmd(),
		versionCmd(),
	)
	return cmd
}

// terminalNavigator tells the user where to go instead of navigating.
func terminalNavigator(w io.Writer) gate.Navigator {
	return gate.NavigatorFunc(func(_ context.Context, target string) {
		if target == urlutil.LoginPath {
			fmt.Fprintln(w, "Your session is no longer valid. Sign in again with `teamdash login`.")
			return
		}
		fmt.Fprintf(w, "Continue at %s.\n", target)
	})
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	var demo bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			opts := *c.opts
			if cmd.Flags().Changed("demo") {
				opts.DemoFallback = demo
			}
			stderr := cmd.ErrOrStderr()
			return withApp(&opts, terminalNavigator(stderr), func(app *App) error {
				err := app.Flow.SignIn(cmd.Context(), email, password, func(status string) {
					fmt.Fprintln(stderr, status)
				})
				if err != nil {
					fmt.Fprintln(stderr, authenticateflow.Message(err))
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", authenticateflow.NormalizeEmail(email))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted for when empty)")
	cmd.Flags().BoolVar(&demo, "demo", false, "fall back to the offline demo account")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		bs, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(bs), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(c.opts, terminalNavigator(cmd.ErrOrStderr()), func(app *App) error {
				if err := app.Flow.SignOut(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
				return nil
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a valid session is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(c.opts, terminalNavigator(cmd.ErrOrStderr()), func(app *App) error {
				s, err := app.Sessions.Load(cmd.Context())
				switch {
				case sessions.IsNoSession(err):
					fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
					return nil
				case err != nil:
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in. Session expires at %s (in %s).\n",
					s.ExpiresAt.Local().Format(time.RFC1123),
					time.Until(s.ExpiresAt).Round(time.Second))
				return nil
			})
		},
	}
}

type membersOutput struct {
	Members []directory.Member `json:"members"`
	Stats   directory.Stats    `json:"stats"`
}

func (c *cli) membersCmd() *cobra.Command {
	var search string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List the team members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(c.opts, terminalNavigator(cmd.ErrOrStderr()), func(app *App) error {
				if !app.Guard.CanEnter(ctx) {
					app.Navigator.Navigate(ctx, urlutil.LoginPath)
					return ErrSignInRequired
				}

				members := directory.Load(ctx, app.Directory)
				if app.Navigator.Fired() {
					return ErrSignInRequired
				}

				out := membersOutput{
					Members: directory.Filter(members, search),
					Stats:   directory.ComputeStats(members),
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}
				return writeMembers(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only list members whose name, username or email contains this")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func writeMembers(w io.Writer, out membersOutput) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUSERNAME\tEMAIL\tLOCATION")
	for _, m := range out.Members {
		fmt.Fprintf(tw, "%s\t@%s\t%s\t%s\n", m.Name, m.Username, m.Email, m.Location())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal: %d  Active: %d  Pending: %d\n",
		out.Stats.Total, out.Stats.Active, out.Stats.Pending)
	return err
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.FullVersion())
		},
	}
}
