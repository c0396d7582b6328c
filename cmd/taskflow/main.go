// Command taskflow is a terminal client for a TaskFlow Pro server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/CrowderSoup/taskflow-pro/client"
	"github.com/CrowderSoup/taskflow-pro/config"
	"github.com/CrowderSoup/taskflow-pro/prefs"
)

// app carries what every command needs. Commands read the session lazily so
// login works without one.
type app struct {
	out         io.Writer
	logger      *slog.Logger
	cfg         client.Config
	sessionPath string
	session     session
}

// client returns a client bound to the stored session, or an error when no
// one is signed in.
func (a *app) client() (*client.Client, error) {
	if !a.cfg.Configured() {
		return nil, client.ErrNotConfigured
	}
	if a.session.Token == "" {
		return nil, errNotSignedIn
	}
	return client.New(a.cfg, a.session.Token), nil
}

// preferences loads the signed-in identity's preferences, falling back to the
// defaults when anything goes wrong.
func (a *app) preferences(ctx context.Context) *prefs.Store {
	store := prefs.New(nil, a.logger)
	if c, err := a.client(); err == nil {
		store.SetIdentity(ctx, c)
	}
	return store
}

func newRootCmd(out io.Writer, cfg client.Config) *cobra.Command {
	a := &app{out: out, cfg: cfg}
	setColor(out)
	var verbose bool

	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "Manage TaskFlow Pro tasks from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			s, err := loadSession(a.sessionPath)
			if err != nil {
				return err
			}
			a.session = s
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.sessionPath, "session", defaultSessionPath(), "Path of the stored session")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newToggleCmd(a),
		newRmCmd(a),
		newSubtasksCmd(a),
		newSearchCmd(a),
		newThemeCmd(a),
		newPrefsCmd(a),
		newWatchCmd(a),
	)
	return root
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(os.Stdout, client.ConfigFromEnv())
	if err := root.ExecuteContext(ctx); err != nil {
		failure(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
