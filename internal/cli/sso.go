package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/session"
)

var ssoWatch bool

var ssoCmd = &cobra.Command{
	Use:   "sso [token]",
	Short: "Adopt a hub-issued session token",
	Long: `Adopt a bearer token handed over by the hub.

With a token argument the token is adopted immediately. With --watch the
command waits for the hub to drop a token file at the configured
SSO_TOKEN_PATH and adopts whatever arrives until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSSO,
}

func init() {
	ssoCmd.Flags().BoolVar(&ssoWatch, "watch", false, "Watch the SSO drop file instead of reading an argument")
	rootCmd.AddCommand(ssoCmd)
}

func runSSO(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if !ssoWatch {
		if len(args) != 1 {
			return fmt.Errorf("either pass a token or use --watch")
		}
		adopted, err := a.store.AdoptExternalToken(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Adopted hub session for %s (%s)\n", adopted.User.Username, adopted.User.Role)
		return nil
	}

	watcher, err := session.NewWatcher(a.store, a.cfg.GetSSOTokenPath(),
		session.WithWatcherLogger(a.log),
		session.WithAdoptionErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "rejected token: %v\n", err)
		}),
	)
	if err != nil {
		return err
	}
	defer watcher.Close()

	a.store.Subscribe(func(s session.Session, loggedIn bool) {
		if loggedIn {
			fmt.Printf("Adopted hub session for %s (%s)\n", s.User.Username, s.User.Role)
		}
	})

	if err := watcher.Start(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("Watching %s for hub tokens, Ctrl-C to stop\n", a.cfg.GetSSOTokenPath())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-cmd.Context().Done():
	}
	return nil
}
