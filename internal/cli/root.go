// Package cli is the terminal front-end: it wires config, storage, the
// backend client and the session store together and exposes the session,
// reporting and administration operations as subcommands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taxbase/metricshub/hubapi"
	"github.com/taxbase/metricshub/internal/config"
	"github.com/taxbase/metricshub/session"
	"github.com/taxbase/metricshub/session/storage"
)

var (
	cfgPath     string
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags.
func SetVersion(version, commit string) {
	versionInfo = fmt.Sprintf("%s (commit: %s)", version, commit)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "metricshub",
	Short: "Taxbase metrics client",
	Long: `metricshub - session and reporting client for the Taxbase hub

Logs into the metrics backend (or adopts a hub SSO token), fetches raw
interaction records and computes the filtered KPI, evolution and ranking
views from the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		banner := figure.NewFigure(cfg.GetAppName(), "cybermedium", true)
		banner.Print()
		fmt.Println()
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file path")
}

// app is the assembled dependency graph behind every subcommand.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	storage storage.Storage
	client  *hubapi.Client
	store   *session.Store
}

// sessionBridge breaks the construction cycle between the API client and
// the session store: the client needs a token source before the store
// exists, the store needs the client as authenticator.
type sessionBridge struct {
	store *session.Store
}

func (b *sessionBridge) Token() string {
	if b.store == nil {
		return ""
	}
	return b.store.Token()
}

func (b *sessionBridge) SessionExpired() {
	if b.store != nil {
		b.store.SessionExpired()
	}
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	store, err := storage.NewBolt(filepath.Join(cfg.GetDataDir(), "session.db"))
	if err != nil {
		return nil, err
	}

	bridge := &sessionBridge{}
	client, err := hubapi.NewClient(cfg.GetBackendURL(),
		hubapi.WithTokenSource(bridge),
		hubapi.WithExpiryHandler(bridge),
		hubapi.WithClientLogger(log),
	)
	if err != nil {
		store.Close()
		return nil, err
	}

	sessions, err := session.NewStore(session.Deps{
		Storage: store,
		Auth:    client,
		HubURL:  cfg.GetHubURL(),
	}, session.WithLogger(log))
	if err != nil {
		store.Close()
		return nil, err
	}
	bridge.store = sessions

	return &app{
		cfg:     cfg,
		log:     log,
		storage: store,
		client:  client,
		store:   sessions,
	}, nil
}

func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed closing session storage")
	}
}

// requireSession restores the persisted session and fails the command when
// the user is logged out.
func (a *app) requireSession() (session.Session, error) {
	restored, ok := a.store.Restore()
	if !ok {
		return session.Session{}, fmt.Errorf("not logged in, run 'metricshub login' first")
	}
	return restored, nil
}
