// Package serve implements the serve command.
package serve

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/launchsync"
	"github.com/agentstation/launchsync/internal/appcontext"
	"github.com/agentstation/launchsync/internal/server"
	"github.com/agentstation/launchsync/pkg/errors"
)

// Flags holds the serve command flags.
type Flags struct {
	Host     string
	Port     int
	Prefix   string
	AutoSync time.Duration
	Metrics  bool
}

// NewCommand creates the serve command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "serve",
		GroupID: "core",
		Short:   "Serve health, status, and sync triggers over HTTP",
		Args:    cobra.NoArgs,
		Long: `Serve starts the HTTP server. It exposes health and run status,
accepts POST requests that trigger sync categories, and publishes Prometheus
metrics on /metrics. With --auto-sync every category also runs on a schedule.`,
		Example: `  launchsync serve
  launchsync serve --port 9090 --auto-sync 6h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.ServerConfig()
			if cmd.Flags().Changed("host") {
				cfg.Host = flags.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = flags.Port
			}
			if cmd.Flags().Changed("prefix") {
				cfg.PathPrefix = flags.Prefix
			}
			if cmd.Flags().Changed("metrics") {
				cfg.MetricsEnabled = flags.Metrics
			}
			interval := app.AutoSyncInterval()
			if cmd.Flags().Changed("auto-sync") {
				interval = flags.AutoSync
			}

			svc, err := service(app, interval)
			if err != nil {
				return err
			}
			if svc == nil {
				return errors.NewConfigError("serve", "no service available", nil)
			}
			defer func() { _ = svc.Close() }()

			srv, err := server.New(svc, cfg, server.WithLogger(app.Logger()))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	defaults := server.DefaultConfig()
	cmd.Flags().StringVar(&flags.Host, "host", defaults.Host, "interface to listen on")
	cmd.Flags().IntVarP(&flags.Port, "port", "p", defaults.Port, "port to listen on")
	cmd.Flags().StringVar(&flags.Prefix, "prefix", defaults.PathPrefix, "API path prefix")
	cmd.Flags().BoolVar(&flags.Metrics, "metrics", defaults.MetricsEnabled, "expose /metrics")
	cmd.Flags().DurationVar(&flags.AutoSync, "auto-sync", 0, "run every category on this interval (0 disables)")

	return cmd
}

// service returns a service the command owns. Scheduled syncs get their
// own instance so the shared one never runs a background loop.
func service(app appcontext.Interface, interval time.Duration) (launchsync.Service, error) {
	if interval > 0 {
		return app.ServiceWithOptions(launchsync.WithAutoSync(interval))
	}
	return app.ServiceWithOptions()
}
