// Command folio serves, builds and scaffolds folio sites.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitalics/folio"
	"github.com/vitalics/folio/views"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "folio - a personal blog and portfolio engine built with Go, Echo, and templ",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the site config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable development logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newBuildCmd(opts),
		newNewCmd(),
		newStatsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the config file and applies the global flags.
func (o *rootOptions) loadConfig() (folio.SiteConfig, error) {
	cfg, err := folio.LoadConfig(o.configPath)
	if err != nil {
		return folio.SiteConfig{}, err
	}
	if o.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

// newApp builds an App with the default views.
func (o *rootOptions) newApp(cfg folio.SiteConfig) (*folio.App, error) {
	v, err := views.New()
	if err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	return folio.New(cfg, v), nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over HTTP",
		Example: `  folio serve
  folio serve --addr :8080 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				cfg.Watch = watch
			}
			app, err := opts.newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload content when files change")
	return cmd
}

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site to static files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.OutputDir
			}
			// Exports never record analytics.
			cfg.Analytics.Enabled = false
			app, err := opts.newApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.Export(cmd.Context(), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (overrides config)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the folio version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio %s\n", version)
		},
	}
}
