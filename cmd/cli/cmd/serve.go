// Package cmd - serve command
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/api"
	"cleanquote/db"
	"cleanquote/internal/config"
	"cleanquote/internal/logging"
)

var serveAddr string

// serveCmd runs the configuration and quote service
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the configuration and quote API",
	Long: `Serve active rate configs from the local config store and price proposals.

Endpoints:
  GET  /health
  GET  /services
  GET  /active-config/{serviceId}
  PUT  /active-config/{serviceId}
  GET  /active-config/{serviceId}/history
  POST /active-config/{serviceId}/diff
  POST /quote`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Address
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(ctx, cfg.Pricing.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := api.NewServer(Version, store,
		api.WithQuoteSource(pricingsrc.Decorate(store)),
		api.WithLogger(logging.Component("api")),
		api.WithCurrency(cfg.Pricing.Currency),
	)
	return srv.ListenAndServe(ctx, addr)
}
