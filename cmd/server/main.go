// Package main - Entry point for the cleanquote configuration and quote server
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/api"
	"cleanquote/db"
	"cleanquote/internal/config"
	"cleanquote/internal/logging"
)

const version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "config file")
	addr := flag.String("addr", "", "server address (default from config)")
	dbPath := flag.String("db", "", "sqlite database path (default from config)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}
	if *dbPath != "" {
		cfg.Pricing.DatabasePath = *dbPath
	}

	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(ctx, cfg.Pricing.DatabasePath)
	if err != nil {
		logging.Logger.Fatal("open config store", zap.Error(err))
	}
	defer store.Close()

	srv := api.NewServer(version, store,
		api.WithQuoteSource(pricingsrc.Decorate(store)),
		api.WithLogger(logging.Component("api")),
		api.WithCurrency(cfg.Pricing.Currency),
	)

	fmt.Printf("cleanquote server v%s\n", version)
	fmt.Printf("   API: http://localhost%s\n", cfg.Server.Address)
	fmt.Println()

	if err := srv.ListenAndServe(ctx, cfg.Server.Address); err != nil {
		logging.Logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
