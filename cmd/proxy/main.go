package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/proxy"
	"github.com/dmitrijs2005/bonuskeeper/internal/proxy/config"
)

func main() {
	cfg := config.LoadConfig(os.Args[1:])

	logger, err := logging.New(os.Stdout, "json", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	srv, err := proxy.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error(ctx, "proxy stopped", "error", err)
		os.Exit(1)
	}
}
