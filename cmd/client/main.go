package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/bonuskeeper/internal/client/backend"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/cli"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/config"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/session"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
)

func main() {
	cfg := config.LoadConfig(os.Args[1:])

	logger, err := logging.New(os.Stderr, "text", cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := backend.NewAccounts(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := cli.NewApp(svc, session.NewStore(cfg.SessionFile), os.Stdin, os.Stdout, logger)
	app.Run(ctx)
}
