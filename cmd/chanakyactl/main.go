package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/dmitrijs2005/chanakya/internal/admin/cli"
	"github.com/dmitrijs2005/chanakya/internal/logging"
	"github.com/dmitrijs2005/chanakya/internal/server/config"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chanakya/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stderr, "warn")

	store, err := repomanager.Open(ctx, cfg.DatabaseDSN, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	app := cli.NewApp(services.NewUserService(store, cfg, logger), store, os.Stdin, os.Stdout)
	err = app.Run(ctx, cli.CommandArgs(os.Args[1:]))
	_ = store.Close(ctx)

	if err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			log.Printf("%v", err)
		}
		os.Exit(1)
	}

}
