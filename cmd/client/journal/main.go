package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pairjournal/internal/client/cli"
	"github.com/dmitrijs2005/pairjournal/internal/client/config"
	"github.com/dmitrijs2005/pairjournal/internal/flagx"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	code := 0
	if err := app.Execute(ctx, flagx.StripArgs(os.Args[1:], config.FlagNames())); err != nil {
		app.PrintError(err)
		code = 1
	}
	if err := app.Close(); err != nil {
		log.Printf("close: %v", err)
	}
	stop()
	os.Exit(code)
}
