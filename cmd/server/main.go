package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"gridlock/server/internal/app"
)

func main() {
	configPath := flag.String("config", "", "optional config file (json/yaml)")
	flag.Parse()

	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
