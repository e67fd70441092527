package main

import (
	"log"

	"kc-transfer/internal/bootstrap"
	"kc-transfer/internal/config"
	"kc-transfer/internal/observability"
)

func main() {
	tuning, err := config.LoadTuning("")
	if err != nil {
		log.Fatalf("load tuning: %v", err)
	}
	logger, err := observability.SetupLogger(tuning.Log)
	if err != nil {
		log.Fatalf("setup logger: %v", err)
	}

	app, err := bootstrap.New(bootstrap.Options{Tuning: tuning, Logger: logger})
	if err != nil {
		log.Fatalf("bootstrap app: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
