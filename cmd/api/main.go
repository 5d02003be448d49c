// Command api serves the rounds ledger and event history of past sessions
// without running any rounds itself.
package main

import (
	"flag"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AaronLay10/BlindEngine/internal/api"
	"github.com/AaronLay10/BlindEngine/internal/config"
	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "engine.yaml", "path to engine.yaml")
	flag.Parse()

	log := events.NewLogger(os.Stderr, false, "info")
	events.SetLogger(log)

	cfg, err := config.LoadEngineConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load engine.yaml")
	}
	creds, err := cfg.ResolveCredentials()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve credentials")
	}
	if err := api.InitAuth(); err != nil {
		log.Fatal().Err(err).Msg("failed to load API credentials")
	}
	if err := api.InitTLS(); err != nil {
		log.Fatal().Err(err).Msg("invalid TLS settings")
	}
	api.SetEngineName(cfg.EngineID())
	api.InitMetrics(prometheus.DefaultRegisterer)

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(postgres.Options{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Database: cfg.Postgres.Database,
			Password: creds.PostgresPassword,
			SSLMode:  cfg.Postgres.SSLMode,
			EngineID: cfg.EngineID(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable")
		}
		defer pg.Close()
		events.SetPostgresClient(pg)
		api.SetLedger(pg)
		api.SetPostgresState(true, false)
	}
	api.SetEngineReady(true)
	events.Emit("info", "system.startup", "ledger api starting", map[string]interface{}{
		"engine": cfg.EngineID(),
		"port":   cfg.APIPort(),
	})

	if err := api.ListenAndServe(cfg.APIPort()); err != nil {
		log.Fatal().Err(err).Msg("api server failed")
	}
}
