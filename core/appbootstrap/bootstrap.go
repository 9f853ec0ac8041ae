package appbootstrap

import (
	"context"
	"flag"

	"incident-tracker/api"
	"incident-tracker/config"
	"incident-tracker/core/incidents"
	"incident-tracker/core/seed"
	"incident-tracker/core/store"
	"incident-tracker/core/utils"
)

// Run wires the process together: config, database, migrations, stores,
// listing service and the HTTP server. With -seed it inserts demo data and
// exits instead of serving.
func Run(args []string) error {
	fs := flag.NewFlagSet("incident-tracker", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to yaml config file")
	seedCount := fs.Int("seed", 0, "insert this many demo incidents and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := utils.NewLogger()

	db, dialect, err := store.NewDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.ApplyMigrations(ctx, db, dialect, logger); err != nil {
		return err
	}

	incidentsStore := store.NewIncidentsStore(db, dialect)
	if *seedCount > 0 {
		return seed.Incidents(ctx, incidentsStore, *seedCount, logger)
	}

	srv := api.NewServer(cfg, api.ServerDeps{
		Incidents:    incidentsStore,
		IncidentsSvc: incidents.NewService(incidentsStore, cfg),
		Logger:       logger,
	})
	logger.Printf("listening on %s", cfg.ListenAddr)
	return srv.ListenAndServe()
}
