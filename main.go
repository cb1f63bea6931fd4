package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wfunc/fighterselect/config"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/persistence"
	"github.com/wfunc/fighterselect/server"
	"github.com/wfunc/fighterselect/services"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "fighterselect",
		Short:         "Two-player fighter selection server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding config.yaml")

	roster := &cobra.Command{
		Use:   "roster",
		Short: "Print the stored roster",
		RunE:  runRoster,
	}
	roster.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Write the roster from the configuration into the database",
		RunE:  runSeed,
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the selection server",
		RunE:  runServe,
	}, roster)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*config.Config, error) {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	// Initialize logger
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore opens the configured driver. The memory store is seeded from the config roster.
func openStore(ctx context.Context, cfg *config.Config) (persistence.RosterStore, error) {
	switch cfg.Database.Driver {
	case "memory":
		store := persistence.NewMemoryStore()
		teams, fighters := cfg.RosterRecords()
		if err := store.SaveRoster(ctx, teams, fighters); err != nil {
			return nil, err
		}
		return store, nil
	case "gorm":
		return persistence.NewGormPostgreSQL(cfg.Database.Postgres.DSN())
	case "postgres":
		return persistence.NewPostgreSQL(cfg.Database.Postgres.DSN())
	}
	return nil, errors.Wrapf(persistence.ErrUnknownDriver, "%q", cfg.Database.Driver)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize Database
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return errors.Wrap(err, "failed to open roster store")
	}
	defer store.Close()
	logger.Log.Infow("roster store ready", "driver", cfg.Database.Driver)

	srv, err := server.NewSelectServer(cfg, store)
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Log.Infow("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runRoster(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := services.NewRosterService(store)
	roster, err := svc.LoadRosters(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, team := range svc.Teams() {
		fmt.Fprintf(out, "%s (%s)\n", team.Label, team.Name)
		for i, f := range roster[team.Label] {
			fmt.Fprintf(out, "  %d. %-16s %-20s %s\n", i, f.Name, f.Avatar, f.Unlock)
		}
	}
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	teams, fighters := cfg.RosterRecords()
	if _, err := services.NewRosterService(store).Import(cmd.Context(), teams, fighters); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d teams, %d fighters\n", len(teams), len(fighters))
	return nil
}
