// Package commands implements hostelctl, the operator CLI for the complaint
// tracker.
package commands

import (
	"context"
	"fmt"
	"os"

	"hostel-backend/internal/config"
	"hostel-backend/internal/database"
	"hostel-backend/internal/db"
	"hostel-backend/internal/logger"
	"hostel-backend/migrations"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	verbose    bool
}

// NewRootCmd builds the hostelctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "hostelctl",
		Short: "Manage the hostel complaint tracker",
		Long: `hostelctl manages a hostel complaint tracker installation.

It reads the same configuration as the server: .env, an optional YAML file
and environment variables such as DATA_ROOT, DATABASE_DRIVER and DATABASE_URL.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newHashPasswordCmd())
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newBackupCmd(opts))
	return root
}

func (o *options) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log := logger.New(cfg.Env, level).Output(zerolog.ConsoleWriter{Out: os.Stderr})
	return cfg, log, nil
}

// openDB connects and brings the schema up to date. The returned versions
// are the migrations this call applied.
func openDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*db.DB, []int, error) {
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	applied, err := database.NewMigrator(conn, migrations.All, log).RunMigrations(ctx)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return conn, applied, nil
}
