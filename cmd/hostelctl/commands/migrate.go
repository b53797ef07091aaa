package commands

import (
	"fmt"
	"text/tabwriter"

	"hostel-backend/internal/database"
	"hostel-backend/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Aliases: []string{"init-db"},
		Short:   "Create or upgrade the database schema",
		Long: `Create the complaints table if it is missing and apply every pending
schema migration. Safe to run repeatedly and against databases created by
older releases.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			conn, ran, err := openDB(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (%s)\n", conn.Location(), conn.Driver())
			if len(ran) == 0 {
				fmt.Fprintln(out, "Schema is up to date.")
			} else {
				fmt.Fprintf(out, "Applied %d migration(s): %v\n", len(ran), ran)
			}

			recorded, err := database.NewMigrator(conn, migrations.All, log).Applied(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
			for _, m := range recorded {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, m.AppliedAt)
			}
			return tw.Flush()
		},
	}
}
