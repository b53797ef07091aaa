package commands

import (
	"fmt"
	"io"
	"os"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/media"
	"hostel-backend/internal/models"
	"hostel-backend/internal/repositories"
	"hostel-backend/internal/services"

	"github.com/spf13/cobra"
)

// operator is the identity CLI exports run under. Shell access to the
// configuration already implies admin rights.
var operator = auth.Admin{Authenticated: true, Subject: "hostelctl"}

func newExportCmd(opts *options) *cobra.Command {
	var format, search, status, from, to, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export complaints as CSV or JSON",
		Example: `  hostelctl export --format csv --status open > open.csv
  hostelctl export --format json --from 2024-01-01 --to 2024-01-31 -o january.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write, err := exportWriter(format)
			if err != nil {
				return err
			}
			filter, err := models.ParseComplaintFilter(search, status, from, to)
			if err != nil {
				return err
			}

			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			conn, _, err := openDB(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer conn.Close()

			backend, err := media.NewBackend(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			svc := services.NewAdminService(repositories.NewComplaintRepository(conn), backend, conn, nil, log)

			rows, err := svc.Export(ctx, operator, filter)
			if err != nil {
				return err
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := write(out, rows); err != nil {
				return err
			}
			log.Debug().Int("rows", len(rows)).Str("format", format).Msg("export written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv or json")
	cmd.Flags().StringVar(&search, "search", "", "Match title, description, name, room or address")
	cmd.Flags().StringVar(&status, "status", "", "Only complaints with this status (open, in-progress, closed)")
	cmd.Flags().StringVar(&from, "from", "", "Created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Created on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Write to this file instead of stdout")
	return cmd
}

func exportWriter(format string) (func(io.Writer, []models.ExportRow) error, error) {
	switch format {
	case "csv":
		return services.WriteCSV, nil
	case "json":
		return services.WriteJSON, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want csv or json)", format)
	}
}
