package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the sqlite database",
		Long: `Write a consistent copy of the sqlite database while the server keeps
running. By default snapshots go to <data_root>/backups with a timestamped
name. Uploaded media is not included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			dest := output
			if dest == "" {
				name := "complaints-" + time.Now().UTC().Format("20060102-150405") + ".db"
				dest = filepath.Join(cfg.DataRoot, "backups", name)
			}
			if err := conn.BackupTo(ctx, dest); err != nil {
				return err
			}

			info, err := os.Stat(dest)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (%d bytes)\n", dest, info.Size())
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to this file")
	return cmd
}
