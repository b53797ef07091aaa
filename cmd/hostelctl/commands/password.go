package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"hostel-backend/internal/auth"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newHashPasswordCmd() *cobra.Command {
	var envPath string
	var writeEnv bool

	cmd := &cobra.Command{
		Use:     "hash-password [password]",
		Aliases: []string{"set-admin-password"},
		Short:   "Hash an admin password with bcrypt",
		Long: `Print a bcrypt hash of the admin password for ADMIN_PASSWORD_HASH.

With --write-env the hash is stored in the .env file and any plaintext
ADMIN_PASSWORD entry is removed. The password is read from stdin when it is
not given as an argument.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(cmd, args)
			if err != nil {
				return err
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}

			if !writeEnv {
				fmt.Fprintln(cmd.OutOrStdout(), hash)
				return nil
			}
			if err := storeHash(envPath, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_PASSWORD_HASH updated in %s\n", envPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&writeEnv, "write-env", false, "Store the hash in the .env file")
	cmd.Flags().StringVar(&envPath, "env-file", ".env", "Path of the .env file to update")
	return cmd
}

func passwordArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		if args[0] == "" {
			return "", errors.New("password must not be empty")
		}
		return args[0], nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password must not be empty")
	}
	return line, nil
}

// storeHash rewrites path with ADMIN_PASSWORD_HASH set, keeping every other
// entry.
func storeHash(path, hash string) error {
	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		env = map[string]string{}
	} else if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	env["ADMIN_PASSWORD_HASH"] = hash
	delete(env, "ADMIN_PASSWORD")

	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0o600)
}
