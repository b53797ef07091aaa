package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/config"
	"hostel-backend/internal/db"
	"hostel-backend/internal/models"
	"hostel-backend/internal/repositories"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func useDataRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("DATA_ROOT", root)
	t.Setenv("ENV", "dev")
	return root
}

func TestMigrate(t *testing.T) {
	root := useDataRoot(t)

	out, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 6 migration(s): [1 2 3 4 5 6]")
	assert.Contains(t, out, "create_complaints")
	assert.FileExists(t, filepath.Join(root, "instance", "complaints.db"))

	out, err = execute(t, "", "init-db")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")
}

func TestExport(t *testing.T) {
	root := useDataRoot(t)
	_, err := execute(t, "", "migrate")
	require.NoError(t, err)

	ctx := context.Background()
	conn, err := db.Connect(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(root, "instance", "complaints.db"),
	})
	require.NoError(t, err)
	code := "abcdef0123"
	require.NoError(t, repositories.NewComplaintRepository(conn).Create(ctx, &models.Complaint{
		Name: "Ravi", Room: "4A", Title: "No hot water", Description: "Since Monday", AccessCode: &code,
	}))
	conn.Close()

	out, err := execute(t, "", "export", "--status", "open")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,room,title,description,image,address,phone,status,created_at", lines[0])
	assert.Contains(t, lines[1], "No hot water")

	out, err = execute(t, "", "export", "--format", "json", "--status", "closed")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)

	file := filepath.Join(root, "all.json")
	_, err = execute(t, "", "export", "-f", "json", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["phone"])

	_, err = execute(t, "", "export", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = execute(t, "", "export", "--from", "01/02/2024")
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "s3cret")
	require.NoError(t, err)
	v, err := auth.NewBcryptVerifier(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.True(t, v.Verify("s3cret"))

	_, err = execute(t, "", "hash-password")
	assert.Error(t, err)
}

func TestHashPassword_WriteEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("ADMIN_PASSWORD=admin\nPORT=8080\n"), 0o600))

	out, err := execute(t, "from-stdin\n", "set-admin-password", "--write-env", "--env-file", envPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ADMIN_PASSWORD_HASH updated")

	env, err := godotenv.Read(envPath)
	require.NoError(t, err)
	assert.NotContains(t, env, "ADMIN_PASSWORD")
	assert.Equal(t, "8080", env["PORT"])

	v, err := auth.NewBcryptVerifier(env["ADMIN_PASSWORD_HASH"])
	require.NoError(t, err)
	assert.True(t, v.Verify("from-stdin"))
}

func TestBackup(t *testing.T) {
	root := useDataRoot(t)

	dest := filepath.Join(root, "snap.db")
	out, err := execute(t, "", "backup", "--output", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Backup written to "+dest)
	assert.FileExists(t, dest)

	_, err = execute(t, "", "backup")
	require.NoError(t, err)
	entries, err := os.ReadDir(filepath.Join(root, "backups"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
