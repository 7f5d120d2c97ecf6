package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/service"
)

const testSecret = "cli-test-secret"

func sqliteEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.db")
	t.Setenv("SECRETS_DIR", t.TempDir())
	t.Setenv("CI", "")
	t.Setenv("APP_ENV", "test")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RATE_LIMIT_REQUESTS", "")
	t.Setenv("RATE_LIMIT_WINDOW", "")
	t.Setenv("RATE_LIMIT_STORE", "")
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	sqliteEnv(t)
	id := uuid.New()

	out, err := execute(t, "token", "--user", id.String(), "--username", "alice")
	require.NoError(t, err)

	claims, err := service.NewTokenService(testSecret).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenCommand_InvalidUser(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "token", "--user", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --user")
}

func TestMigrateCommand(t *testing.T) {
	path := sqliteEnv(t)

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	db, err := database.Open(&config.Config{DBDriver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.True(t, db.Migrator().HasTable("meal_plans"))
	assert.True(t, db.Migrator().HasTable("nutrition_profiles"))
}

func TestInvalidLogLevel(t *testing.T) {
	sqliteEnv(t)

	_, err := execute(t, "--log-level", "loud", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
