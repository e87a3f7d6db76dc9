package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	logger := log.Logger
	userName, userAdmin, dbFlag = "", false, ""
	t.Cleanup(func() {
		log.Logger = logger
		rootCmd.SetArgs(nil)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserAddAndList(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bot.db")

	out, err := execute(t, "--db", db, "user", "add", "42", "--name", "alice", "--admin")
	require.NoError(t, err)
	assert.Equal(t, "user 42 saved\n", out)

	_, err = execute(t, "--db", db, "user", "add", "7")
	require.NoError(t, err)

	out, err = execute(t, "--db", db, "user", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"ID", "NAME", "ROLE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"7", "user"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"42", "alice", "admin"}, strings.Fields(lines[2]))
}

func TestUserAdd_InvalidID(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bot.db")
	_, err := execute(t, "--db", db, "user", "add", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid user id")
}

func TestUserAdd_RequiresOneArg(t *testing.T) {
	assert.Error(t, userAddCmd.Args(userAddCmd, []string{}))
	assert.NoError(t, userAddCmd.Args(userAddCmd, []string{"1"}))
	assert.Error(t, userAddCmd.Args(userAddCmd, []string{"1", "2"}))
}

func TestTrending_RunsOnce(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bot.db")
	_, err := execute(t, "--db", db, "user", "add", "1")
	require.NoError(t, err)

	out, err := execute(t, "--db", db, "trending")
	require.NoError(t, err)
	assert.Contains(t, out, "1 users, 0 entries")
}

func TestDBFromEnvironment(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("DB_FILE", db)

	_, err := execute(t, "user", "add", "5")
	require.NoError(t, err)
	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestRun_RequiresToken(t *testing.T) {
	db := filepath.Join(t.TempDir(), "bot.db")
	if _, err := os.Stat("/run/secrets/telegram_bot_token"); err == nil {
		t.Skip("a bot token secret is mounted on this host")
	}
	_, err := execute(t, "--db", db, "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}
