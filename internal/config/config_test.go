package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears the variables Load reads and points the secret at a
// missing file so the host environment does not leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "DB_FILE", "UPDATE_TIME", "TIME_ZONE",
		"TRENDING_ON_START", "INLINE_CACHE_SECONDS", "LOG_LEVEL", "LOG_PRETTY", "METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
	orig := tokenSecretPath
	tokenSecretPath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { tokenSecretPath = orig })
	t.Chdir(t.TempDir()) // no stray .env
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sticker.db", cfg.DBFile)
	assert.Equal(t, "00:00:00", cfg.UpdateTime())
	assert.Equal(t, time.Local, cfg.Location)
	assert.False(t, cfg.TrendingOnStart)
	assert.Equal(t, 300, cfg.InlineCacheSeconds)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Empty(t, cfg.TelegramToken)
}

func TestLoad_Overrides(t *testing.T) {
	isolate(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", " 123:abc ")
	t.Setenv("DB_FILE", "data/bot.db")
	t.Setenv("UPDATE_TIME", "04:30")
	t.Setenv("TIME_ZONE", "Asia/Taipei")
	t.Setenv("TRENDING_ON_START", "yes")
	t.Setenv("INLINE_CACHE_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("LOG_PRETTY", "on")
	t.Setenv("METRICS_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "data/bot.db", cfg.DBFile)
	assert.Equal(t, "04:30:00", cfg.UpdateTime())
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
	assert.True(t, cfg.TrendingOnStart)
	assert.Equal(t, 60, cfg.InlineCacheSeconds)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoad_SecretFileWins(t *testing.T) {
	isolate(t)
	secret := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(secret, []byte("from-secret\n"), 0o600))
	tokenSecretPath = secret
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.TelegramToken)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile(".env", []byte("DB_FILE=from-dotenv.db\n"), 0o600))
	// godotenv never overrides variables that are already set, even empty ones.
	require.NoError(t, os.Unsetenv("DB_FILE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DBFile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LOG_LEVEL", "verbose"},
		{"UPDATE_TIME", "25:00"},
		{"UPDATE_TIME", "noon"},
		{"UPDATE_TIME", "1:2:3:4"},
		{"TIME_ZONE", "Mars/Olympus"},
		{"INLINE_CACHE_SECONDS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, s, err := parseClock("23:59:59")
	require.NoError(t, err)
	assert.Equal(t, []int{23, 59, 59}, []int{h, m, s})

	h, m, s, err = parseClock("7:05")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 5, 0}, []int{h, m, s})

	_, _, _, err = parseClock("12:60")
	assert.Error(t, err)
}
