package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/battleship/internal/game"
)

var keys = []string{
	"LOG_LEVEL", "LOG_FORMAT", "LEADERBOARD_FILE", "CONNLOG_FILE", "CONNLOG_DSN",
	"BOARDS_DIR", "GRID_ROWS", "GRID_COLS", "SCORING", "SESSION_IDLE_TIMEOUT",
	"OPS_ADDR", "ADMIT_PER_MINUTE", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
}

// clearEnv unsets every key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Config{
		LogLevel:        "info",
		LogFormat:       "json",
		LeaderboardFile: "leaderboard.txt",
		ConnLogFile:     "logs.txt",
		GridRows:        7,
		GridCols:        7,
		Scoring:         "bonus",
	}, cfg)
	require.Equal(t, game.ScoringWinBonus, cfg.ScoringMode())
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCORING", "running")
	t.Setenv("SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("GRID_ROWS", "10")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load(writeDotenv(t, ""))
	require.NoError(t, err)
	require.Equal(t, game.ScoringRunningTotal, cfg.ScoringMode())
	require.Equal(t, 90*time.Second, cfg.SessionIdleTimeout)
	require.Equal(t, 10, cfg.GridRows)
	require.Equal(t, 2, cfg.RedisDB)
}

func TestDotenvDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPS_ADDR", ":9000")

	cfg, err := Load(writeDotenv(t, "OPS_ADDR=:9999\nADMIT_PER_MINUTE=30\n"))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.OpsAddr)
	require.Equal(t, 30, cfg.AdmitPerMinute)
}

func TestMissingDotenvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}

func TestValidation(t *testing.T) {
	cases := map[string]string{
		"LOG_FORMAT":           "xml",
		"GRID_ROWS":            "0",
		"GRID_COLS":            "-1",
		"SCORING":              "double",
		"SESSION_IDLE_TIMEOUT": "-5s",
		"ADMIT_PER_MINUTE":     "-1",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load(writeDotenv(t, ""))
			require.ErrorContains(t, err, key)
		})
	}
}

func TestParseError(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRID_ROWS", "seven")
	_, err := Load(writeDotenv(t, ""))
	require.ErrorContains(t, err, "parse env")
}

// writeDotenv writes content to a temp .env file. godotenv writes straight
// to the process environment; clearEnv restores those keys afterwards.
func writeDotenv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
