package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/lehigh-university-libraries/bookmerge/internal/merge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvGoogleBooksKey, "")

	cfg, path, exists, err := Load("")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, defaultConfigFile, path)
	assert.Equal(t, merge.DefaultPolicy(), cfg.Survivorship)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, "landing/goodreads_books.json", cfg.Inputs.Goodreads)
	assert.True(t, cfg.Output.CSV)
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvGoogleBooksKey, "")
	path := writeConfig(t, `
inputs:
  goodreads: in/gr.jsonl
output:
  dir: out
  sqlite: out/catalog.db
survivorship:
  commerce: preferSecondary
identity:
  strict_checksum: true
workers: 3
`)

	cfg, resolved, exists, err := Load(path)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "in/gr.jsonl", cfg.Inputs.Goodreads)
	assert.Equal(t, "landing/googlebooks_books.csv", cfg.Inputs.GoogleBooks, "unset keys keep defaults")
	assert.Equal(t, "out/catalog.db", cfg.Output.SQLite)
	assert.Equal(t, merge.PreferPrimary, cfg.Survivorship.Descriptive)
	assert.Equal(t, merge.PreferSecondary, cfg.Survivorship.Commerce)
	assert.True(t, cfg.Identity.StrictChecksum)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "workers: 3\n")
	t.Setenv(EnvWorkers, "7")
	t.Setenv(EnvGoogleBooksKey, "secret")

	cfg, _, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "secret", cfg.GoogleBooks.APIKey)
}

func TestLoadPathFromEnv(t *testing.T) {
	path := writeConfig(t, "workers: 5\n")
	t.Setenv(EnvConfig, path)
	t.Setenv(EnvWorkers, "")

	cfg, resolved, exists, err := Load("")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, path, resolved)
	assert.Equal(t, 5, cfg.Workers)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvWorkers, "")

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown preference", "survivorship:\n  descriptive: newestWins\n", "Descriptive"},
		{"bad workers", "workers: 0\n", "Workers"},
		{"bad log level", "logging:\n  level: loud\n", "Level"},
		{"bad yaml", "workers: [\n", "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")

	t.Setenv(EnvWorkers, "many")
	_, _, _, err = Load(writeConfig(t, "workers: 2\n"))
	assert.ErrorContains(t, err, EnvWorkers)
}
