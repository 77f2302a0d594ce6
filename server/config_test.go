package server

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/nodegen/client"
)

// unsetForTest clears an env var for the duration of the test and restores
// the previous state afterwards.
func unsetForTest(t *testing.T, name string) {
	t.Setenv(name, "")
	os.Unsetenv(name)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, client.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, client.DefaultModel, cfg.Model)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadConfigLayers(t *testing.T) {
	unsetForTest(t, "NODEGEN_MODEL")
	unsetForTest(t, "NODEGEN_LISTEN_ADDR")
	t.Setenv("NODEGEN_LOG_LEVEL", "debug")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("NODEGEN_MODEL=from-dotenv\nNODEGEN_LOG_LEVEL=error\n"), 0644))

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Model)
	// the process environment wins over .env
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.ListenAddr)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-listen", ":9999"}))
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "from-dotenv", cfg.Model)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Endpoint)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	_, err := cfg.NewLogger()
	assert.NoError(t, err)

	cfg.LogFormat = "xml"
	_, err = cfg.NewLogger()
	assert.Error(t, err)

	cfg.LogFormat = "text"
	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
