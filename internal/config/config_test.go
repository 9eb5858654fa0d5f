package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodialabs/custodia/server/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "sqlite", cfg.Backend)
}

func TestLoad_FileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custodia.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"http_addr: \":9090\"\nbackend: memory\nenv: prod\n",
	), 0o644))

	t.Setenv("CUSTODIA_HTTP_ADDR", ":7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTPAddr, "env wins over the file")
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, "prod", cfg.Env)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("CUSTODIA_BACKEND", "postgres")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_UnknownEnvFailsSoft(t *testing.T) {
	t.Setenv("CUSTODIA_ENV", "staging")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
}
