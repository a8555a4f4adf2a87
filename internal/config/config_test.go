package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/config"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChainEndpoint, cfg.ChainEndpoint)

	dir, err := config.Dir()
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, config.ConfigFileName))
	assert.NoError(t, err, "first load must create the config file")
}

func TestLoadReadsExistingEndpoint(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)

	dir := filepath.Join(root, config.AppDirName)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	path := filepath.Join(dir, config.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("chain_endpoint = \"wss://ledger.example.org\"\n"), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "wss://ledger.example.org", cfg.ChainEndpoint)
}
