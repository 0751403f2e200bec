package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen_addr: ":9000"
cipher_key: "1234567890123456"
max_auth_attempts: 3
idle_timeout: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := LoadConfigFile(path, DefaultConfig())
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.ListenAddr)
	require.Equal(t, "1234567890123456", cfg.CipherKey)
	require.Equal(t, 3, cfg.MaxAuthAttempts)
	require.Equal(t, Duration(5*time.Minute), cfg.IdleTimeout)

	// Untouched fields keep their defaults.
	require.Equal(t, DefaultConfig().DBPath, cfg.DBPath)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"), DefaultConfig())
	require.Error(t, err)
}
