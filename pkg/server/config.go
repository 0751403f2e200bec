package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration. Values come from the optional YAML
// config file, overridden by CLI flags in cmd/server.
type Config struct {
	ListenAddr  string `yaml:"listen_addr"`  // TCP bind address (e.g. ":12345")
	MetricsAddr string `yaml:"metrics_addr"` // HTTP bind address for /metrics (empty = disabled)

	UsersFile   string `yaml:"users_file"`   // YAML credentials file
	HistoryFile string `yaml:"history_file"` // append-only chat history log (empty = disabled)
	DBPath      string `yaml:"db_path"`      // SQLite database path (empty = in-memory)
	ObjectDir   string `yaml:"object_dir"`   // directory for relayed audio payloads (empty = disabled)

	TranslateURL string `yaml:"translate_url"` // translation endpoint (empty = passthrough)

	// CipherKey is the pre-shared message transform key, raw or hex encoded,
	// 16/24/32 bytes; a "hex:" or "raw:" prefix forces the encoding. Empty
	// disables the /encrypt command. Never hardcoded.
	CipherKey string `yaml:"cipher_key"`

	// MaxAuthAttempts bounds failed credential exchanges per connection.
	// 0 means unlimited, preserving the historical behavior.
	MaxAuthAttempts int `yaml:"max_auth_attempts"`

	// IdleTimeout disconnects a session with no inbound traffic.
	// 0 disables the timeout.
	IdleTimeout Duration `yaml:"idle_timeout"`
}

// Duration wraps time.Duration so YAML values like "5m" decode naturally.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("server: duration must be a string like \"90s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("server: parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:  ":12345",
		MetricsAddr: ":12346",
		UsersFile:   "users.yaml",
		HistoryFile: "chat_history.txt",
		DBPath:      "linechat.db",
		ObjectDir:   "audio",
	}
}

// LoadConfigFile overlays a YAML config file on top of cfg.
func LoadConfigFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		return cfg, fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("server: parse config: %w", err)
	}
	return cfg, nil
}
