package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/akramer/linechat/pkg/collab"
	"github.com/akramer/linechat/pkg/crypto"
	"github.com/akramer/linechat/pkg/datastore"
	"github.com/akramer/linechat/pkg/logging"
	"github.com/akramer/linechat/pkg/server"
	"github.com/akramer/linechat/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	configFile := flag.String("config", "", "YAML config file (flags override its values)")
	showVersion := flag.Bool("version", false, "print version and exit")

	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "TCP bind address")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for /metrics (empty to disable)")
	flag.StringVar(&cfg.UsersFile, "users", cfg.UsersFile, "YAML credentials file")
	flag.StringVar(&cfg.HistoryFile, "history", cfg.HistoryFile, "chat history file (empty to disable)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path (empty = in-memory)")
	flag.StringVar(&cfg.ObjectDir, "objects", cfg.ObjectDir, "directory for relayed audio payloads (empty to disable)")
	flag.StringVar(&cfg.TranslateURL, "translate-url", cfg.TranslateURL, "translation endpoint URL (empty = passthrough)")
	flag.StringVar(&cfg.CipherKey, "cipher-key", cfg.CipherKey, "pre-shared message key, raw or hex, 16/24/32 bytes, prefix hex: or raw: to force the encoding (empty disables /encrypt)")
	flag.IntVar(&cfg.MaxAuthAttempts, "max-auth-attempts", cfg.MaxAuthAttempts, "failed logins per connection before disconnect (0 = unlimited)")
	flag.DurationVar((*time.Duration)(&cfg.IdleTimeout), "idle-timeout", time.Duration(cfg.IdleTimeout), "disconnect idle sessions after this duration (0 = never)")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file, so reparse after the overlay.
	if *configFile != "" {
		loaded, err := server.LoadConfigFile(*configFile, cfg)
		if err != nil {
			slog.Error("load config", "err", err)
			os.Exit(1)
		}
		cfg = loaded
		flag.Parse()
	}

	deps, err := buildDependencies(cfg)
	if err != nil {
		slog.Error("configure server", "err", err)
		os.Exit(1)
	}

	slog.Info("starting chat server", "version", version.String())

	srv := server.New(cfg, deps)
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

// buildDependencies wires the collaborators selected by the configuration.
func buildDependencies(cfg server.Config) (server.Dependencies, error) {
	var deps server.Dependencies

	auth, err := collab.LoadAuthenticator(cfg.UsersFile)
	if err != nil {
		return deps, err
	}
	deps.Auth = auth

	if cfg.HistoryFile != "" {
		history, err := collab.NewFileHistorySink(cfg.HistoryFile)
		if err != nil {
			return deps, err
		}
		deps.History = history
	}

	if cfg.DBPath != "" {
		store, err := datastore.Open(cfg.DBPath)
		if err != nil {
			return deps, err
		}
		deps.Store = store
	} else {
		deps.Store = datastore.NewMemory()
	}

	if cfg.ObjectDir != "" {
		objects, err := collab.NewDirObjectStore(cfg.ObjectDir)
		if err != nil {
			return deps, err
		}
		deps.Objects = objects
	}

	if cfg.TranslateURL != "" {
		deps.Translator = collab.NewHTTPTranslator(cfg.TranslateURL)
	}

	if cfg.CipherKey != "" {
		key, err := crypto.ParseKey(cfg.CipherKey)
		if err != nil {
			return deps, err
		}
		cipher, err := crypto.NewMessageCipher(key)
		if err != nil {
			return deps, err
		}
		deps.Cipher = cipher
	}

	return deps, nil
}
