package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the daemon's TOML configuration. Flags override file values.
type Config struct {
	Listen      string `toml:"listen"`
	Backend     string `toml:"backend"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	MaxMsgBytes int    `toml:"max_msg_bytes"`
}

func defaultConfig() Config {
	return Config{
		Listen:   "127.0.0.1:7787",
		Backend:  "pebble",
		DataDir:  defaultDataDir(),
		LogLevel: "info",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".imprint/records"
	}
	return filepath.Join(home, ".imprint", "records")
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %s: unknown key %q", path, undecoded[0])
	}
	return cfg, nil
}
