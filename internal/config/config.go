// Package config holds user configurable settings for netsketch,
// merged from defaults, an optional TOML file and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"netsketch/internal/board"
	"netsketch/internal/engine"
)

// Config is everything the client and the relay read at startup.
type Config struct {
	// SessionURL is the relay endpoint the client joins. Empty plus
	// Offline false still means this default; set Offline for a board
	// that never dials out.
	SessionURL string `toml:"session_url"`
	Offline    bool   `toml:"offline"`

	BoardWidth  int     `toml:"board_width"`
	BoardHeight int     `toml:"board_height"`
	BrushSize   float64 `toml:"brush_size"`
	Color       string  `toml:"color"`

	// ListenAddr and Advertise configure `netsketch serve`.
	ListenAddr string `toml:"listen_addr"`
	Advertise  bool   `toml:"advertise"`

	LogLevel string `toml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		SessionURL:  "ws://127.0.0.1:8080/room",
		Offline:     false,
		BoardWidth:  board.DefaultWidth,
		BoardHeight: board.DefaultHeight,
		BrushSize:   engine.DefaultBrushSize,
		Color:       engine.DefaultColor,
		ListenAddr:  ":8080",
		Advertise:   true,
		LogLevel:    "info",
	}
}

// Load merges defaults, the TOML file at path (or
// ~/.netsketch/config.toml when path is empty) and NETSKETCH_*
// environment variables, in that order. A missing default file is
// fine; a missing explicit one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			path = filepath.Join(home, ".netsketch", "config.toml")
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config: load %s: %w", path, err)
			}
		}
	}

	// Environment overrides are handy in containers and scripts.
	if v := os.Getenv("NETSKETCH_SESSION_URL"); v != "" {
		cfg.SessionURL = v
	}
	if v := os.Getenv("NETSKETCH_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("NETSKETCH_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NETSKETCH_OFFLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Offline = b
		}
	}

	cfg.normalize()
	return cfg, nil
}

// normalize pulls out-of-range values back to their defaults so a bad
// config file degrades instead of breaking startup.
func (c *Config) normalize() {
	def := Default()
	if c.BoardWidth < 1 {
		c.BoardWidth = def.BoardWidth
	}
	if c.BoardHeight < 1 {
		c.BoardHeight = def.BoardHeight
	}
	if c.BrushSize <= 0 {
		c.BrushSize = def.BrushSize
	}
	if c.Color == "" {
		c.Color = def.Color
	}
	if c.SessionURL == "" {
		c.SessionURL = def.SessionURL
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
}

// SlogLevel maps the configured level onto slog's scale.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
