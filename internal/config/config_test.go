package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.SessionURL, "ws://127.0.0.1:8080/room")
	assert.Equal(t, cfg.BoardWidth, 960)
	assert.Equal(t, cfg.BoardHeight, 640)
	assert.Equal(t, cfg.BrushSize, float64(16))
	assert.Equal(t, cfg.Color, "black")
	assert.Equal(t, cfg.ListenAddr, ":8080")
	assert.Equal(t, cfg.Advertise, true)
	assert.Equal(t, cfg.LogLevel, "info")
}

func TestLoadWithoutFileKeepsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg, Default())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
session_url = "ws://10.0.0.4:9000/room/team"
brush_size = 4.5
color = "red"
log_level = "debug"
`)

	cfg, err := Load(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.SessionURL, "ws://10.0.0.4:9000/room/team")
	assert.Equal(t, cfg.BrushSize, 4.5)
	assert.Equal(t, cfg.Color, "red")
	assert.Equal(t, cfg.LogLevel, "debug")
	// Untouched keys keep their defaults.
	assert.Equal(t, cfg.BoardWidth, 960)
	assert.Equal(t, cfg.ListenAddr, ":8080")
}

func TestEnvironmentBeatsFile(t *testing.T) {
	path := writeConfig(t, `session_url = "ws://file.example:8080/room"`)
	t.Setenv("NETSKETCH_SESSION_URL", "ws://env.example:8080/room")
	t.Setenv("NETSKETCH_LOG_LEVEL", "warn")
	t.Setenv("NETSKETCH_OFFLINE", "true")

	cfg, err := Load(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.SessionURL, "ws://env.example:8080/room")
	assert.Equal(t, cfg.LogLevel, "warn")
	assert.Equal(t, cfg.Offline, true)
}

func TestExplicitMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.NotEqual(t, err, nil)
}

func TestBadTOMLIsAnError(t *testing.T) {
	path := writeConfig(t, `session_url = [broken`)
	_, err := Load(path)
	assert.NotEqual(t, err, nil)
}

func TestNormalizeRescuesBadValues(t *testing.T) {
	path := writeConfig(t, `
brush_size = -3
board_width = 0
log_level = "chatty"
`)

	cfg, err := Load(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.BrushSize, float64(16))
	assert.Equal(t, cfg.BoardWidth, 960)
	assert.Equal(t, cfg.LogLevel, "info")
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range cases {
		cfg := Config{LogLevel: name}
		assert.Equal(t, cfg.SlogLevel(), want)
	}
}
