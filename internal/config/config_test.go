package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/xvierd/gitlanes/internal/domain"
)

// useTempHome points the config at a fresh directory and clears viper's
// global state.
func useTempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(HomeEnv, home)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return home
}

func TestDefaultConfig_Geometry(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Geometry(); got != domain.DefaultGeometry() {
		t.Errorf("Geometry() = %+v, want %+v", got, domain.DefaultGeometry())
	}
}

func TestDefaultConfig_Palette(t *testing.T) {
	cfg := DefaultConfig()
	if len(cfg.Graph.Palette) != 16 {
		t.Fatalf("expected 16 palette colors, got %d", len(cfg.Graph.Palette))
	}
	if cfg.PaletteColor(0) != "#1f77b4" {
		t.Errorf("PaletteColor(0) = %s", cfg.PaletteColor(0))
	}
	if cfg.PaletteColor(17) != cfg.PaletteColor(1) {
		t.Error("expected palette to cycle")
	}
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	home := useTempHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, "config.toml")); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
	if cfg.Storage.DataDir != home {
		t.Errorf("DataDir = %s, want %s", cfg.Storage.DataDir, home)
	}
	if cfg.Git.MaxCount != 200 {
		t.Errorf("MaxCount = %d, want 200", cfg.Git.MaxCount)
	}
	if time.Duration(cfg.Watch.Debounce) != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want 300ms", cfg.Watch.Debounce)
	}
	if cfg.Geometry() != domain.DefaultGeometry() {
		t.Errorf("Geometry() = %+v", cfg.Geometry())
	}
	if GetDBPath(cfg) != filepath.Join(home, "gitlanes.db") {
		t.Errorf("GetDBPath() = %s", GetDBPath(cfg))
	}
	if GetLogPath(cfg) != filepath.Join(home, "logs", "gitlanes.log") {
		t.Errorf("GetLogPath() = %s", GetLogPath(cfg))
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	home := useTempHome(t)
	content := `
[git]
max_count = 50

[graph]
row_spacing = 40
palette = ["#000000", "#ffffff"]

[watch]
debounce = "1s"
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Git.MaxCount != 50 {
		t.Errorf("MaxCount = %d, want 50", cfg.Git.MaxCount)
	}
	g := cfg.Geometry()
	if g.RowSpacing != 40 {
		t.Errorf("RowSpacing = %d, want 40", g.RowSpacing)
	}
	if g.ColumnSpacing != 25 {
		t.Errorf("ColumnSpacing = %d, want default 25", g.ColumnSpacing)
	}
	if g.PaletteSize != 2 {
		t.Errorf("PaletteSize = %d, want 2", g.PaletteSize)
	}
	if time.Duration(cfg.Watch.Debounce) != time.Second {
		t.Errorf("Debounce = %v, want 1s", cfg.Watch.Debounce)
	}
}

func TestLoad_RejectsInvalidGeometry(t *testing.T) {
	home := useTempHome(t)
	content := "[graph]\nrow_spacing = 0\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("expected error for zero row spacing")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	useTempHome(t)

	cfg := DefaultConfig()
	cfg.Server.Addr = "127.0.0.1:9999"
	cfg.Notifications.Enabled = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	viper.Reset()
	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server.Addr != "127.0.0.1:9999" {
		t.Errorf("Addr = %s", loaded.Server.Addr)
	}
	if !loaded.Notifications.Enabled {
		t.Error("expected notifications enabled")
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if time.Duration(d) != 90*time.Second {
		t.Errorf("got %v", d)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %s", text)
	}
	if err := d.UnmarshalText([]byte("soon")); err == nil {
		t.Error("expected error for invalid duration")
	}
}
