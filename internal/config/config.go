// Package config provides configuration management for gitlanes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/xvierd/gitlanes/internal/domain"
)

// HomeEnv overrides the directory holding the config file, database and logs.
const HomeEnv = "GITLANES_HOME"

const defaultDataDir = "~/.gitlanes"

// Config holds all configuration for the gitlanes application.
type Config struct {
	Git           GitConfig          `mapstructure:"git"`
	Graph         GraphConfig        `mapstructure:"graph"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Server        ServerConfig       `mapstructure:"server"`
	Watch         WatchConfig        `mapstructure:"watch"`
	Log           LogConfig          `mapstructure:"log"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// GitConfig holds git invocation settings.
type GitConfig struct {
	Binary   string `mapstructure:"binary"`
	MaxCount int    `mapstructure:"max_count"`
}

// GraphConfig holds the commit graph geometry and branch palette.
type GraphConfig struct {
	NodeRadius     int      `mapstructure:"node_radius"`
	ColumnSpacing  int      `mapstructure:"column_spacing"`
	RowSpacing     int      `mapstructure:"row_spacing"`
	OffsetX        int      `mapstructure:"offset_x"`
	OffsetY        int      `mapstructure:"offset_y"`
	ClickTolerance float64  `mapstructure:"click_tolerance"`
	MinWidth       int      `mapstructure:"min_width"`
	MinHeight      int      `mapstructure:"min_height"`
	Palette        []string `mapstructure:"palette"`
}

// DefaultPalette is the cycle of branch colors, indexed by lane.
func DefaultPalette() []string {
	return []string{
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728",
		"#9467bd", "#8c564b", "#e377c2", "#7f7f7f",
		"#bcbd22", "#17becf", "#aec7e8", "#ffbb78",
		"#98df8a", "#ff9896", "#c5b0d5", "#c49c94",
	}
}

// DefaultGraphConfig returns the stock geometry.
func DefaultGraphConfig() GraphConfig {
	g := domain.DefaultGeometry()
	return GraphConfig{
		NodeRadius:     g.NodeRadius,
		ColumnSpacing:  g.ColumnSpacing,
		RowSpacing:     g.RowSpacing,
		OffsetX:        g.OffsetX,
		OffsetY:        g.OffsetY,
		ClickTolerance: g.ClickTolerance,
		MinWidth:       g.MinWidth,
		MinHeight:      g.MinHeight,
		Palette:        DefaultPalette(),
	}
}

// ThemeConfig holds theme customization settings (colors and icons).
type ThemeConfig struct {
	ColorTitle     string `mapstructure:"color_title"`
	ColorSelected  string `mapstructure:"color_selected"`
	ColorHash      string `mapstructure:"color_hash"`
	ColorAuthor    string `mapstructure:"color_author"`
	ColorStaged    string `mapstructure:"color_staged"`
	ColorUnstaged  string `mapstructure:"color_unstaged"`
	ColorUntracked string `mapstructure:"color_untracked"`
	ColorError     string `mapstructure:"color_error"`
	ColorHelp      string `mapstructure:"color_help"`
	IconBranch     string `mapstructure:"icon_branch"`
	IconBusy       string `mapstructure:"icon_busy"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorTitle:     "#7C6FE0",
		ColorSelected:  "#A78BFA",
		ColorHash:      "#F5A524",
		ColorAuthor:    "#4ECDC4",
		ColorStaged:    "#2ECC71",
		ColorUnstaged:  "#E74C3C",
		ColorUntracked: "#95A5A6",
		ColorError:     "#FF6B6B",
		ColorHelp:      "#6B7280",
		IconBranch:     "🌿",
		IconBusy:       "⏳",
	}
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	AllowWrite bool `mapstructure:"allow_write"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// ServerConfig holds web viewer settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// WatchConfig holds repository watcher settings.
type WatchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Debounce Duration `mapstructure:"debounce"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Git: GitConfig{
			Binary:   "git",
			MaxCount: 200,
		},
		Graph: DefaultGraphConfig(),
		Notifications: NotificationConfig{
			Enabled: false,
			Sound:   false,
		},
		MCP: MCPConfig{
			Enabled:    true,
			AllowWrite: true,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7420",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration(300 * time.Millisecond),
		},
		Log: LogConfig{
			Level: "info",
			File:  true,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the config file, creating it with
// defaults on first run.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("toml")

	setDefaults()

	// If config file doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, decoderOption()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Storage.DataDir == defaultDataDir || cfg.Storage.DataDir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Storage.DataDir = home
	}

	if err := cfg.Geometry().Validate(); err != nil {
		return nil, fmt.Errorf("invalid [graph] section: %w", err)
	}

	return &cfg, nil
}

// decoderOption lets durations and palettes be written as plain strings.
func decoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}

// Save saves the configuration to the config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("toml")

	viper.Set("git.binary", cfg.Git.Binary)
	viper.Set("git.max_count", cfg.Git.MaxCount)
	viper.Set("graph.node_radius", cfg.Graph.NodeRadius)
	viper.Set("graph.column_spacing", cfg.Graph.ColumnSpacing)
	viper.Set("graph.row_spacing", cfg.Graph.RowSpacing)
	viper.Set("graph.offset_x", cfg.Graph.OffsetX)
	viper.Set("graph.offset_y", cfg.Graph.OffsetY)
	viper.Set("graph.click_tolerance", cfg.Graph.ClickTolerance)
	viper.Set("graph.min_width", cfg.Graph.MinWidth)
	viper.Set("graph.min_height", cfg.Graph.MinHeight)
	viper.Set("graph.palette", cfg.Graph.Palette)
	viper.Set("notifications.enabled", cfg.Notifications.Enabled)
	viper.Set("notifications.sound", cfg.Notifications.Sound)
	viper.Set("mcp.enabled", cfg.MCP.Enabled)
	viper.Set("mcp.allow_write", cfg.MCP.AllowWrite)
	viper.Set("storage.data_dir", cfg.Storage.DataDir)
	viper.Set("server.addr", cfg.Server.Addr)
	viper.Set("watch.enabled", cfg.Watch.Enabled)
	viper.Set("watch.debounce", cfg.Watch.Debounce.String())
	viper.Set("log.level", cfg.Log.Level)
	viper.Set("log.file", cfg.Log.File)
	viper.Set("theme.color_title", cfg.Theme.ColorTitle)
	viper.Set("theme.color_selected", cfg.Theme.ColorSelected)
	viper.Set("theme.color_hash", cfg.Theme.ColorHash)
	viper.Set("theme.color_author", cfg.Theme.ColorAuthor)
	viper.Set("theme.color_staged", cfg.Theme.ColorStaged)
	viper.Set("theme.color_unstaged", cfg.Theme.ColorUnstaged)
	viper.Set("theme.color_untracked", cfg.Theme.ColorUntracked)
	viper.Set("theme.color_error", cfg.Theme.ColorError)
	viper.Set("theme.color_help", cfg.Theme.ColorHelp)
	viper.Set("theme.icon_branch", cfg.Theme.IconBranch)
	viper.Set("theme.icon_busy", cfg.Theme.IconBusy)

	return viper.WriteConfig()
}

// HomeDir returns the gitlanes home directory: $GITLANES_HOME, or
// ~/.gitlanes.
func HomeDir() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".gitlanes"), nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "gitlanes.db")
}

// GetLogPath returns the path to the rotating log file.
func GetLogPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "logs", "gitlanes.log")
}

// setDefaults sets default values for viper.
func setDefaults() {
	d := DefaultConfig()
	viper.SetDefault("git.binary", d.Git.Binary)
	viper.SetDefault("git.max_count", d.Git.MaxCount)
	viper.SetDefault("graph.node_radius", d.Graph.NodeRadius)
	viper.SetDefault("graph.column_spacing", d.Graph.ColumnSpacing)
	viper.SetDefault("graph.row_spacing", d.Graph.RowSpacing)
	viper.SetDefault("graph.offset_x", d.Graph.OffsetX)
	viper.SetDefault("graph.offset_y", d.Graph.OffsetY)
	viper.SetDefault("graph.click_tolerance", d.Graph.ClickTolerance)
	viper.SetDefault("graph.min_width", d.Graph.MinWidth)
	viper.SetDefault("graph.min_height", d.Graph.MinHeight)
	viper.SetDefault("graph.palette", d.Graph.Palette)
	viper.SetDefault("notifications.enabled", d.Notifications.Enabled)
	viper.SetDefault("notifications.sound", d.Notifications.Sound)
	viper.SetDefault("mcp.enabled", d.MCP.Enabled)
	viper.SetDefault("mcp.allow_write", d.MCP.AllowWrite)
	viper.SetDefault("storage.data_dir", defaultDataDir)
	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("watch.enabled", d.Watch.Enabled)
	viper.SetDefault("watch.debounce", d.Watch.Debounce.String())
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.file", d.Log.File)

	// Theme defaults
	viper.SetDefault("theme.color_title", d.Theme.ColorTitle)
	viper.SetDefault("theme.color_selected", d.Theme.ColorSelected)
	viper.SetDefault("theme.color_hash", d.Theme.ColorHash)
	viper.SetDefault("theme.color_author", d.Theme.ColorAuthor)
	viper.SetDefault("theme.color_staged", d.Theme.ColorStaged)
	viper.SetDefault("theme.color_unstaged", d.Theme.ColorUnstaged)
	viper.SetDefault("theme.color_untracked", d.Theme.ColorUntracked)
	viper.SetDefault("theme.color_error", d.Theme.ColorError)
	viper.SetDefault("theme.color_help", d.Theme.ColorHelp)
	viper.SetDefault("theme.icon_branch", d.Theme.IconBranch)
	viper.SetDefault("theme.icon_busy", d.Theme.IconBusy)
}

// Geometry converts the [graph] section to the layout engine's geometry.
// The palette length decides how many color indices the engine hands out.
func (c *Config) Geometry() domain.Geometry {
	g := c.Graph
	paletteSize := len(g.Palette)
	if paletteSize == 0 {
		paletteSize = len(DefaultPalette())
	}
	return domain.Geometry{
		NodeRadius:     g.NodeRadius,
		ColumnSpacing:  g.ColumnSpacing,
		RowSpacing:     g.RowSpacing,
		OffsetX:        g.OffsetX,
		OffsetY:        g.OffsetY,
		ClickTolerance: g.ClickTolerance,
		PaletteSize:    paletteSize,
		MinWidth:       g.MinWidth,
		MinHeight:      g.MinHeight,
	}
}

// PaletteColor returns the color for a color index, cycling the palette.
func (c *Config) PaletteColor(index int) string {
	palette := c.Graph.Palette
	if len(palette) == 0 {
		palette = DefaultPalette()
	}
	if index < 0 {
		index = -index
	}
	return palette[index%len(palette)]
}
