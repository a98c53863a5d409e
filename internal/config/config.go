// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/hubmark/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger  logger.Config `toml:"logger"` // Embed logger config under [logger] table
	Preview PreviewConfig `toml:"preview"`
	Assets  AssetsConfig  `toml:"assets"`
	Watch   WatchConfig   `toml:"watch"`
	Export  ExportConfig  `toml:"export"`

	warnings []string
}

// PreviewConfig holds the renderer and sync settings.
type PreviewConfig struct {
	Theme             string        `toml:"theme"`
	Addr              string        `toml:"addr"`
	AllowOrigins      []string      `toml:"allow_origins"`
	PollInterval      time.Duration `toml:"poll_interval"`
	FetchDelay        time.Duration `toml:"fetch_delay"`
	ReadySignal       string        `toml:"ready_signal"` // "poll" or "push"
	NativeRedirection bool          `toml:"native_redirection"`
	OpenBrowser       bool          `toml:"open_browser"`
}

// AssetsConfig points at assets that replace or extend the bundled ones.
type AssetsConfig struct {
	Dir          string `toml:"dir"`        // Override directory layered over the bundle
	ThemesDir    string `toml:"themes_dir"` // TOML theme overrides
	CustomCSS    string `toml:"custom_css"` // File replacing the document stylesheet
	MarkedURL    string `toml:"marked_url"`
	HighlightURL string `toml:"highlight_url"`
}

// WatchConfig controls source file polling.
type WatchConfig struct {
	Enabled  bool          `toml:"enabled"`
	Interval time.Duration `toml:"interval"`
}

// ExportConfig controls HTML export.
type ExportConfig struct {
	HardWraps bool   `toml:"hard_wraps"`
	Unsafe    bool   `toml:"unsafe"` // Pass raw HTML through
	Title     string `toml:"title"`
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.Config{
			LogLevel:    "info",
			LogFilePath: "", // Empty means the host picks its default
		},
		Preview: PreviewConfig{
			Theme:        DefaultTheme,
			Addr:         DefaultAddr,
			PollInterval: DefaultPollInterval,
			FetchDelay:   DefaultFetchDelay,
			ReadySignal:  DefaultReadySignal,
			OpenBrowser:  true,
		},
		Watch: WatchConfig{
			Enabled:  true,
			Interval: DefaultWatchInterval,
		},
	}
}

// DefaultPath returns the config file location under the user config dir,
// or "" if it cannot be determined.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, ConfigDirName, DefaultConfigFileName)
}

// DefaultThemesDir returns the theme override directory next to the config file.
func DefaultThemesDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, ConfigDirName, ThemesDirName)
}

// loadFromFile decodes filePath on top of cfg. A missing file is not an error.
func loadFromFile(filePath string, cfg *Config) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil // File not found is not an error here
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		// Logger may not be initialized yet; this is replayed by the caller.
		cfg.warnings = append(cfg.warnings, fmt.Sprintf("Config file '%s': Unrecognized keys: %v", filePath, undecoded))
	}
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Preview.Theme == "" {
		c.Preview.Theme = defaults.Preview.Theme
	}
	if c.Preview.Addr == "" {
		c.Preview.Addr = defaults.Preview.Addr
	}
	if c.Preview.PollInterval <= 0 {
		c.warnf("poll_interval %v is not positive, using %v", c.Preview.PollInterval, defaults.Preview.PollInterval)
		c.Preview.PollInterval = defaults.Preview.PollInterval
	}
	if c.Preview.FetchDelay <= 0 {
		c.warnf("fetch_delay %v is not positive, using %v", c.Preview.FetchDelay, defaults.Preview.FetchDelay)
		c.Preview.FetchDelay = defaults.Preview.FetchDelay
	}
	if c.Preview.ReadySignal != "poll" && c.Preview.ReadySignal != "push" {
		c.warnf("ready_signal %q is not poll or push, using %q", c.Preview.ReadySignal, defaults.Preview.ReadySignal)
		c.Preview.ReadySignal = defaults.Preview.ReadySignal
	}
	if c.Watch.Interval <= 0 {
		c.Watch.Interval = defaults.Watch.Interval
	}
	if c.Assets.ThemesDir == "" {
		c.Assets.ThemesDir = DefaultThemesDir()
	}
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// LogWarnings replays problems found while loading, once the logger is set up.
func (c *Config) LogWarnings() {
	for _, w := range c.warnings {
		logger.Warnf("%s", w)
	}
	c.warnings = nil
}

// LoadConfig layers defaults, the config file and set flags, then validates.
// An empty configFilePath means the default location.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	effectivePath := configFilePath
	if effectivePath == "" {
		effectivePath = DefaultPath()
	}

	var loadErr error
	if effectivePath != "" {
		loadErr = loadFromFile(effectivePath, cfg)
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, loadErr
}
