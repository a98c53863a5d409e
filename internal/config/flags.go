// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"
)

// Flags holds values parsed from command-line flags.
// Only flags that were actually set override the config file.
type Flags struct {
	set *flag.FlagSet

	ConfigFilePath *string
	Version        *bool
	Headless       *bool
	LogLevel       *string
	LogFilePath    *string
	Theme          *string
	Addr           *string
	ReadySignal    *string
	PollInterval   *time.Duration
	FetchDelay     *time.Duration
	Redirection    *bool
	NoBrowser      *bool
	AssetsDir      *string
	CustomCSS      *string
	NoWatch        *bool
	// Logger filters
	EnableTags   *string
	DisableTags  *string
	EnablePkgs   *string
	DisablePkgs  *string
	EnableFiles  *string
	DisableFiles *string
	DebugLog     *bool
}

// NewFlags defines the flags on a new flag set named name.
func NewFlags(name string) *Flags {
	f := &Flags{set: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := f.set
	f.ConfigFilePath = fs.String("config", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	f.Version = fs.Bool("version", false, "Show version information and exit")
	f.Headless = fs.Bool("headless", false, "Serve the preview without the terminal UI")
	f.LogLevel = fs.String("loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	f.LogFilePath = fs.String("logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	f.Theme = fs.String("theme", "", "Preview theme (dark, light) - Overrides config file")
	f.Addr = fs.String("addr", "", "Address the preview is served on - Overrides config file")
	f.ReadySignal = fs.String("ready", "", "Readiness detection: poll or push - Overrides config file")
	f.PollInterval = fs.Duration("poll", 0, "Readiness poll interval - Overrides config file")
	f.FetchDelay = fs.Duration("fetch-delay", 0, "Delay before an async text fetch falls back to the cached text")
	f.Redirection = fs.Bool("redirect", false, "Let links navigate inside the preview")
	f.NoBrowser = fs.Bool("no-browser", false, "Do not open the preview in a browser")
	f.AssetsDir = fs.String("assets", "", "Directory layered over the bundled assets")
	f.CustomCSS = fs.String("css", "", "Stylesheet replacing the document theme stylesheet")
	f.NoWatch = fs.Bool("no-watch", false, "Do not reload the source file when it changes")
	f.EnableTags = fs.String("log-tags", "", "Comma-separated list of tags to enable - Overrides config file")
	f.DisableTags = fs.String("log-disable-tags", "", "Comma-separated list of tags to disable - Overrides config file")
	f.EnablePkgs = fs.String("log-packages", "", "Comma-separated list of packages to enable - Overrides config file")
	f.DisablePkgs = fs.String("log-disable-packages", "", "Comma-separated list of packages to disable - Overrides config file")
	f.EnableFiles = fs.String("log-files", "", "Comma-separated list of files to enable - Overrides config file")
	f.DisableFiles = fs.String("log-disable-files", "", "Comma-separated list of files to disable - Overrides config file")
	f.DebugLog = fs.Bool("debug-log", false, "Enable verbose debug logging for the logger filtering system")
	return f
}

// FlagSet exposes the underlying set, e.g. for usage output.
func (f *Flags) FlagSet() *flag.FlagSet {
	return f.set
}

// Parse parses args and returns the remaining non-flag arguments.
func (f *Flags) Parse(args []string) ([]string, error) {
	if err := f.set.Parse(args); err != nil {
		return nil, err
	}
	return f.set.Args(), nil
}

// ApplyOverrides updates cfg with the flags that were set.
func (f *Flags) ApplyOverrides(cfg *Config) {
	// Visit only processes flags that were actually set
	f.set.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "loglevel":
			if *f.LogLevel != "" {
				cfg.Logger.LogLevel = *f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = *f.LogFilePath // Empty string is valid
		case "theme":
			cfg.Preview.Theme = *f.Theme
		case "addr":
			cfg.Preview.Addr = *f.Addr
		case "ready":
			cfg.Preview.ReadySignal = *f.ReadySignal
		case "poll":
			cfg.Preview.PollInterval = *f.PollInterval
		case "fetch-delay":
			cfg.Preview.FetchDelay = *f.FetchDelay
		case "redirect":
			cfg.Preview.NativeRedirection = *f.Redirection
		case "no-browser":
			cfg.Preview.OpenBrowser = !*f.NoBrowser
		case "assets":
			cfg.Assets.Dir = *f.AssetsDir
		case "css":
			cfg.Assets.CustomCSS = *f.CustomCSS
		case "no-watch":
			cfg.Watch.Enabled = !*f.NoWatch
		case "log-tags":
			cfg.Logger.EnabledTags = splitCommaList(*f.EnableTags)
		case "log-disable-tags":
			cfg.Logger.DisabledTags = splitCommaList(*f.DisableTags)
		case "log-packages":
			cfg.Logger.EnabledPackages = splitCommaList(*f.EnablePkgs)
		case "log-disable-packages":
			cfg.Logger.DisabledPackages = splitCommaList(*f.DisablePkgs)
		case "log-files":
			cfg.Logger.EnabledFiles = splitCommaList(*f.EnableFiles)
		case "log-disable-files":
			cfg.Logger.DisabledFiles = splitCommaList(*f.DisableFiles)
		}
	})
}

// splitCommaList splits a comma-separated list, dropping empty items.
func splitCommaList(list string) []string {
	if list == "" {
		return nil
	}
	items := strings.Split(list, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
