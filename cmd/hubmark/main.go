// cmd/hubmark/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stlog "log" // Standard log for fatal errors before the logger is ready
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bethropolis/hubmark/internal/app"
	"github.com/bethropolis/hubmark/internal/assets"
	"github.com/bethropolis/hubmark/internal/config"
	"github.com/bethropolis/hubmark/internal/export"
	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/theme"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "export" {
		if err := runExport(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "hubmark export: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// --- Argument & Flag Parsing ---
	flags := config.NewFlags(config.AppName)
	flags.FlagSet().Usage = func() {
		out := flags.FlagSet().Output()
		fmt.Fprintf(out, "Usage: %s [flags] [file.md]\n       %s export [-o out.html] [-theme name] file.md\n\nFlags:\n", config.AppName, config.AppName)
		flags.FlagSet().PrintDefaults()
	}
	args, err := flags.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if *flags.Version {
		fmt.Printf("%s %s\n", config.AppName, version)
		return
	}
	filePath := ""
	if len(args) > 0 {
		filePath = args[0]
	}

	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Fatalf("Error loading configuration: %v", err)
	}

	// --- Logger Initialization ---
	// The terminal UI owns the screen, so it logs to a file unless told otherwise.
	logPath := cfg.Logger.LogFilePath
	if logPath == "" && !*flags.Headless {
		logPath = defaultLogPath()
	}
	output, closeLog, err := logger.OpenOutput(logPath)
	if err != nil {
		stlog.Fatalf("%v", err)
	}
	defer closeLog()
	logger.SetFilterDebug(*flags.DebugLog)
	logger.Init(cfg.Logger, output)
	cfg.LogWarnings()

	logger.Infof("Starting %s %s", config.AppName, version)
	logger.Debugf("Log level: %s, log file: %s", cfg.Logger.LogLevel, logPath)
	if filePath != "" {
		logger.Debugf("File path specified: %s", filePath)
	} else {
		logger.Debugf("No file specified, previewing an empty document.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flags.Headless {
		err = app.RunHeadless(ctx, cfg, filePath)
	} else {
		err = app.RunTUI(ctx, cfg, filePath)
	}
	if err != nil {
		logger.Errorf("Application exited with error: %v", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		closeLog()
		os.Exit(1)
	}
	logger.Infof("%s finished.", config.AppName)
}

// defaultLogPath puts the log next to the config file, falling back to the
// working directory.
func defaultLogPath() string {
	if dir := filepath.Dir(config.DefaultPath()); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			return filepath.Join(dir, config.DefaultLogFileName)
		}
	}
	return config.DefaultLogFileName
}

// runExport implements `hubmark export`.
func runExport(args []string) error {
	fs := flag.NewFlagSet(config.AppName+" export", flag.ContinueOnError)
	out := fs.String("o", "", "Output file (default: input with .html)")
	themeName := fs.String("theme", "", "Theme (dark, light); default from config")
	configPath := fs.String("config", "", "Path to TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one input file")
	}
	in := fs.Arg(0)

	cfg, err := config.LoadConfig(*configPath, nil)
	if err != nil {
		return err
	}
	logger.Init(cfg.Logger, os.Stderr)
	cfg.LogWarnings()

	name := cfg.Preview.Theme
	if *themeName != "" {
		name = *themeName
	}
	id, err := theme.ParseID(name)
	if err != nil {
		return err
	}

	themes := theme.NewRegistry(assets.WithOverrides(cfg.Assets.Dir))
	if err := themes.LoadThemesFromDir(cfg.Assets.ThemesDir); err != nil {
		logger.Warnf("Failed to load themes from '%s': %v", cfg.Assets.ThemesDir, err)
	}

	source, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	title := cfg.Export.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
	}
	exporter := export.New(themes, export.Options{
		HardWraps: cfg.Export.HardWraps,
		Unsafe:    cfg.Export.Unsafe,
		Title:     title,
	})

	target := *out
	if target == "" {
		target = strings.TrimSuffix(in, filepath.Ext(in)) + ".html"
	}
	return exporter.WriteFile(target, source, id)
}
