package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/tgienger/tnm/internal/config"
	"github.com/tgienger/tnm/internal/db"
	"github.com/tgienger/tnm/internal/notify"
	"github.com/tgienger/tnm/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", config.DefaultPath(), "configuration file")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("tnm %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// a missing .env is normal; the config file and environment still apply
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := makeLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, log); err != nil {
		log.Error("tnm failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()

	// Initialize database
	database, err := db.Open(ctx, log, cfg.Database)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}

	opts := ui.Options{NotifyInterval: cfg.Notify.Interval}
	if cfg.Notify.Discord.Enabled() {
		discord, err := notify.NewDiscordNotifier(cfg.Notify.Discord.WebhookID, cfg.Notify.Discord.WebhookToken)
		if err != nil {
			return err
		}
		opts.Notifier = discord
		log.Info("discord reminders enabled")
	}

	// Create and run the application
	app := ui.NewApp(database, log, opts)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

// makeLogger writes to a file because the terminal belongs to the UI
func makeLogger(levelStr, path string) (*slog.Logger, func(), error) {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	if path == "" {
		dbPath, err := db.DefaultPath()
		if err != nil {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
		}
		path = filepath.Join(filepath.Dir(dbPath), "tnm.log")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	handler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler), func() { f.Close() }, nil
}
