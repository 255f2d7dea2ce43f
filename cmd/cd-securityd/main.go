package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/haukened/cd-security/internal/security/common/clock"
	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/config"
	"github.com/haukened/cd-security/internal/security/gateways/host"
	"github.com/haukened/cd-security/internal/security/gateways/releases"
	"github.com/haukened/cd-security/internal/security/gateways/sheet"
	"github.com/haukened/cd-security/internal/security/gateways/transport"
	"github.com/haukened/cd-security/internal/security/metrics"
	"github.com/haukened/cd-security/internal/security/repos/journal"
	settingsdb "github.com/haukened/cd-security/internal/security/repos/settings/bolt"
	"github.com/haukened/cd-security/internal/security/repos/updates"
	"github.com/haukened/cd-security/internal/security/services/guard"
	"github.com/haukened/cd-security/internal/security/services/updater"
)

const (
	version = "1.0.0"
	appName = "cd-securityd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds all the components of the daemon.
type Application struct {
	config    *config.AppConfig
	transport transport.ServerTransport
	scheduler *updater.Scheduler
	checker   *updater.Checker
	settings  *settingsdb.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":       appName,
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.Log.Level,
		"port":      cfg.HTTP.Port,
		"plugin":    cfg.Plugin.Slug,
		"installed": cfg.Plugin.Version,
		"schedule":  cfg.Update.Schedule,
	}, "Starting CD Security daemon")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "CD Security daemon stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := &clock.RealClock{}
	logger := log.GetLogger()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repos, err := buildRepositories(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	m.WatchJournal(repos.journal)

	gw, err := buildGateways(cfg, logger)
	if err != nil {
		_ = repos.settings.Close()
		return nil, fmt.Errorf("failed to build gateways: %w", err)
	}

	g, err := guard.New(guard.Options{
		Source:   gw.blocklist,
		Users:    gw.users,
		Journal:  repos.journal,
		Recorder: m,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		_ = repos.settings.Close()
		return nil, fmt.Errorf("failed to build registration guard: %w", err)
	}

	checker, err := updater.NewChecker(updater.Options{
		Source:    gw.releases,
		Registry:  repos.updates,
		Recorder:  m,
		Slug:      cfg.Plugin.Slug,
		Installed: cfg.Plugin.Version,
		Clock:     clk,
		Logger:    logger,
	})
	if err != nil {
		_ = repos.settings.Close()
		return nil, fmt.Errorf("failed to build update checker: %w", err)
	}

	scheduler, err := updater.NewScheduler(cfg.Update.Schedule, checker, logger)
	if err != nil {
		_ = repos.settings.Close()
		return nil, fmt.Errorf("failed to build update scheduler: %w", err)
	}

	api, err := transport.NewAPI(transport.APIOptions{
		Registrations: g,
		Settings:      repos.settings,
		Updates:       checker,
		Registry:      repos.updates,
		Journal:       repos.journal,
		Logger:        logger,
	})
	if err != nil {
		_ = repos.settings.Close()
		return nil, fmt.Errorf("failed to build API: %w", err)
	}

	router := transport.NewRouter(api, m.Middleware, m.Handler())
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)

	return &Application{
		config:    cfg,
		transport: transport.NewHTTPTransport(addr, router, logger),
		scheduler: scheduler,
		checker:   checker,
		settings:  repos.settings,
	}, nil
}

// repositories holds all repository implementations
type repositories struct {
	settings *settingsdb.Store
	journal  *journal.Journal
	updates  *updates.Registry
}

// gateways holds all gateway implementations
type gateways struct {
	blocklist *sheet.Fetcher
	users     *host.Directory
	releases  *releases.Client
}

// buildRepositories opens the settings database and creates the in-memory stores.
func buildRepositories(cfg *config.AppConfig) (*repositories, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Settings.DB), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	settings, err := settingsdb.New(cfg.Settings.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	j, err := journal.New(cfg.Journal.Size)
	if err != nil {
		_ = settings.Close()
		return nil, fmt.Errorf("failed to create decision journal: %w", err)
	}

	// the installed version is the only entry the host would have checked
	reg := updates.New(map[string]string{cfg.Plugin.Slug: cfg.Plugin.Version})

	log.Info(map[string]any{
		"settings_db":  cfg.Settings.DB,
		"journal_size": cfg.Journal.Size,
	}, "Repositories initialized")

	return &repositories{
		settings: settings,
		journal:  j,
		updates:  reg,
	}, nil
}

// buildGateways creates the outbound HTTP clients.
func buildGateways(cfg *config.AppConfig, logger log.Logger) (*gateways, error) {
	fetcher, err := sheet.NewFetcher(sheet.Options{
		URL:     cfg.BlockList.URL,
		Timeout: cfg.BlockList.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create block list fetcher: %w", err)
	}

	users, err := host.NewDirectory(host.Options{
		BaseURL: cfg.Host.URL,
		Token:   cfg.Host.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create host directory client: %w", err)
	}

	rel, err := releases.NewClient(releases.Options{URL: cfg.Update.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to create release client: %w", err)
	}

	log.Info(map[string]any{
		"blocklist_url": cfg.BlockList.URL,
		"host_url":      cfg.Host.URL,
		"update_url":    cfg.Update.URL,
	}, "Gateways configured")

	return &gateways{
		blocklist: fetcher,
		users:     users,
		releases:  rel,
	}, nil
}

// Run starts the HTTP server and the update scheduler and blocks until ctx
// is cancelled.
func (app *Application) Run(ctx context.Context) error {
	defer func() {
		if err := app.settings.Close(); err != nil {
			log.Warn(map[string]any{"error": err}, "Error closing settings store")
		}
	}()

	if err := app.transport.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP transport: %w", err)
	}

	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "HTTP",
	}, "CD Security daemon started")

	app.scheduler.Start(ctx)

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	done := make(chan error, 1)
	go func() {
		done <- app.transport.Stop()
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
