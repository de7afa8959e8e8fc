package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/joho/godotenv"

	"fixtures/internal/cache"
	"fixtures/internal/config"
	"fixtures/internal/generate"
	"fixtures/internal/logging"
	"fixtures/internal/reader"
	"fixtures/internal/schema"
	"fixtures/internal/service"
	"fixtures/internal/source"
)

// App owns the DataProvider and everything it needs for one process.
type App struct {
	cfg      *config.Config
	provider *service.DataProvider
	store    *lazyStore
	mux      *reader.Mux

	watcher   *service.Watcher
	scheduler *service.Scheduler
}

// New creates an App. Nothing is opened until Startup.
func New() *App {
	return &App{}
}

// Startup loads .env and the environment configuration, then wires readers,
// cache, validator, generators and the snapshot store into a DataProvider.
func (a *App) Startup(ctx context.Context) error {
	if a.provider != nil {
		return nil
	}

	// Overload lets a local .env win over the inherited environment
	if err := godotenv.Overload(); err == nil {
		slog.Debug("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	a.cfg = cfg

	rules, err := loadRules(cfg.Sources.RulesPath)
	if err != nil {
		return err
	}
	validator, err := schema.NewValidator(rules)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	registry := generate.Default()

	a.store = newLazyStore(cfg.Store.Driver, cfg.Store.DSN, cfg.Store.Database)

	httpRead := reader.HTTP(&http.Client{Timeout: cfg.Sources.HTTPTimeout})
	a.mux = reader.NewMux(reader.FS(osfs.New(cfg.Sources.DataDir))).
		Handle("http://", httpRead).
		Handle("https://", httpRead).
		Handle(reader.SnapshotScheme, reader.Snapshots(a.store))

	weigh := cache.WeighEntries
	if cfg.Cache.Weight == "records" {
		weigh = cache.WeighRecords
	}

	a.provider = service.NewDataProvider(
		source.NewLoader(a.mux.Read, registry, cfg.Sources.LoadTimeout),
		cache.New(cfg.Cache.MaxSize, cache.WithWeigher(weigh)),
		validator,
		registry,
		service.Options{TTL: cfg.Cache.TTL, Store: a.store},
	)

	if cfg.Sources.Watch {
		w, err := service.NewWatcher(cfg.Sources.DataDir, a.mux.IsLocal, a.provider.Invalidate)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		a.watcher = w
		a.provider.Watch(w)
	}
	if cfg.Cache.PruneSchedule != "" {
		s, err := service.StartPruneSchedule(cfg.Cache.PruneSchedule, a.provider.Prune)
		if err != nil {
			return err
		}
		a.scheduler = s
	}
	return nil
}

// Shutdown stops background work, waits for detached loads and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	a.scheduler = nil
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}

	var errs []error
	if a.provider != nil {
		if err := a.provider.WaitLoads(ctx); err != nil {
			errs = append(errs, fmt.Errorf("wait for loads: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Provider returns the wired DataProvider; nil before Startup.
func (a *App) Provider() *service.DataProvider {
	return a.provider
}

// loadRules returns the built-in rules with the rules file, if any, on top.
func loadRules(path string) (map[string]schema.Rule, error) {
	rules := schema.Builtin()
	if path == "" {
		return rules, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()

	extra, err := schema.LoadRules(f)
	if err != nil {
		return nil, fmt.Errorf("load rules %s: %w", path, err)
	}
	maps.Copy(rules, extra)
	return rules, nil
}
