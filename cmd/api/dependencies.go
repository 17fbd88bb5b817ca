package main

import (
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/analytics"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/command"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/formula"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
	"github.com/FACorreiaa/smart-sheet-core/internal/server"
	"github.com/FACorreiaa/smart-sheet-core/pkg/config"
	"github.com/FACorreiaa/smart-sheet-core/pkg/cron"
	"github.com/FACorreiaa/smart-sheet-core/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Engines
	Resolver  *sheet.Resolver
	Evaluator *formula.Evaluator
	Analytics *analytics.Engine
	Pivots    *pivot.Engine

	// Host collaborators
	FileStorage storage.Storage
	Searcher    *server.CellSearcher
	Interpreter *command.Interpreter
	Registry    *server.Registry
	Scheduler   *cron.Scheduler
	Server      *server.Server
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initEngines(); err != nil {
		return nil, fmt.Errorf("failed to init engines: %w", err)
	}

	if err := deps.initInterpreter(); err != nil {
		return nil, fmt.Errorf("failed to init interpreter: %w", err)
	}

	if err := deps.initServer(); err != nil {
		return nil, fmt.Errorf("failed to init server: %w", err)
	}

	if err := deps.initScheduler(); err != nil {
		return nil, fmt.Errorf("failed to init scheduler: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initStorage initializes the upload store for session workbooks
func (d *Dependencies) initStorage() error {
	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.UploadDir)
	if err != nil {
		return err
	}
	d.FileStorage = fileStorage

	d.Logger.Info("storage initialized", slog.String("dir", d.Config.Storage.UploadDir))
	return nil
}

// initEngines initializes the computation engines with configured limits
func (d *Dependencies) initEngines() error {
	d.Resolver = sheet.NewResolver(sheet.Limits{MaxCells: d.Config.Engine.MaxCells})
	d.Evaluator = formula.NewEvaluator(d.Resolver, d.Logger)

	opts := analytics.DefaultOptions()
	if d.Config.Engine.OutlierThreshold > 0 {
		opts.OutlierThreshold = d.Config.Engine.OutlierThreshold
	}
	if d.Config.Engine.HistogramBuckets > 0 {
		opts.HistogramBuckets = d.Config.Engine.HistogramBuckets
	}
	d.Analytics = analytics.NewEngine(opts, d.Logger)
	d.Pivots = pivot.NewEngine(d.Config.Engine.PivotMaxGroups, d.Logger)

	d.Logger.Info("engines initialized",
		slog.Int("max_cells", d.Config.Engine.MaxCells),
		slog.Int("pivot_max_groups", d.Config.Engine.PivotMaxGroups))
	return nil
}

// initInterpreter initializes the search index and the command interpreter
func (d *Dependencies) initInterpreter() error {
	searcher, err := server.NewCellSearcher(d.Logger)
	if err != nil {
		return fmt.Errorf("failed to init search index: %w", err)
	}
	d.Searcher = searcher

	d.Interpreter = command.NewInterpreter(command.Dependencies{
		Resolver:  d.Resolver,
		Evaluator: d.Evaluator,
		Analytics: d.Analytics,
		Pivots:    d.Pivots,
		Searcher:  d.Searcher,
	}, d.Logger)

	d.Logger.Info("interpreter initialized")
	return nil
}

// initServer initializes the session registry and the HTTP server
func (d *Dependencies) initServer() error {
	d.Registry = server.NewRegistry(d.Config.Session.MaxSessions, d.Resolver, d.FileStorage, d.Logger)
	d.Server = server.New(server.Dependencies{
		Config:      d.Config,
		Registry:    d.Registry,
		Files:       d.FileStorage,
		Searcher:    d.Searcher,
		Resolver:    d.Resolver,
		Evaluator:   d.Evaluator,
		Interpreter: d.Interpreter,
		Analytics:   d.Analytics,
		Pivots:      d.Pivots,
	}, d.Logger)

	d.Logger.Info("server initialized")
	return nil
}

// initScheduler initializes the session sweeper
func (d *Dependencies) initScheduler() error {
	d.Scheduler = cron.NewScheduler(
		d.Registry,
		d.Config.Session.TTL,
		d.Config.Session.SweepSchedule,
		d.Logger,
	)

	d.Logger.Info("scheduler initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil {
		<-d.Scheduler.Stop().Done()
	}
	if d.Server != nil {
		if err := d.Server.Close(); err != nil {
			d.Logger.Warn("failed to close search index", slog.Any("error", err))
		}
	}
	d.Logger.Info("cleanup completed")
}
