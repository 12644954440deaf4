package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/backofhouse-backend/internal/data/db"
	"github.com/yungbote/backofhouse-backend/internal/data/repos"
	apphttp "github.com/yungbote/backofhouse-backend/internal/http"
	"github.com/yungbote/backofhouse-backend/internal/jobs/worker"
	"github.com/yungbote/backofhouse-backend/internal/observability"
	"github.com/yungbote/backofhouse-backend/internal/pkg/logger"
)

// postTurnTimeout bounds one background post-turn update.
const postTurnTimeout = 30 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Server   *apphttp.Server

	tasks         *worker.Dispatcher
	shutdownTrace func(context.Context) error
	cancel        context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	LoadDotEnv(log)
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)
	if err := cfg.Validate(); err != nil {
		log.Sync()
		return nil, err
	}

	shutdownTrace := observability.InitOTel(ctx, log, cfg.Otel)

	theDB, err := openDB(log, cfg)
	if err != nil {
		_ = shutdownTrace(ctx)
		log.Sync()
		return nil, err
	}
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = shutdownTrace(ctx)
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	reposet := repos.NewSet(theDB, log)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		_ = shutdownTrace(ctx)
		log.Sync()
		return nil, err
	}

	tasks := worker.NewDispatcher(log, worker.Config{
		Concurrency: cfg.WorkerConcurrency,
		QueueSize:   cfg.WorkerQueueSize,
		TaskTimeout: postTurnTimeout,
	})

	serviceset := wireServices(log, cfg, reposet, clientset, tasks)
	server := wireServer(log, cfg, reposet, serviceset)

	return &App{
		Log:           log,
		DB:            theDB,
		Cfg:           cfg,
		Repos:         reposet,
		Clients:       clientset,
		Services:      serviceset,
		Server:        server,
		tasks:         tasks,
		shutdownTrace: shutdownTrace,
	}, nil
}

func openDB(log *logger.Logger, cfg Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DBDriverSQLite:
		theDB, err := db.OpenSQLite(log, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
		return theDB, nil
	default:
		theDB, err := db.OpenPostgres(log, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		return theDB, nil
	}
}

// Start launches background workers. Post-turn tasks run on a context that
// is only cancelled by Close, never by the request that queued them.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.tasks.Start(ctx)
}

// Run serves HTTP and blocks until Shutdown.
func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

// Close drains queued post-turn work before releasing clients, so it must
// run after Shutdown has stopped new turns from arriving.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.tasks != nil {
		a.tasks.Close()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close(a.Log)
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.shutdownTrace != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdownTrace(ctx); err != nil {
			a.Log.Warn("Tracer shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
