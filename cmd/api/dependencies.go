package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	importhandler "github.com/FACorreiaa/bizpulse/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/bizpulse/internal/domain/import/service"
	"github.com/FACorreiaa/bizpulse/internal/domain/insights"
	insightshandler "github.com/FACorreiaa/bizpulse/internal/domain/insights/handler"
	"github.com/FACorreiaa/bizpulse/internal/domain/mockdata"
	"github.com/FACorreiaa/bizpulse/internal/domain/profile"
	profilehandler "github.com/FACorreiaa/bizpulse/internal/domain/profile/handler"
	recordshandler "github.com/FACorreiaa/bizpulse/internal/domain/records/handler"
	"github.com/FACorreiaa/bizpulse/internal/domain/records/repository"
	recordsservice "github.com/FACorreiaa/bizpulse/internal/domain/records/service"

	"github.com/FACorreiaa/bizpulse/pkg/config"
	"github.com/FACorreiaa/bizpulse/pkg/cron"
	"github.com/FACorreiaa/bizpulse/pkg/db"
	"github.com/FACorreiaa/bizpulse/pkg/interceptors"
	"github.com/FACorreiaa/bizpulse/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB // nil with the memory driver
	Logger *slog.Logger

	// Repositories
	RecordStore repository.RecordStore
	FileStorage storage.Storage

	// Services
	Authenticator   *interceptors.Authenticator
	InsightsService *insights.Service
	ImportService   *importservice.ImportService
	ProfileService  *profile.Service
	EntryService    *recordsservice.EntryService
	Seeder          *mockdata.Seeder
	Scheduler       *cron.Scheduler

	// Handlers
	ImportHandler   *importhandler.ImportHandler
	InsightsHandler *insightshandler.InsightsHandler
	ProfileHandler  *profilehandler.ProfileHandler
	RecordsHandler  *recordshandler.RecordsHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	deps.initHandlers()

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        int32(d.Config.Database.MaxConns),
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories selects the record store and the upload archive
func (d *Dependencies) initRepositories() error {
	switch d.Config.Database.Driver {
	case "postgres":
		if err := d.initDatabase(); err != nil {
			return fmt.Errorf("failed to init database: %w", err)
		}
		d.RecordStore = repository.NewPostgresRecordStore(d.DB.Pool)
	default:
		d.RecordStore = repository.NewMemoryRecordStore()
	}

	fileStorage, err := storage.New(&storage.Config{
		Type:      storage.StorageType(d.Config.Storage.Type),
		LocalPath: d.Config.Storage.LocalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.Logger.Info("repositories initialized", "driver", d.Config.Database.Driver, "storage", d.Config.Storage.Type)
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Authenticator = interceptors.NewAuthenticator(d.Config.Auth.JWTSecret, d.Logger)

	// The insights snapshot cache is invalidated by every writer below
	snapshots := cache.New(d.Config.Cache.TTL, insights.CacheCleanupInterval)
	d.InsightsService = insights.NewService(d.RecordStore, snapshots, d.Logger)

	d.ImportService = importservice.NewImportService(d.RecordStore, d.Logger).
		WithRefresher(d.InsightsService).
		WithChunkSize(d.Config.Import.ChunkSize).
		WithPreviewSize(d.Config.Import.PreviewSize)

	d.ProfileService = profile.NewService(d.RecordStore, d.Logger).WithRefresher(d.InsightsService)

	d.EntryService = recordsservice.NewEntryService(d.RecordStore, d.Logger).
		WithUploads(d.FileStorage).
		WithRefresher(d.InsightsService)

	d.Seeder = mockdata.NewSeeder(d.RecordStore, nil, d.Logger).
		WithRefresher(d.InsightsService).
		WithChunkSize(d.Config.Import.ChunkSize)

	d.Scheduler = cron.NewScheduler(d.ImportService, d.Config.Scheduler.PurgeSpec, d.Config.Import.BatchTTL, d.Logger)
	if spec := d.Config.Scheduler.DemoReseedSpec; spec != "" {
		ownerID, err := uuid.Parse(d.Config.Scheduler.DemoOwnerID)
		if err != nil {
			return fmt.Errorf("invalid demo owner id: %w", err)
		}
		d.Scheduler.WithDemoReseed(d.Seeder, cron.DemoConfig{Spec: spec, OwnerID: ownerID})
	}

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.FileStorage, d.Logger).
		WithMaxUploadBytes(d.Config.Import.MaxUploadBytes)
	d.InsightsHandler = insightshandler.NewInsightsHandler(d.InsightsService, d.Logger)
	d.ProfileHandler = profilehandler.NewProfileHandler(d.ProfileService, d.Logger)
	d.RecordsHandler = recordshandler.NewRecordsHandler(d.EntryService, d.Seeder, d.Logger)

	d.Logger.Info("handlers initialized")
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
