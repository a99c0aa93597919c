package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"go.uber.org/zap"

	"pipedrive-sync/internal/clients"
	"pipedrive-sync/internal/config"
	"pipedrive-sync/internal/logging"
	"pipedrive-sync/internal/pipedrive"
	"pipedrive-sync/internal/repository"
	"pipedrive-sync/internal/service"
	"pipedrive-sync/internal/txtfile"
	"pipedrive-sync/pkg/database/sqlite"
)

// app wires config, storage and services once so every subcommand starts
// from the same stack.
type app struct {
	cfg config.AppConfig
	log *zap.SugaredLogger

	db      *sql.DB
	redis   *clients.RedisClient
	s3      *clients.S3Client
	storage *clients.StorageClient
	crm     *pipedrive.Client

	syncSvc   *service.SyncService
	entitySvc *service.EntityService
	exportSvc *service.ExportService
	fieldsSvc *service.FieldsService
	backupSvc *service.BackupService
}

func newApp(ctx context.Context, logName string, ws *clients.WebSocketClient) *app {
	cfg := config.Load()

	logger, err := logging.New(cfg.Folders.Logs, logName)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	db := mustInitSQLite(ctx, cfg.SQLite)

	var redisClient *clients.RedisClient
	if cfg.Redis.Enabled {
		redisClient = mustInitRedis(cfg.Redis)
	}

	var s3Client *clients.S3Client
	if cfg.S3.Enabled {
		s3Client = mustInitS3(ctx, cfg.S3)
	}

	storageClient, err := clients.NewLocalStorage(cfg.Folders.Export, "/files", cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	crm := mustInitPipedrive(cfg.Pipedrive, logger)

	entityRepo := repository.NewEntityRepository(db)
	runRepo := repository.NewRunRepository(db)
	parser := txtfile.NewParser(logger)

	return &app{
		cfg:       cfg,
		log:       logger,
		db:        db,
		redis:     redisClient,
		s3:        s3Client,
		storage:   storageClient,
		crm:       crm,
		syncSvc:   service.NewSyncService(crm, entityRepo, runRepo, parser, redisClient, ws, cfg.Pipelines, cfg.Folders, logger),
		entitySvc: service.NewEntityService(entityRepo),
		exportSvc: service.NewExportService(entityRepo, storageClient, redisClient, s3Client, ws, logger),
		fieldsSvc: service.NewFieldsService(crm),
		backupSvc: service.NewBackupService(cfg.SQLite.Path, cfg.Folders.Backup, cfg.BackupRetentionDays, s3Client, logger),
	}
}

func (a *app) close() {
	sqlite.Close(a.db)
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.log.Sync()
}

func mustInitSQLite(ctx context.Context, cfg config.SQLiteConfig) *sql.DB {
	db, err := sqlite.NewSQLiteConnection(cfg.Path)
	if err != nil {
		log.Fatalf("sqlite init error: %v", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("sqlite migrate error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}

func mustInitS3(ctx context.Context, cfg config.S3Config) *clients.S3Client {
	client, err := clients.NewS3Client(ctx, clients.S3Config{
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UseSSL:          cfg.UseSSL,
		Region:          cfg.Region,
		Prefix:          cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("s3 init error: %v", err)
	}
	return client
}

func mustInitPipedrive(cfg config.PipedriveConfig, logger *zap.SugaredLogger) *pipedrive.Client {
	if cfg.APIToken == "" {
		log.Println("PIPEDRIVE_API_TOKEN is empty, CRM calls will be rejected")
	}

	fields, err := pipedrive.LoadFieldMap(cfg.FieldMapPath)
	if err != nil {
		log.Fatalf("field map error: %v", err)
	}

	return pipedrive.New(pipedrive.Options{
		Token:   cfg.APIToken,
		Domain:  cfg.Domain,
		OwnerID: cfg.OwnerID,
		Profile: cfg.RateProfile,
		Fields:  fields,
		Logger:  logger,
	})
}
