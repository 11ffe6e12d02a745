package main

import (
	"context"
	"fmt"

	"geoeditor/internal/config"
	"geoeditor/internal/logger"
	"geoeditor/internal/postgres"
	"geoeditor/internal/redis"
	"geoeditor/internal/service/session"
	"geoeditor/internal/worker"

	"go.uber.org/zap"
)

// app holds what every subcommand builds from the configuration
type app struct {
	cfg         config.Config
	log         *zap.Logger
	sessions    *session.Manager
	persistence *worker.Persistence
	documents   *redis.DocumentPersister
	snapshots   *postgres.Documents
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	if err := a.initializeDatabaseAndCache(); err != nil {
		a.close()
		return nil, err
	}

	opts := []session.Option{
		session.WithLogger(log),
		session.WithTolerances(cfg.HitTolerance, cfg.SnapTolerance),
		session.WithHistoryLimit(cfg.HistoryLimit),
		session.WithDisposeHook(a.dropDocuments),
	}
	// Assigned separately so a disabled backend stays a nil interface
	var snapshots worker.SnapshotStore
	var documents worker.DocumentStore
	if a.documents != nil {
		opts = append(opts, session.WithPersister(a.documents))
		documents = a.documents
	}
	if a.snapshots != nil {
		opts = append(opts, session.WithSnapshots(a.snapshots))
		snapshots = a.snapshots
	}
	a.sessions = session.NewManager(opts...)
	a.persistence = worker.NewPersistence(a.sessions, snapshots, documents, log)
	return a, nil
}

func (a *app) initializeDatabaseAndCache() error {
	if a.cfg.PersistPostgres {
		db, err := postgres.Init(a.cfg.DBUrl, a.log)
		if err != nil {
			return err
		}
		a.snapshots = postgres.NewDocuments(db)
	}
	if a.cfg.PersistRedis {
		client, err := redis.Init(a.cfg.RedisUrl, a.log)
		if err != nil {
			return err
		}
		a.documents = redis.NewDocumentPersister(client, 0)
	}
	return nil
}

func (a *app) dropDocuments(id string) {
	ctx := context.Background()
	if a.documents != nil {
		if err := a.documents.Remove(ctx, id); err != nil {
			a.log.Warn("remove document", zap.String("session", id), zap.Error(err))
		}
	}
	if a.snapshots != nil {
		if err := a.snapshots.Delete(ctx, id); err != nil {
			a.log.Warn("delete snapshot", zap.String("session", id), zap.Error(err))
		}
	}
}

func (a *app) close() {
	if err := postgres.Close(); err != nil {
		a.log.Warn("Error closing PostgreSQL connection", zap.Error(err))
	}
	if err := redis.Close(); err != nil {
		a.log.Warn("Error closing Redis connection", zap.Error(err))
	}
	_ = a.log.Sync()
}
