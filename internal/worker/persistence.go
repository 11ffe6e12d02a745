package worker

import (
	"context"
	"errors"
	"fmt"

	"geoeditor/internal/metrics"
	"geoeditor/internal/model"
	"geoeditor/internal/redis"
	"geoeditor/internal/service/session"

	"go.uber.org/zap"
)

// SnapshotStore keeps session snapshots, the postgres documents table in production
type SnapshotStore interface {
	Save(ctx context.Context, doc *model.Document) error
	All(ctx context.Context) ([]*model.Document, error)
}

// DocumentStore keeps the latest document of every session, Redis in production
type DocumentStore interface {
	Save(ctx context.Context, key string, doc []byte) error
	Sessions(ctx context.Context) ([]string, error)
}

// Persistence moves session documents between the live sessions and the
// backing stores. Either store may be nil.
type Persistence struct {
	manager   *session.Manager
	snapshots SnapshotStore
	documents DocumentStore
	logger    *zap.Logger
}

func NewPersistence(m *session.Manager, snapshots SnapshotStore, documents DocumentStore, log *zap.Logger) *Persistence {
	return &Persistence{manager: m, snapshots: snapshots, documents: documents, logger: log}
}

// FlushSnapshots saves the sessions changed since the last flush. Sessions
// that fail stay dirty for the next run.
func (p *Persistence) FlushSnapshots(ctx context.Context) int {
	if p.snapshots == nil {
		return 0
	}
	var saved []string
	for _, s := range p.manager.Dirty() {
		if err := p.snapshots.Save(ctx, s.Snapshot()); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("postgres").Inc()
			p.logger.Warn("save snapshot", zap.String("session", s.ID), zap.Error(err))
			continue
		}
		saved = append(saved, s.ID)
	}
	p.manager.ClearDirty(saved)
	if len(saved) > 0 {
		p.logger.Debug("snapshots saved", zap.Int("count", len(saved)))
	}
	return len(saved)
}

// BackupDocuments rewrites the document of every live session
func (p *Persistence) BackupDocuments(ctx context.Context) int {
	if p.documents == nil {
		return 0
	}
	n := 0
	p.manager.ForEach(func(s *session.Session) bool {
		if err := p.documents.Save(ctx, redis.DocumentKey(s.ID), s.Store().GeoJSON()); err != nil {
			metrics.PersistFailuresTotal.WithLabelValues("redis").Inc()
			p.logger.Warn("backup document", zap.String("session", s.ID), zap.Error(err))
			return ctx.Err() == nil
		}
		n++
		return true
	})
	return n
}

// RestoreSessions brings back every stored session. A document in the
// document store is newer than the snapshot of the same session.
func (p *Persistence) RestoreSessions(ctx context.Context) (int, error) {
	snapshots := make(map[string]*model.Document)
	if p.snapshots != nil {
		docs, err := p.snapshots.All(ctx)
		if err != nil {
			return 0, fmt.Errorf("load snapshots: %w", err)
		}
		for _, d := range docs {
			snapshots[d.ID] = d
		}
	}
	var ids []string
	if p.documents != nil {
		var err error
		if ids, err = p.documents.Sessions(ctx); err != nil {
			return 0, fmt.Errorf("list documents: %w", err)
		}
	}

	var restored []string
	for _, id := range ids {
		_, err := p.manager.Open(ctx, id)
		if err == nil {
			delete(snapshots, id)
			restored = append(restored, id)
			continue
		}
		if !errors.Is(err, session.ErrSessionNotFound) {
			p.logger.Warn("restore session", zap.String("session", id), zap.Error(err))
		}
	}
	for id, d := range snapshots {
		if _, err := p.manager.Restore(ctx, id, d.GeoJSON); err != nil {
			p.logger.Warn("restore snapshot", zap.String("session", id), zap.Error(err))
			continue
		}
		restored = append(restored, id)
	}
	p.manager.ClearDirty(restored)
	p.logger.Info("sessions restored", zap.Int("count", len(restored)))
	return len(restored), nil
}
