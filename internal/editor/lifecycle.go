package editor

import (
	"fmt"

	"geoeditor/internal/featurestore"
	"geoeditor/internal/metrics"
	"geoeditor/internal/model"
	"geoeditor/internal/surface"
	"geoeditor/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// toolSwitcher is the part of the coordinator the lifecycle drives
type toolSwitcher interface {
	SetTool(id model.ToolID) error
	Unselect()
}

// Lifecycle is the only writer of the feature store. It finalizes created
// features and keeps the live source and the store consistent.
type Lifecycle struct {
	source *surface.Source
	store  *featurestore.Store
	logger *zap.Logger
	newID  func() string
	tools  toolSwitcher
}

// OnCreate finalizes a drawn feature: identity and default attributes are
// assigned when missing, the feature joins the source, the tool switches to
// translate and the collection is committed.
func (l *Lifecycle) OnCreate(f *geojson.Feature) {
	if f == nil {
		return
	}
	if util.FeatureID(f.ID) == "" {
		f.ID = l.newID()
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	for k, v := range model.DefaultProperties() {
		if _, ok := f.Properties[k]; !ok {
			f.Properties[k] = v
		}
	}

	if _, ok := l.source.FeatureByID(util.FeatureID(f.ID)); !ok {
		l.source.AddFeature(f)
	}
	if err := l.tools.SetTool(model.ToolTranslate); err != nil {
		l.logger.Warn("switch to translate", zap.Error(err))
	}
	metrics.CommitsTotal.WithLabelValues("create").Inc()
	l.CommitUpdate(f)
}

// CommitUpdate merges f into the committed feature carrying its identity and
// writes the collection to the store. Unknown identities only clear the selection.
func (l *Lifecycle) CommitUpdate(f *geojson.Feature) {
	defer l.tools.Unselect()
	if f == nil {
		return
	}
	existing, ok := l.source.FeatureByID(util.FeatureID(f.ID))
	if !ok {
		return
	}
	if existing != f {
		before := surface.CloneFeature(existing)
		if existing.Properties == nil {
			existing.Properties = geojson.Properties{}
		}
		for k, v := range f.Properties {
			existing.Properties[k] = v
		}
		if f.Geometry != nil {
			existing.Geometry = orb.Clone(f.Geometry)
		}
		l.source.Changed(existing, before)
	}
	metrics.CommitsTotal.WithLabelValues("update").Inc()
	l.write()
}

// DeleteFeature removes the committed feature carrying the identity of f.
// Deleting an unknown feature only clears the selection.
func (l *Lifecycle) DeleteFeature(f *geojson.Feature) {
	defer l.tools.Unselect()
	if f == nil {
		return
	}
	existing, ok := l.source.FeatureByID(util.FeatureID(f.ID))
	if !ok {
		return
	}
	l.source.RemoveFeature(existing)
	metrics.CommitsTotal.WithLabelValues("delete").Inc()
	l.write()
}

// DeleteByID removes the committed feature with the given identity
func (l *Lifecycle) DeleteByID(id string) {
	f, ok := l.source.FeatureByID(id)
	if !ok {
		l.tools.Unselect()
		return
	}
	l.DeleteFeature(f)
}

// Redraw replaces the live source content with the store collection
func (l *Lifecycle) Redraw() error {
	features, err := l.store.Features()
	if err != nil {
		l.logger.Warn("redraw", zap.Error(err))
		return fmt.Errorf("redraw: %w", err)
	}
	l.source.Batch(func() {
		l.source.Clear()
		l.source.AddFeatures(features)
	})
	return nil
}

// ClearAll empties the store and the live source
func (l *Lifecycle) ClearAll() error {
	l.store.Clear()
	metrics.CommitsTotal.WithLabelValues("clear").Inc()
	return l.Redraw()
}

// Sync writes the live source to the store after an in-place edit. The
// selection is left alone.
func (l *Lifecycle) Sync() {
	metrics.CommitsTotal.WithLabelValues("sync").Inc()
	l.write()
}

func (l *Lifecycle) write() {
	if err := l.store.SetFeatures(l.source.Features()); err != nil {
		l.logger.Error("write store", zap.Error(err))
		return
	}
	l.store.SetRefresh(true)
}
