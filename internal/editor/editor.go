package editor

import (
	"errors"

	"geoeditor/internal/featurestore"
	"geoeditor/internal/interaction"
	"geoeditor/internal/metrics"
	"geoeditor/internal/model"
	"geoeditor/internal/surface"
	"geoeditor/internal/tool"
	"geoeditor/internal/util"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// ErrDisposed is returned by operations on a disposed editor
var ErrDisposed = errors.New("editor disposed")

const (
	// DefaultHitTolerance is the pixel tolerance of picking and click detection
	DefaultHitTolerance = 2
)

// Editor coordinates the editing behaviors attached to a map: at most one
// exclusive tool behavior plus the persistent selection, snapping and history.
// It is not safe for concurrent use; sessions serialize calls.
type Editor struct {
	m      *surface.Map
	source *surface.Source
	logger *zap.Logger

	hitTolerance  float64
	snapTolerance float64
	historyLimit  int
	fillName      string
	fill          geojson.Properties
	newID         func() string
	onEdit        func(*geojson.Feature)

	tool      model.ToolID
	active    surface.Interaction
	activeSub *surface.Subscription

	selection     *surface.Collection
	selector      *interaction.Select
	history       *interaction.UndoRedo
	snap          *interaction.Snap
	snapEnabled   bool
	featureToEdit *geojson.Feature

	lifecycle *Lifecycle
	disposed  bool
}

type Option func(*Editor)

func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

func WithHitTolerance(px float64) Option {
	return func(e *Editor) {
		if px > 0 {
			e.hitTolerance = px
		}
	}
}

func WithSnapTolerance(px float64) Option {
	return func(e *Editor) {
		if px > 0 {
			e.snapTolerance = px
		}
	}
}

// WithHistoryLimit bounds the undo stack, zero keeps every step
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.historyLimit = n
	}
}

// WithFill sets the attribute set painted by the fill tool
func WithFill(name string, attrs geojson.Properties) Option {
	return func(e *Editor) {
		e.fillName = name
		e.fill = attrs
	}
}

// WithIDGenerator replaces the identity generator of created features
func WithIDGenerator(fn func() string) Option {
	return func(e *Editor) {
		e.newID = fn
	}
}

// WithEditHook enables the edit flow: fn is called with the feature picked by
// the selection behavior, which also becomes FeatureToEdit
func WithEditHook(fn func(*geojson.Feature)) Option {
	return func(e *Editor) {
		e.onEdit = fn
	}
}

// New attaches the persistent behaviors to m and returns an editor in the
// default tool
func New(m *surface.Map, source *surface.Source, store *featurestore.Store, opts ...Option) *Editor {
	e := &Editor{
		m:             m,
		source:        source,
		logger:        zap.NewNop(),
		hitTolerance:  DefaultHitTolerance,
		snapTolerance: interaction.DefaultSnapTolerance,
		newID:         util.NewFeatureID,
		tool:          model.ToolDefault,
		selection:     surface.NewCollection(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.lifecycle = &Lifecycle{
		source: source,
		store:  store,
		logger: e.logger,
		newID:  e.newID,
		tools:  e,
	}

	e.history = interaction.NewUndoRedo(source, e.historyLimit)
	m.AddInteraction(e.history)

	e.selector = interaction.NewSelect(source, e.selection, e.hitTolerance)
	m.AddInteraction(e.selector).On(surface.EventSelect, e.handleSelect)

	e.snap = interaction.NewSnap(source, e.snapTolerance)
	return e
}

// handleSelect feeds the edit flow, which only runs for editors built with an edit hook
func (e *Editor) handleSelect(ev surface.Event) {
	if e.onEdit == nil || len(ev.Features) == 0 {
		return
	}
	e.featureToEdit = ev.Features[0]
	e.onEdit(e.featureToEdit)
}

// Lifecycle returns the manager of committed features
func (e *Editor) Lifecycle() *Lifecycle {
	return e.lifecycle
}

// Tool returns the current tool id
func (e *Editor) Tool() model.ToolID {
	return e.tool
}

// Active returns the attached exclusive behavior, nil in the default tool
func (e *Editor) Active() surface.Interaction {
	return e.active
}

// SetTool tears down the current tool behavior, clears the selection and
// attaches the behavior of id. Unknown ids are recorded with nothing attached
// and reported with tool.ErrUnknownTool.
func (e *Editor) SetTool(id model.ToolID) error {
	if e.disposed {
		return ErrDisposed
	}

	preselection := e.selection.Items()
	e.selection.Clear()
	e.detachActive()
	e.tool = id
	metrics.ToolSwitchesTotal.WithLabelValues(string(id)).Inc()

	opts := tool.Options{
		Source:        e.source,
		Selection:     e.selection,
		HitTolerance:  e.hitTolerance,
		SnapTolerance: e.snapTolerance,
		FillName:      e.fillName,
		Fill:          e.fill,
	}
	if id == model.ToolTransform {
		opts.Preselection = preselection
	}

	behavior, err := tool.Build(id, opts)
	if errors.Is(err, tool.ErrUnknownTool) {
		e.logger.Warn("unmounted interaction", zap.String("tool", string(id)))
		metrics.UnknownToolsTotal.Inc()
		return err
	}
	if err != nil {
		e.logger.Error("build tool", zap.String("tool", string(id)), zap.Error(err))
		return err
	}
	if behavior == nil {
		return nil
	}

	sub := e.m.AddInteraction(behavior)
	sub.On(surface.EventDrawEnd, func(ev surface.Event) {
		for _, f := range ev.Features {
			e.lifecycle.OnCreate(f)
		}
	})
	for _, t := range []surface.EventType{
		surface.EventTranslateEnd,
		surface.EventModifyEnd,
		surface.EventTransformEnd,
		surface.EventDeleteEnd,
		surface.EventFillEnd,
		surface.EventHoleEnd,
	} {
		sub.On(t, func(surface.Event) { e.lifecycle.Sync() })
	}
	e.active, e.activeSub = behavior, sub
	return nil
}

func (e *Editor) detachActive() {
	if e.activeSub != nil {
		e.activeSub.Close()
	}
	e.active, e.activeSub = nil, nil
}

// ToggleSnap flips snapping and returns the new state
func (e *Editor) ToggleSnap() bool {
	if e.disposed {
		return e.snapEnabled
	}
	e.snapEnabled = !e.snapEnabled
	if e.snapEnabled {
		e.m.AddInteraction(e.snap)
	} else {
		e.m.RemoveInteraction(e.snap)
	}
	return e.snapEnabled
}

func (e *Editor) SnapEnabled() bool {
	return e.snapEnabled
}

// Undo reverts the last edit and writes the result to the store
func (e *Editor) Undo() bool {
	if e.disposed || !e.history.Undo() {
		return false
	}
	metrics.HistoryTotal.WithLabelValues("undo").Inc()
	e.lifecycle.Sync()
	return true
}

// Redo reapplies the last undone edit and writes the result to the store
func (e *Editor) Redo() bool {
	if e.disposed || !e.history.Redo() {
		return false
	}
	metrics.HistoryTotal.WithLabelValues("redo").Inc()
	e.lifecycle.Sync()
	return true
}

func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// Selection returns the selected features
func (e *Editor) Selection() []*geojson.Feature {
	return e.selection.Items()
}

// Unselect clears the selection and the feature to edit
func (e *Editor) Unselect() {
	e.selection.Clear()
	e.featureToEdit = nil
}

// FeatureToEdit returns the feature last picked by the selection behavior
func (e *Editor) FeatureToEdit() *geojson.Feature {
	return e.featureToEdit
}

// Dispatch delivers a pointer event to the attached behaviors
func (e *Editor) Dispatch(ev *surface.MapEvent) {
	if e.disposed {
		return
	}
	e.m.Dispatch(ev)
}

// Dispose detaches every behavior from the map. Disposing twice is a no-op.
func (e *Editor) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	e.detachActive()
	e.m.RemoveInteraction(e.history)
	e.m.RemoveInteraction(e.selector)
	e.m.RemoveInteraction(e.snap)
	e.selection.Clear()
	e.featureToEdit = nil
}

func (e *Editor) Disposed() bool {
	return e.disposed
}
