package interaction

import (
	"geoeditor/internal/surface"
	"geoeditor/internal/util"

	"github.com/paulmach/orb/geojson"
)

type opKind int

const (
	opAdd opKind = iota
	opRemove
	opChange
	opClear
)

type historyOp struct {
	kind     opKind
	feature  *geojson.Feature
	before   *geojson.Feature
	after    *geojson.Feature
	features []*geojson.Feature
}

type historyEntry struct {
	ops []historyOp
}

// UndoRedo records the changes of a source while attached. Changes made within
// one source batch form a single history entry.
type UndoRedo struct {
	source *surface.Source
	// Limit bounds the undo stack, zero means unbounded
	Limit int

	undoStack []*historyEntry
	redoStack []*historyEntry
	block     *historyEntry
	replaying bool
}

func NewUndoRedo(source *surface.Source, limit int) *UndoRedo {
	return &UndoRedo{source: source, Limit: limit}
}

func (u *UndoRedo) Setup(*surface.Map) func() {
	return u.source.Watch(u.record)
}

func (u *UndoRedo) HandleEvent(*surface.Map, *surface.MapEvent) bool {
	return true
}

func (u *UndoRedo) record(ev surface.SourceEvent) {
	if u.replaying {
		return
	}
	switch ev.Type {
	case surface.SourceBatchStart:
		u.block = &historyEntry{}
	case surface.SourceBatchEnd:
		if u.block != nil && len(u.block.ops) > 0 {
			u.push(u.block)
		}
		u.block = nil
	case surface.SourceAdd:
		u.add(historyOp{kind: opAdd, feature: ev.Feature})
	case surface.SourceRemove:
		u.add(historyOp{kind: opRemove, feature: ev.Feature})
	case surface.SourceChange:
		if ev.Before == nil {
			return
		}
		u.add(historyOp{kind: opChange, feature: ev.Feature, before: ev.Before, after: surface.CloneFeature(ev.Feature)})
	case surface.SourceClear:
		if len(ev.Features) > 0 {
			u.add(historyOp{kind: opClear, features: ev.Features})
		}
	}
}

func (u *UndoRedo) add(op historyOp) {
	if u.block != nil {
		u.block.ops = append(u.block.ops, op)
		return
	}
	u.push(&historyEntry{ops: []historyOp{op}})
}

func (u *UndoRedo) push(e *historyEntry) {
	u.undoStack = append(u.undoStack, e)
	u.redoStack = nil
	if u.Limit > 0 && len(u.undoStack) > u.Limit {
		u.undoStack = u.undoStack[len(u.undoStack)-u.Limit:]
	}
}

// resolve maps a recorded feature to the live one carrying the same identity
func (u *UndoRedo) resolve(f *geojson.Feature) *geojson.Feature {
	if u.source.Has(f) {
		return f
	}
	if live, ok := u.source.FeatureByID(util.FeatureID(f.ID)); ok {
		return live
	}
	return f
}

func (u *UndoRedo) apply(fn func()) {
	u.replaying = true
	defer func() { u.replaying = false }()
	u.source.Batch(fn)
}

// Undo reverts the last entry, reporting whether there was one
func (u *UndoRedo) Undo() bool {
	if len(u.undoStack) == 0 {
		return false
	}
	e := u.undoStack[len(u.undoStack)-1]
	u.undoStack = u.undoStack[:len(u.undoStack)-1]
	u.apply(func() {
		for i := len(e.ops) - 1; i >= 0; i-- {
			op := e.ops[i]
			switch op.kind {
			case opAdd:
				u.source.RemoveFeature(u.resolve(op.feature))
			case opRemove:
				u.source.AddFeature(op.feature)
			case opChange:
				u.source.Replace(u.resolve(op.feature), op.before)
			case opClear:
				u.source.AddFeatures(op.features)
			}
		}
	})
	u.redoStack = append(u.redoStack, e)
	return true
}

// Redo reapplies the last undone entry, reporting whether there was one
func (u *UndoRedo) Redo() bool {
	if len(u.redoStack) == 0 {
		return false
	}
	e := u.redoStack[len(u.redoStack)-1]
	u.redoStack = u.redoStack[:len(u.redoStack)-1]
	u.apply(func() {
		for _, op := range e.ops {
			switch op.kind {
			case opAdd:
				u.source.AddFeature(op.feature)
			case opRemove:
				u.source.RemoveFeature(u.resolve(op.feature))
			case opChange:
				u.source.Replace(u.resolve(op.feature), op.after)
			case opClear:
				u.source.Clear()
			}
		}
	})
	u.undoStack = append(u.undoStack, e)
	return true
}

func (u *UndoRedo) CanUndo() bool {
	return len(u.undoStack) > 0
}

func (u *UndoRedo) CanRedo() bool {
	return len(u.redoStack) > 0
}

// Clear drops the whole history
func (u *UndoRedo) Clear() {
	u.undoStack = nil
	u.redoStack = nil
	u.block = nil
}
