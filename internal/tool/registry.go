package tool

import (
	"errors"
	"fmt"

	"geoeditor/internal/interaction"
	"geoeditor/internal/model"
	"geoeditor/internal/surface"

	"github.com/paulmach/orb/geojson"
)

var (
	// ErrUnknownTool is returned for tool ids outside the registry. The caller
	// still switches to the tool, nothing gets attached.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNoSource is returned when a behavior is built without a feature source
	ErrNoSource = errors.New("tool requires a feature source")
)

// Kind is the behavior family of a tool
type Kind int

const (
	KindNone Kind = iota
	KindTranslate
	KindModify
	KindDelete
	KindDraw
	KindTransform
	KindFill
	KindHole
)

// Kinds lists every behavior family
var Kinds = []Kind{KindNone, KindTranslate, KindModify, KindDelete, KindDraw, KindTransform, KindFill, KindHole}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTranslate:
		return "translate"
	case KindModify:
		return "modify"
	case KindDelete:
		return "delete"
	case KindDraw:
		return "draw"
	case KindTransform:
		return "transform"
	case KindFill:
		return "fill"
	case KindHole:
		return "hole"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Shape is the geometry drawn by a KindDraw tool
type Shape int

const (
	ShapeNone Shape = iota
	ShapePoint
	ShapeLine
	ShapePolygon
	ShapeSquare
	ShapeCircle
)

// Spec describes the behavior bound to a tool id
type Spec struct {
	Kind  Kind
	Shape Shape
}

var specs = map[model.ToolID]Spec{
	model.ToolDefault:   {Kind: KindNone},
	model.ToolPoint:     {Kind: KindDraw, Shape: ShapePoint},
	model.ToolLine:      {Kind: KindDraw, Shape: ShapeLine},
	model.ToolPolygon:   {Kind: KindDraw, Shape: ShapePolygon},
	model.ToolSquare:    {Kind: KindDraw, Shape: ShapeSquare},
	model.ToolCircle:    {Kind: KindDraw, Shape: ShapeCircle},
	model.ToolTranslate: {Kind: KindTranslate},
	model.ToolModify:    {Kind: KindModify},
	model.ToolTransform: {Kind: KindTransform},
	model.ToolDelete:    {Kind: KindDelete},
	model.ToolHole:      {Kind: KindHole},
	model.ToolFill:      {Kind: KindFill},
}

// Lookup returns the spec of a tool id
func Lookup(id model.ToolID) (Spec, bool) {
	s, ok := specs[id]
	return s, ok
}

// DefaultFillName and DefaultFill are the attribute set painted by the fill tool
const DefaultFillName = "fill color"

func DefaultFill() geojson.Properties {
	return geojson.Properties{model.PropColor: "red"}
}

// Options parameterize the behaviors built by the registry
type Options struct {
	Source    *surface.Source
	Selection *surface.Collection
	// HitTolerance in pixels for picking and click detection
	HitTolerance float64
	// SnapTolerance in pixels for vertex grabbing
	SnapTolerance float64
	FillName      string
	Fill          geojson.Properties
	// Preselection is handed to the transform tool
	Preselection []*geojson.Feature
}

// Build creates the behavior of a tool. The default tool has no behavior and
// returns nil.
func Build(id model.ToolID, opts Options) (surface.Interaction, error) {
	spec, ok := specs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, id)
	}
	return spec.Build(opts)
}

// Build creates the behavior described by the spec
func (s Spec) Build(opts Options) (surface.Interaction, error) {
	if s.Kind == KindNone {
		return nil, nil
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("build %s: %w", s.Kind, ErrNoSource)
	}

	switch s.Kind {
	case KindTranslate:
		selection := opts.Selection
		if selection == nil {
			selection = surface.NewCollection()
		}
		return interaction.NewTranslate(opts.Source, selection, opts.HitTolerance), nil
	case KindModify:
		return interaction.NewModify(opts.Source, opts.SnapTolerance), nil
	case KindDelete:
		return interaction.NewDelete(opts.Source, opts.HitTolerance), nil
	case KindDraw:
		return buildDraw(s.Shape, opts)
	case KindTransform:
		t := interaction.NewTransform(opts.Source, opts.HitTolerance)
		if len(opts.Preselection) > 0 {
			t.SetSelection(opts.Preselection)
		}
		return t, nil
	case KindFill:
		name, attrs := opts.FillName, opts.Fill
		if name == "" {
			name = DefaultFillName
		}
		if attrs == nil {
			attrs = DefaultFill()
		}
		return interaction.NewFillAttribute(opts.Source, name, attrs, opts.HitTolerance), nil
	case KindHole:
		return interaction.NewDrawHole(opts.Source), nil
	}
	return nil, fmt.Errorf("build %s: no factory", s.Kind)
}

func buildDraw(shape Shape, opts Options) (surface.Interaction, error) {
	switch shape {
	case ShapePoint:
		return interaction.NewDraw(interaction.GeometryPoint), nil
	case ShapeLine:
		return withClickTolerance(interaction.NewDraw(interaction.GeometryLineString), opts.HitTolerance), nil
	case ShapePolygon:
		return withClickTolerance(interaction.NewDraw(interaction.GeometryPolygon), opts.HitTolerance), nil
	case ShapeSquare:
		return interaction.NewDrawRegular(4, true), nil
	case ShapeCircle:
		return interaction.NewDrawRegular(0, false), nil
	}
	return nil, fmt.Errorf("build draw: no factory for shape %d", shape)
}

func withClickTolerance(d *interaction.Draw, tolerance float64) *interaction.Draw {
	if tolerance > 0 {
		d.ClickTolerance = tolerance
	}
	return d
}
