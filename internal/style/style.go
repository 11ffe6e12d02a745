package style

import (
	"fmt"

	"geoeditor/internal/model"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SectionLayer is the layer whose polygons are drawn as section outlines
const SectionLayer = "sectionLayer"

const fontFamily = "'Roboto', 'Noto Sans JP','Noto Color Emoji', sans-serif"

// Style is the paint style of a feature. Colors are CSS rgba() strings with
// the matching opacity already applied.
type Style struct {
	PointFill          string  `json:"pointFill"`
	PointFillOpacity   float64 `json:"pointFillOpacity"`
	PointStroke        string  `json:"pointStroke"`
	PointStrokeOpacity float64 `json:"pointStrokeOpacity"`
	PointStrokeWidth   float64 `json:"pointStrokeWidth"`
	PointSize          float64 `json:"pointSize"`

	Fill          string  `json:"fill"`
	FillOpacity   float64 `json:"fillOpacity"`
	Stroke        string  `json:"stroke"`
	StrokeOpacity float64 `json:"strokeOpacity"`
	StrokeWidth   float64 `json:"strokeWidth"`

	Text              string  `json:"text"`
	TextOpacity       float64 `json:"textOpacity"`
	TextStroke        string  `json:"textStroke"`
	TextStrokeOpacity float64 `json:"textStrokeOpacity"`
	TextStrokeWidth   float64 `json:"textStrokeWidth"`
	Font              string  `json:"font"`
	Label             string  `json:"label,omitempty"`

	Icon        string  `json:"icon,omitempty"`
	IconOpacity float64 `json:"iconOpacity"`
}

// record is a style before colors are resolved against a palette color
type record struct {
	pointFill, pointStroke, fill, stroke, text, textStroke []Shade

	pointFillOpacity, pointStrokeOpacity, pointStrokeWidth, pointSize float64
	fillOpacity, strokeOpacity, strokeWidth                           float64
	textOpacity, textStrokeOpacity, textStrokeWidth                   float64
	iconOpacity                                                       float64
	font                                                              string
}

// override replaces the set fields of a record
type override struct {
	pointFill, pointStroke, fill []Shade

	pointFillOpacity, pointStrokeOpacity, pointStrokeWidth *float64
	fillOpacity, strokeOpacity, strokeWidth                *float64
	textOpacity, textStrokeOpacity                         *float64
	iconOpacity                                            *float64
	font                                                   *string
}

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }

var base = record{
	pointFill:   []Shade{Accent1, Lighten4},
	pointStroke: []Shade{Accent3, Lighten3},
	fill:        []Shade{Accent1, Lighten4},
	stroke:      []Shade{Accent3, Lighten3},
	text:        []Shade{Darken4},
	textStroke:  []Shade{Lighten5},

	pointFillOpacity:   0.35,
	pointStrokeOpacity: 1,
	pointStrokeWidth:   1,
	pointSize:          5,
	fillOpacity:        0.25,
	strokeOpacity:      0.75,
	strokeWidth:        1,
	textOpacity:        1,
	textStrokeOpacity:  0.5,
	textStrokeWidth:    2.5,
	iconOpacity:        1,
	font:               "400 1rem " + fontFamily,
}

var (
	hover = override{
		pointFillOpacity:  f64(0.5),
		fillOpacity:       f64(0.5),
		strokeOpacity:     f64(1),
		textStrokeOpacity: f64(1),
	}
	inactive = override{
		pointFillOpacity:   f64(0.05),
		pointStrokeOpacity: f64(0.25),
		fillOpacity:        f64(0.05),
		strokeOpacity:      f64(0.25),
		iconOpacity:        f64(0.5),
		textOpacity:        f64(0.5),
		textStrokeOpacity:  f64(0.25),
	}
	selected = override{
		pointFill:         []Shade{Accent4, Base},
		pointFillOpacity:  f64(1),
		pointStroke:       []Shade{Accent2, Lighten4},
		pointStrokeWidth:  f64(2),
		fill:              []Shade{Accent1, Lighten5},
		fillOpacity:       f64(0.5),
		strokeWidth:       f64(3),
		textStrokeOpacity: f64(1),
	}

	section = override{
		fillOpacity:       f64(0),
		textStrokeOpacity: f64(0.75),
		font:              str("600 1.5rem " + fontFamily),
	}
	sectionInactive = override{
		fillOpacity:       f64(0),
		strokeOpacity:     f64(0.25),
		textOpacity:       f64(0.5),
		textStrokeOpacity: f64(0.25),
	}
	sectionHover = override{
		fillOpacity:       f64(0.1),
		textOpacity:       f64(1),
		textStrokeOpacity: f64(1),
	}
)

func (r record) apply(o override) record {
	if o.pointFill != nil {
		r.pointFill = o.pointFill
	}
	if o.pointStroke != nil {
		r.pointStroke = o.pointStroke
	}
	if o.fill != nil {
		r.fill = o.fill
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.pointFillOpacity, o.pointFillOpacity)
	set(&r.pointStrokeOpacity, o.pointStrokeOpacity)
	set(&r.pointStrokeWidth, o.pointStrokeWidth)
	set(&r.fillOpacity, o.fillOpacity)
	set(&r.strokeOpacity, o.strokeOpacity)
	set(&r.strokeWidth, o.strokeWidth)
	set(&r.textOpacity, o.textOpacity)
	set(&r.textStrokeOpacity, o.textStrokeOpacity)
	set(&r.iconOpacity, o.iconOpacity)
	if o.font != nil {
		r.font = *o.font
	}
	return r
}

// StatusFor returns Active for features on the given level, Inactive otherwise
func StatusFor(props geojson.Properties, level int) model.FeatureStatus {
	if model.FeatureLevel(props) == level {
		return model.FeatureStatusActive
	}
	return model.FeatureStatusInactive
}

// Resolve computes the paint style of f. An Active feature off the current
// level is drawn Inactive.
func Resolve(f *geojson.Feature, status model.FeatureStatus, layerID string, level int) Style {
	props := f.Properties
	if status == model.FeatureStatusActive {
		status = StatusFor(props, level)
	}

	r := base
	isSection := layerID == SectionLayer && isPolygon(f.Geometry)
	switch status {
	case model.FeatureStatusActive:
		if isSection {
			r = r.apply(section)
		}
	case model.FeatureStatusInactive:
		r = r.apply(inactive)
		if isSection {
			r = r.apply(section).apply(sectionInactive)
		}
	case model.FeatureStatusHover:
		r = r.apply(hover)
		if isSection {
			r = r.apply(section).apply(sectionHover)
		}
	case model.FeatureStatusSelected:
		r = r.apply(selected)
	}

	if w, ok := number(props[model.PropThickness]); ok {
		r.strokeWidth = w
	}
	if op, ok := number(props[model.PropOpacity]); ok {
		switch status {
		case model.FeatureStatusActive:
			r.fillOpacity = op
		case model.FeatureStatusInactive:
			r.fillOpacity = op / 2
		case model.FeatureStatusHover:
			r.fillOpacity = 0.25
		}
	}

	color, _ := props[model.PropColor].(string)
	if !HasColor(color) {
		color = model.DefaultColor
	}
	s := r.resolve(color)
	s.Label, _ = props[model.PropAnnotation].(string)
	s.Icon, _ = props[model.PropIcon].(string)
	return s
}

func (r record) resolve(color string) Style {
	return Style{
		PointFill:          rgba(color, r.pointFill, r.pointFillOpacity),
		PointFillOpacity:   r.pointFillOpacity,
		PointStroke:        rgba(color, r.pointStroke, r.pointStrokeOpacity),
		PointStrokeOpacity: r.pointStrokeOpacity,
		PointStrokeWidth:   r.pointStrokeWidth,
		PointSize:          r.pointSize,
		Fill:               rgba(color, r.fill, r.fillOpacity),
		FillOpacity:        r.fillOpacity,
		Stroke:             rgba(color, r.stroke, r.strokeOpacity),
		StrokeOpacity:      r.strokeOpacity,
		StrokeWidth:        r.strokeWidth,
		Text:               rgba(color, r.text, r.textOpacity),
		TextOpacity:        r.textOpacity,
		TextStroke:         rgba(color, r.textStroke, r.textStrokeOpacity),
		TextStrokeOpacity:  r.textStrokeOpacity,
		TextStrokeWidth:    r.textStrokeWidth,
		Font:               r.font,
		IconOpacity:        r.iconOpacity,
	}
}

// rgba renders a palette tone as a CSS color
func rgba(color string, prefs []Shade, alpha float64) string {
	hex, ok := pick(color, prefs)
	if !ok {
		return ""
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return ""
	}
	r, g, b := c.RGB255()
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", r, g, b, alpha)
}

func isPolygon(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
