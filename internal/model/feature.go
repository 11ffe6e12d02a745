package model

import "github.com/paulmach/orb/geojson"

// Property keys carried by every committed feature
const (
	PropID              = "id"
	PropName            = "name"
	PropDescription     = "description"
	PropAnnotation      = "annotation"
	PropAnnotationStyle = "annotationStyle"
	PropIcon            = "icon"
	PropColor           = "color"
	PropOpacity         = "opacity"
	PropThickness       = "thickness"
	PropLevel           = "level"
	PropSection         = "section"

	// PropNo is the ordinal assigned by the store to features imported without attributes
	PropNo = "no"
)

// DefaultColor is the material color applied to new features
const DefaultColor = "light-blue"

// DefaultProperties returns a fresh default attribute set.
// Unset attributes are present with a nil value so that every committed
// feature exposes the same keys.
func DefaultProperties() geojson.Properties {
	return geojson.Properties{
		PropID:              nil,
		PropName:            nil,
		PropDescription:     nil,
		PropAnnotation:      nil,
		PropAnnotationStyle: nil,
		PropIcon:            nil,
		PropColor:           DefaultColor,
		PropOpacity:         nil,
		PropThickness:       nil,
		PropLevel:           0,
	}
}

// FeatureStatus is the render status passed to the style resolver
type FeatureStatus string

const (
	FeatureStatusActive   FeatureStatus = "active"
	FeatureStatusInactive FeatureStatus = "inactive"
	FeatureStatusHover    FeatureStatus = "hover"
	FeatureStatusSelected FeatureStatus = "selected"
)

// ParseFeatureStatus maps a status name to a FeatureStatus, defaulting to active.
func ParseFeatureStatus(s string) FeatureStatus {
	switch FeatureStatus(s) {
	case FeatureStatusInactive, FeatureStatusHover, FeatureStatusSelected:
		return FeatureStatus(s)
	default:
		return FeatureStatusActive
	}
}

// MaterialColors lists the colors a feature may carry
var MaterialColors = []string{
	"red",
	"pink",
	"purple",
	"deep-purple",
	"indigo",
	"blue",
	"light-blue",
	"cyan",
	"teal",
	"green",
	"light-green",
	"lime",
	"yellow",
	"amber",
	"orange",
	"deep-orange",
	"brown",
	"blue-grey",
	"grey",
}

// FeatureLevel reads the layer level of a feature, 0 when unset.
func FeatureLevel(props geojson.Properties) int {
	switch v := props[PropLevel].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
