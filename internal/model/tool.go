package model

// ToolID identifies the active editing tool of a session
type ToolID string

const (
	ToolDefault   ToolID = "default"
	ToolPoint     ToolID = "point"
	ToolLine      ToolID = "line"
	ToolPolygon   ToolID = "polygon"
	ToolSquare    ToolID = "square"
	ToolCircle    ToolID = "circle"
	ToolTranslate ToolID = "translate"
	ToolModify    ToolID = "modify"
	ToolTransform ToolID = "transform"
	ToolDelete    ToolID = "delete"
	ToolHole      ToolID = "hole"
	ToolFill      ToolID = "fill"
)

// Tools lists every tool a session can switch to, "default" included
var Tools = []ToolID{
	ToolDefault,
	ToolPoint,
	ToolLine,
	ToolPolygon,
	ToolSquare,
	ToolCircle,
	ToolTranslate,
	ToolModify,
	ToolTransform,
	ToolDelete,
	ToolHole,
	ToolFill,
}

func (t ToolID) String() string {
	return string(t)
}
