package util

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	return angle.Radians() * earthRadiusMeters
}

// Measure holds geodesic measures of a geometry given in EPSG:4326
type Measure struct {
	LengthMeters float64 `json:"length_m"`
	AreaSqMeters float64 `json:"area_m2"`
}

// MeasureGeometry returns the geodesic length (lines, ring perimeters) and area (polygons)
func MeasureGeometry(g orb.Geometry) Measure {
	var m Measure
	switch g := g.(type) {
	case orb.LineString:
		m.LengthMeters = lineLength(g)
	case orb.MultiLineString:
		for _, ls := range g {
			m.LengthMeters += lineLength(ls)
		}
	case orb.Polygon:
		m = measurePolygon(g)
	case orb.MultiPolygon:
		for _, p := range g {
			pm := measurePolygon(p)
			m.LengthMeters += pm.LengthMeters
			m.AreaSqMeters += pm.AreaSqMeters
		}
	}
	return m
}

func lineLength(ls orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		total += HaversineDistance(ls[i-1].Lat(), ls[i-1].Lon(), ls[i].Lat(), ls[i].Lon())
	}
	return total
}

func measurePolygon(p orb.Polygon) Measure {
	var m Measure
	for i, ring := range p {
		m.LengthMeters += lineLength(orb.LineString(ring))
		area := ringArea(ring)
		if i == 0 {
			m.AreaSqMeters += area
		} else {
			m.AreaSqMeters -= area
		}
	}
	if m.AreaSqMeters < 0 {
		m.AreaSqMeters = 0
	}
	return m
}

// ringArea returns the area enclosed by a ring regardless of its winding
func ringArea(r orb.Ring) float64 {
	pts := make([]s2.Point, 0, len(r))
	for i, p := range r {
		if i == len(r)-1 && len(r) > 1 && p.Equal(r[0]) {
			break
		}
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())))
	}
	if len(pts) < 3 {
		return 0
	}
	loop := s2.LoopFromPoints(pts)
	loop.Normalize()
	return loop.Area() * earthRadiusMeters * earthRadiusMeters
}
