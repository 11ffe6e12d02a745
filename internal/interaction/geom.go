package interaction

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// circleSegments is the vertex count of a drawn circle
const circleSegments = 64

// path is one editable vertex sequence of a geometry. Rings are stored open.
type path struct {
	points []orb.Point
	closed bool
	// minimum vertex count before a removal is refused
	min int
}

// explode flattens a geometry into its editable paths
func explode(g orb.Geometry) []path {
	switch g := g.(type) {
	case orb.Point:
		return []path{{points: []orb.Point{g}, min: 1}}
	case orb.MultiPoint:
		paths := make([]path, len(g))
		for i, p := range g {
			paths[i] = path{points: []orb.Point{p}, min: 1}
		}
		return paths
	case orb.LineString:
		return []path{linePath(g)}
	case orb.MultiLineString:
		paths := make([]path, len(g))
		for i, ls := range g {
			paths[i] = linePath(ls)
		}
		return paths
	case orb.Polygon:
		return polygonPaths(g)
	case orb.MultiPolygon:
		var paths []path
		for _, poly := range g {
			paths = append(paths, polygonPaths(poly)...)
		}
		return paths
	}
	return nil
}

func linePath(ls orb.LineString) path {
	return path{points: append([]orb.Point(nil), ls...), min: 2}
}

func polygonPaths(poly orb.Polygon) []path {
	paths := make([]path, len(poly))
	for i, r := range poly {
		pts := append([]orb.Point(nil), r...)
		if len(pts) > 1 && pts[0].Equal(pts[len(pts)-1]) {
			pts = pts[:len(pts)-1]
		}
		paths[i] = path{points: pts, closed: true, min: 3}
	}
	return paths
}

// rebuild writes paths back into a new geometry shaped like g
func rebuild(g orb.Geometry, paths []path) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return paths[0].points[0]
	case orb.MultiPoint:
		mp := make(orb.MultiPoint, len(paths))
		for i, p := range paths {
			mp[i] = p.points[0]
		}
		return mp
	case orb.LineString:
		return orb.LineString(paths[0].points)
	case orb.MultiLineString:
		mls := make(orb.MultiLineString, len(paths))
		for i, p := range paths {
			mls[i] = orb.LineString(p.points)
		}
		return mls
	case orb.Polygon:
		return rebuildPolygon(paths)
	case orb.MultiPolygon:
		mp := make(orb.MultiPolygon, len(g))
		offset := 0
		for i, poly := range g {
			mp[i] = rebuildPolygon(paths[offset : offset+len(poly)])
			offset += len(poly)
		}
		return mp
	}
	return g
}

func rebuildPolygon(paths []path) orb.Polygon {
	poly := make(orb.Polygon, len(paths))
	for i, p := range paths {
		r := make(orb.Ring, 0, len(p.points)+1)
		r = append(r, p.points...)
		if len(p.points) > 0 {
			r = append(r, p.points[0])
		}
		poly[i] = r
	}
	return poly
}

// vertexRef addresses one vertex of an exploded geometry
type vertexRef struct {
	path  int
	index int
}

// nearestVertex returns the vertex of paths closest to p within tolerance
func nearestVertex(paths []path, p orb.Point, tolerance float64) (vertexRef, bool) {
	best := vertexRef{}
	bestDist := math.Inf(1)
	for i, pa := range paths {
		for j, v := range pa.points {
			if d := planar.Distance(v, p); d <= tolerance && d < bestDist {
				best, bestDist = vertexRef{path: i, index: j}, d
			}
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// nearestSegment returns the segment closest to p within tolerance and the
// projection of p on it. The ref index is the one of the segment's end vertex.
func nearestSegment(paths []path, p orb.Point, tolerance float64) (vertexRef, orb.Point, bool) {
	best := vertexRef{}
	var bestPoint orb.Point
	bestDist := math.Inf(1)
	for i, pa := range paths {
		n := len(pa.points)
		if n < 2 {
			continue
		}
		segments := n - 1
		if pa.closed {
			segments = n
		}
		for j := 0; j < segments; j++ {
			a, b := pa.points[j], pa.points[(j+1)%n]
			q := closestOnSegment(a, b, p)
			if d := planar.Distance(q, p); d <= tolerance && d < bestDist {
				best, bestPoint, bestDist = vertexRef{path: i, index: j + 1}, q, d
			}
		}
	}
	return best, bestPoint, !math.IsInf(bestDist, 1)
}

func closestOnSegment(a, b, p orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}

// nearestPoint snaps p to the closest vertex, then the closest edge, of g
func nearestPoint(g orb.Geometry, p orb.Point, tolerance float64, vertex, edge bool) (orb.Point, float64, bool) {
	paths := explode(g)
	if vertex {
		if ref, ok := nearestVertex(paths, p, tolerance); ok {
			v := paths[ref.path].points[ref.index]
			return v, planar.Distance(v, p), true
		}
	}
	if edge {
		if _, q, ok := nearestSegment(paths, p, tolerance); ok {
			return q, planar.Distance(q, p), true
		}
	}
	return p, 0, false
}

// transform returns a transformed copy of g
func transform(g orb.Geometry, fn orb.Projection) orb.Geometry {
	return project.Geometry(orb.Clone(g), fn)
}

func translate(g orb.Geometry, dx, dy float64) orb.Geometry {
	return transform(g, func(p orb.Point) orb.Point {
		return orb.Point{p[0] + dx, p[1] + dy}
	})
}

func scale(g orb.Geometry, origin orb.Point, sx, sy float64) orb.Geometry {
	return transform(g, func(p orb.Point) orb.Point {
		return orb.Point{origin[0] + (p[0]-origin[0])*sx, origin[1] + (p[1]-origin[1])*sy}
	})
}

func rotate(g orb.Geometry, center orb.Point, angle float64) orb.Geometry {
	sin, cos := math.Sincos(angle)
	return transform(g, func(p orb.Point) orb.Point {
		x, y := p[0]-center[0], p[1]-center[1]
		return orb.Point{center[0] + x*cos - y*sin, center[1] + x*sin + y*cos}
	})
}

// firstCoordinate returns the first vertex of g
func firstCoordinate(g orb.Geometry) (orb.Point, bool) {
	for _, p := range explode(g) {
		if len(p.points) > 0 {
			return p.points[0], true
		}
	}
	return orb.Point{}, false
}

// regularPolygon builds a closed polygon centered on center passing through
// p. Two sides or less give a circle.
func regularPolygon(center, p orb.Point, sides int, canRotate bool) orb.Polygon {
	radius := planar.Distance(center, p)
	angle := math.Pi / 4
	if sides <= 2 {
		sides = circleSegments
		angle = 0
	} else if canRotate {
		angle = math.Atan2(p[1]-center[1], p[0]-center[0])
	}
	ring := make(orb.Ring, 0, sides+1)
	for i := 0; i < sides; i++ {
		a := angle + 2*math.Pi*float64(i)/float64(sides)
		ring = append(ring, orb.Point{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func featureBound(features []*geojson.Feature) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			b = f.Geometry.Bound()
			found = true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, found
}

func contains(features []*geojson.Feature, f *geojson.Feature) bool {
	for _, item := range features {
		if item == f {
			return true
		}
	}
	return false
}
