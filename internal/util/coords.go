package util

import "github.com/paulmach/orb"

// Rewind orients polygon rings after the right-hand rule: exterior rings
// counterclockwise, holes clockwise. Rings are reversed in place.
func Rewind(g orb.Geometry) orb.Geometry {
	switch g := g.(type) {
	case orb.Polygon:
		rewindPolygon(g)
	case orb.MultiPolygon:
		for _, p := range g {
			rewindPolygon(p)
		}
	case orb.Collection:
		for i := range g {
			g[i] = Rewind(g[i])
		}
	}
	return g
}

func rewindPolygon(p orb.Polygon) {
	for i, r := range p {
		want := orb.CW
		if i == 0 {
			want = orb.CCW
		}
		if o := r.Orientation(); o != 0 && o != want {
			r.Reverse()
		}
	}
}

// CleanCoords removes duplicate consecutive coordinates. Rings stay closed and
// a ring or line that would degenerate is returned unchanged.
func CleanCoords(g orb.Geometry) orb.Geometry {
	switch g := g.(type) {
	case orb.MultiPoint:
		out := make(orb.MultiPoint, 0, len(g))
		seen := make(map[orb.Point]struct{}, len(g))
		for _, p := range g {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
		return out
	case orb.LineString:
		return cleanLine(g)
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			out[i] = cleanLine(ls)
		}
		return out
	case orb.Polygon:
		return cleanPolygon(g)
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = cleanPolygon(p)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i := range g {
			out[i] = CleanCoords(g[i])
		}
		return out
	}
	return g
}

func dedupe(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(pts))
	for i, p := range pts {
		if i > 0 && p.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func cleanLine(ls orb.LineString) orb.LineString {
	out := dedupe(ls)
	if len(out) < 2 {
		return ls
	}
	return orb.LineString(out)
}

func cleanPolygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, r := range p {
		c := dedupe(r)
		if len(c) > 0 && !c[0].Equal(c[len(c)-1]) {
			c = append(c, c[0])
		}
		if len(c) < 4 {
			out[i] = r
			continue
		}
		out[i] = orb.Ring(c)
	}
	return out
}
