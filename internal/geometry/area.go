// Package geometry summarizes the spatial spread of listings.
package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Area is the spatial summary of one group of listings.
type Area struct {
	Name         string
	Count        int
	Centroid     orb.Point
	Bound        orb.Bound
	NorthSouthKm float64
	EastWestKm   float64
	HullAreaSqKm float64
	Hull         orb.Ring
}

// Summarize computes the centroid, bounding box spread and convex hull of
// points. An empty input yields a zero Area carrying only the name.
func Summarize(name string, points []orb.Point) Area {
	area := Area{Name: name, Count: len(points)}
	if len(points) == 0 {
		return area
	}

	mp := orb.MultiPoint(points)
	area.Centroid, _ = planar.CentroidArea(mp)
	area.Bound = mp.Bound()

	minP, maxP := area.Bound.Min, area.Bound.Max
	area.NorthSouthKm = geo.Distance(orb.Point{minP[0], minP[1]}, orb.Point{minP[0], maxP[1]}) / 1000
	area.EastWestKm = geo.Distance(orb.Point{minP[0], area.Centroid[1]}, orb.Point{maxP[0], area.Centroid[1]}) / 1000

	area.Hull = ConvexHull(points)
	if area.Hull != nil {
		area.HullAreaSqKm = math.Abs(geo.Area(orb.Polygon{area.Hull})) / 1e6
	}
	return area
}

// ConvexHull returns the closed counter-clockwise hull of points, or nil for
// fewer than three distinct points.
func ConvexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] == pts[j][0] {
			return pts[i][1] < pts[j][1]
		}
		return pts[i][0] < pts[j][0]
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return nil
	}

	// Andrew's monotone chain
	hull := make([]orb.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// collinear input collapses to a line
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

// Feature renders the area as GeoJSON: the hull polygon when there is one,
// otherwise the centroid.
func (a Area) Feature() *geojson.Feature {
	var g orb.Geometry = a.Centroid
	if a.Hull != nil {
		g = orb.Polygon{a.Hull}
	}
	f := geojson.NewFeature(g)
	f.Properties = geojson.Properties{
		"name":            a.Name,
		"count":           a.Count,
		"north_south_km":  round2(a.NorthSouthKm),
		"east_west_km":    round2(a.EastWestKm),
		"hull_area_sq_km": round2(a.HullAreaSqKm),
	}
	return f
}

// Collection bundles areas into one feature collection.
func Collection(areas []Area) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range areas {
		if a.Count == 0 {
			continue
		}
		fc.Append(a.Feature())
	}
	return fc
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func dedupe(sorted []orb.Point) []orb.Point {
	out := sorted[:0]
	for _, p := range sorted {
		if len(out) == 0 || !p.Equal(out[len(out)-1]) {
			out = append(out, p)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
