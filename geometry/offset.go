package geometry

import (
	clipper "github.com/ctessum/go.clipper"
)

// offsetScale is the fixed point multiplier applied before handing points to
// clipper which only works on integer coordinates
const offsetScale = 100

// Offset grows (delta > 0) or shrinks (delta < 0) the polygon by delta
// pixels using rounded joins.  Segmentation masks tend to bleed past the
// true object edge, a small negative delta compensates for that.  When the
// offset splits the polygon the largest piece is returned, and when it
// consumes the polygon entirely nil is returned.
func Offset(poly Polygon, delta float64) Polygon {
	if delta == 0 || len(poly) < 3 {
		return poly
	}

	// convert the polygon points to a Clipper Path
	var path clipper.Path

	for _, pt := range poly {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X * offsetScale),
			Y: clipper.CInt(pt.Y * offsetScale),
		})
	}

	co := clipper.NewClipperOffset()
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(delta * offsetScale)

	var best Polygon
	bestArea := 0.0

	for _, sol := range solution {
		out := make(Polygon, 0, len(sol))

		for _, pt := range sol {
			out = append(out, Pt(float64(pt.X)/offsetScale, float64(pt.Y)/offsetScale))
		}

		if area := out.Area(); area > bestArea {
			best = out
			bestArea = area
		}
	}

	return best
}
