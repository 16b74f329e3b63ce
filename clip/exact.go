package clip

import (
	"sort"

	"github.com/swdee/go-objsize/geometry"
	"gonum.org/v1/gonum/spatial/r2"
)

// minInterval is the parametric length below which adjacent crossings are
// treated as the same point
const minInterval = 1e-9

// Exact clips the segment against the polygon edges analytically and returns
// the longest continuous piece inside the polygon.  Unlike Raster it needs no
// frame size and picks the true extremal crossings on concave shapes.
type Exact struct{}

// Clip returns the longest inside sub-segment of seg
func (Exact) Clip(seg geometry.Segment, poly geometry.Polygon) (geometry.Segment, bool) {

	if len(poly) < 3 || seg.Degenerate() {
		return geometry.Segment{}, false
	}

	d := r2.Sub(seg.B, seg.A)
	ts := []float64{0, 1}

	// collect the parameter of every crossing with a polygon edge
	for i := range poly {
		p := poly[i]
		e := r2.Sub(poly[(i+1)%len(poly)], p)
		ap := r2.Sub(p, seg.A)
		denom := r2.Cross(d, e)

		if denom == 0 {
			// parallel edge, if collinear its end points bound an interval
			if r2.Cross(ap, d) == 0 {
				dd := r2.Dot(d, d)
				ts = append(ts, r2.Dot(ap, d)/dd, r2.Dot(r2.Add(ap, e), d)/dd)
			}
			continue
		}

		t := r2.Cross(ap, e) / denom
		s := r2.Cross(ap, d) / denom

		if s >= 0 && s <= 1 {
			ts = append(ts, t)
		}
	}

	sort.Float64s(ts)

	bestStart, bestEnd := 0.0, 0.0
	runStart, inRun := 0.0, false
	prev := 0.0

	// walk the intervals between crossings, merging adjacent inside pieces
	for _, t := range ts {
		if t <= prev+minInterval {
			continue
		}

		if t > 1 {
			t = 1
		}

		inside := poly.Contains(seg.At((prev+t)/2), 0)

		switch {
		case inside && !inRun:
			runStart, inRun = prev, true
		case !inside && inRun:
			inRun = false
		}

		if inRun && t-runStart > bestEnd-bestStart {
			bestStart, bestEnd = runStart, t
		}

		prev = t

		if prev >= 1 {
			break
		}
	}

	if bestEnd-bestStart <= minInterval {
		return geometry.Segment{}, false
	}

	return geometry.Seg(seg.At(bestStart), seg.At(bestEnd)), true
}
