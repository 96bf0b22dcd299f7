package annotation

import "math"

const (
	// ArrowHeadLength is the fixed length of each arrow head segment.
	ArrowHeadLength = 15.0
	// ArrowHeadAngle is the angular offset of each head segment from the
	// reversed direction of the main segment.
	ArrowHeadAngle = 30.0 * math.Pi / 180.0

	// textLineHeightFactor approximates the hit box height of a single-line
	// text annotation relative to its font size.
	textLineHeightFactor = 1.4
)

// CircleGeometry is the shape derived from a drag gesture.
type CircleGeometry struct {
	CenterX float64
	CenterY float64
	RadiusX float64
	RadiusY float64
	Radius  float64
	ScaleX  float64
	ScaleY  float64
}

// CircleFromDrag computes an ellipse from the gesture anchor and the current
// pointer position. The dominant radius is stored with independent per-axis
// scale factors so the shape can be elliptical.
func CircleFromDrag(anchor, current Point) CircleGeometry {
	dx := current.X - anchor.X
	dy := current.Y - anchor.Y

	g := CircleGeometry{
		CenterX: anchor.X + dx/2,
		CenterY: anchor.Y + dy/2,
		RadiusX: math.Abs(dx) / 2,
		RadiusY: math.Abs(dy) / 2,
		ScaleX:  1,
		ScaleY:  1,
	}
	g.Radius = math.Max(g.RadiusX, g.RadiusY)
	if g.Radius > 0 {
		g.ScaleX = g.RadiusX / g.Radius
		g.ScaleY = g.RadiusY / g.Radius
	}
	return g
}

// ArrowHeads computes the two fixed-length head segments for a finalized
// arrow. Each head runs from the tip at ±ArrowHeadAngle off the reversed
// direction of the main segment.
func ArrowHeads(x1, y1, x2, y2 float64) [2]Segment {
	theta := math.Atan2(y2-y1, x2-x1)
	back := theta + math.Pi

	var heads [2]Segment
	for i, offset := range [2]float64{-ArrowHeadAngle, ArrowHeadAngle} {
		angle := back + offset
		heads[i] = Segment{
			X1: x2,
			Y1: y2,
			X2: x2 + ArrowHeadLength*math.Cos(angle),
			Y2: y2 + ArrowHeadLength*math.Sin(angle),
		}
	}
	return heads
}

// DistanceToSegment returns the distance from p to the closest point on the
// segment (x1,y1)-(x2,y2).
func DistanceToSegment(p Point, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-x1, p.Y-y1)
	}
	t := ((p.X-x1)*dx + (p.Y-y1)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(x1+t*dx), p.Y-(y1+t*dy))
}

// pointNearPolyline reports whether p lies within tol of any segment of the
// polyline.
func pointNearPolyline(p Point, points []Point, tol float64) bool {
	if len(points) == 1 {
		return math.Hypot(p.X-points[0].X, p.Y-points[0].Y) <= tol
	}
	for i := 1; i < len(points); i++ {
		if DistanceToSegment(p, points[i-1].X, points[i-1].Y, points[i].X, points[i].Y) <= tol {
			return true
		}
	}
	return false
}

// HitTest reports whether p hits obj. Strokes and arrows match within a
// tolerance of their segments scaled by stroke width; circles match their
// interior; text boxes match their bounding rectangle.
func HitTest(obj Object, p Point) bool {
	switch o := obj.(type) {
	case *Stroke:
		return pointNearPolyline(p, o.Points, hitTolerance(o.Width))
	case *HighlightStroke:
		return pointNearPolyline(p, o.Points, hitTolerance(o.Width))
	case *TextBox:
		h := o.FontSize * textLineHeightFactor
		return p.X >= o.X && p.X <= o.X+o.Width && p.Y >= o.Y && p.Y <= o.Y+h
	case *Circle:
		if o.RadiusX == 0 || o.RadiusY == 0 {
			return DistanceToSegment(p, o.CenterX-o.RadiusX, o.CenterY-o.RadiusY,
				o.CenterX+o.RadiusX, o.CenterY+o.RadiusY) <= hitTolerance(o.StrokeWidth)
		}
		nx := (p.X - o.CenterX) / o.RadiusX
		ny := (p.Y - o.CenterY) / o.RadiusY
		return nx*nx+ny*ny <= 1
	case *Arrow:
		tol := hitTolerance(o.StrokeWidth)
		if DistanceToSegment(p, o.X1, o.Y1, o.X2, o.Y2) <= tol {
			return true
		}
		for _, h := range o.Heads {
			if DistanceToSegment(p, h.X1, h.Y1, h.X2, h.Y2) <= tol {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func hitTolerance(strokeWidth float64) float64 {
	return math.Max(4, strokeWidth/2+2)
}
