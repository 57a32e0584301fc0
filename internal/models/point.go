package models

import "math"

// Point is a pixel coordinate, or downstream a deviation from the frame center.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite numbers.
func (p Point) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// PointPair holds the two representative object points of one camera.
// Lower is the point with the larger y coordinate (visually lower in the frame).
type PointPair struct {
	Lower Point `json:"lower"`
	Upper Point `json:"upper"`
}

// NormalizePair orders two detected points into a PointPair independent of
// detection order. Equal heights are broken by x so the result stays stable.
func NormalizePair(a, b Point) PointPair {
	if a.Y > b.Y || (a.Y == b.Y && a.X <= b.X) {
		return PointPair{Lower: a, Upper: b}
	}
	return PointPair{Lower: b, Upper: a}
}

// PairFromPoints builds a normalized pair from up to two detected points.
// A single point is used for both positions. It reports false when no point
// was detected, in which case the caller keeps the previous pair.
func PairFromPoints(points []Point) (PointPair, bool) {
	switch len(points) {
	case 0:
		return PointPair{}, false
	case 1:
		return PointPair{Lower: points[0], Upper: points[0]}, true
	default:
		return NormalizePair(points[0], points[1]), true
	}
}
