package vision

import (
	"image"
	"sort"

	"stereovision/internal/models"
)

// MaxObjects caps the number of contours turned into points per frame.
const MaxObjects = 2

// Moments are the spatial moments of a closed polygon.
type Moments struct {
	M00, M10, M01 float64
}

// ContourMoments computes the zeroth and first order moments of the polygon
// outlined by pts, the same way OpenCV does for point sets.
func ContourMoments(pts []image.Point) Moments {
	if len(pts) < 3 {
		return Moments{}
	}

	var a00, a10, a01 float64
	prev := pts[len(pts)-1]
	for _, p := range pts {
		xp, yp := float64(prev.X), float64(prev.Y)
		x, y := float64(p.X), float64(p.Y)
		dxy := xp*y - x*yp
		a00 += dxy
		a10 += dxy * (xp + x)
		a01 += dxy * (yp + y)
		prev = p
	}

	m := Moments{M00: a00 / 2, M10: a10 / 6, M01: a01 / 6}
	if m.M00 < 0 {
		m = Moments{M00: -m.M00, M10: -m.M10, M01: -m.M01}
	}
	return m
}

// Centroid returns (M10/M00, M01/M00). A zero-area polygon has no centroid.
func (m Moments) Centroid() (models.Point, bool) {
	if m.M00 == 0 {
		return models.Point{}, false
	}
	p := models.Point{X: m.M10 / m.M00, Y: m.M01 / m.M00}
	return p, p.Valid()
}

// Candidate is a contour that produced a centroid.
type Candidate struct {
	Index    int
	Area     float64
	Centroid models.Point
}

// SelectCandidates takes the largest contours, skipping zero-area ones,
// and returns at most limit candidates ordered by decreasing area.
func SelectCandidates(contours [][]image.Point, limit int) []Candidate {
	candidates := make([]Candidate, 0, len(contours))
	for i, pts := range contours {
		m := ContourMoments(pts)
		c, ok := m.Centroid()
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Index: i, Area: m.M00, Centroid: c})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Area > candidates[j].Area
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
