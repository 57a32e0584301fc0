// Package triangulation converts the object points seen by both cameras into
// physical distances.
package triangulation

import (
	"errors"
	"fmt"
	"math"

	"stereovision/internal/models"
)

var (
	// ErrUnknownMethod is a configuration error: the model selector is neither 1 nor 2.
	ErrUnknownMethod = errors.New("unknown triangulation method")
	// ErrDegenerateGeometry marks inputs for which a model has no finite answer.
	ErrDegenerateGeometry = errors.New("degenerate triangulation geometry")
)

// Deviation returns the absolute offset of p from the frame center.
func Deviation(center, p models.Point) models.Point {
	return models.Point{
		X: math.Abs(center.X - p.X),
		Y: math.Abs(center.Y - p.Y),
	}
}

const (
	degreesPerRadian = 180 / math.Pi
	radiansPerDegree = math.Pi / 180
)

func degrees(rad float64) float64 { return rad * degreesPerRadian }
func radians(deg float64) float64 { return deg * radiansPerDegree }

// FocalLength computes the distance from two deviation points using the
// focal length f and the baseline d.
//
// With vertical accounting the result is r / cos(90 - atan(dy/r)) where the
// 90 is fed to cos as radians, exactly as the reference calculator does.
func FocalLength(p1, p2 models.Point, f, d float64, vertical bool) (float64, error) {
	alpha := 90 - degrees(math.Atan(p1.X/f))
	beta := 90 - degrees(math.Atan(p2.X/f))
	gamma := 180 - alpha - beta

	sinGamma := math.Sin(radians(gamma))
	if gamma == 0 || sinGamma == 0 {
		return 0, fmt.Errorf("%w: gamma is zero", ErrDegenerateGeometry)
	}

	m := math.Sin(radians(alpha)) * d / sinGamma
	r := math.Sqrt(math.Pow(d/2, 2) + math.Pow(m, 2) - d*m*math.Cos(radians(beta)))
	if !vertical {
		return finite(r)
	}

	dy := (p1.Y + p2.Y) / 2
	return finite(r / math.Cos(90-math.Atan(dy/r)))
}

// PixelRatio computes the distance from two deviation points using the
// degrees-per-pixel ratio, the baseline d and the frame center x.
func PixelRatio(p1, p2 models.Point, ratio, d, cx float64, vertical bool) (float64, error) {
	scale := cx * ratio
	if scale == 0 {
		return 0, fmt.Errorf("%w: zero pixel scale", ErrDegenerateGeometry)
	}

	alpha := 90 - p1.X/scale
	beta := 90 - p2.X/scale
	gamma := 180 - alpha - beta

	sinGamma := math.Sin(radians(gamma))
	if gamma == 0 || sinGamma == 0 {
		return 0, fmt.Errorf("%w: gamma is zero", ErrDegenerateGeometry)
	}

	alphaY := 0.0
	if vertical {
		alphaY = (p1.Y + p2.Y) / 2 / scale
	}

	side := d / sinGamma
	b := side * math.Sin(radians(beta)) / math.Cos(radians(alphaY))
	c := side * math.Sin(radians(alpha)) / math.Cos(radians(alphaY))
	return finite(0.5 * math.Sqrt(2*b*b+2*c*c-d*d))
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: result is %v", ErrDegenerateGeometry, v)
	}
	return v, nil
}

// Distance runs the model chosen by calib.Method on one pair of raw pixel
// points, first converting them to deviations from center.
func Distance(calib models.CalibrationParams, center, first, second models.Point) (float64, error) {
	p1 := Deviation(center, first)
	p2 := Deviation(center, second)

	switch calib.Method {
	case models.MethodFocalLength:
		return FocalLength(p1, p2, calib.FocalLength, calib.Baseline, calib.VerticalAccounting)
	case models.MethodPixelRatio:
		return PixelRatio(p1, p2, calib.Ratio, calib.Baseline, center.X, calib.VerticalAccounting)
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownMethod, calib.Method)
	}
}

// Measure triangulates the lower and upper point pairs of both cameras.
func Measure(calib models.CalibrationParams, first, second models.PointPair) (lower, upper float64, err error) {
	center := calib.Quality.Center()

	lower, err = Distance(calib, center, first.Lower, second.Lower)
	if err != nil {
		return 0, 0, fmt.Errorf("lower point: %w", err)
	}
	upper, err = Distance(calib, center, first.Upper, second.Upper)
	if err != nil {
		return 0, 0, fmt.Errorf("upper point: %w", err)
	}
	return lower, upper, nil
}
