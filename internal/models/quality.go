package models

import "fmt"

// Quality is a frame resolution preset.
type Quality string

const (
	QualityLowest  Quality = "144p"
	QualityLow     Quality = "240p"
	QualityMedium  Quality = "360p"
	QualityHigh    Quality = "480p"
	QualityHighest Quality = "720p"
)

var qualityDimensions = map[Quality][2]int{
	QualityLowest:  {256, 144},
	QualityLow:     {352, 240},
	QualityMedium:  {480, 360},
	QualityHigh:    {640, 480},
	QualityHighest: {1280, 720},
}

// Dimensions returns the frame width and height of the preset.
// Unknown presets fall back to 720p.
func (q Quality) Dimensions() (width, height int) {
	d, ok := qualityDimensions[q]
	if !ok {
		d = qualityDimensions[QualityHighest]
	}
	return d[0], d[1]
}

// Center returns the frame center point for the preset.
func (q Quality) Center() Point {
	w, h := q.Dimensions()
	return Point{X: float64(w) / 2, Y: float64(h) / 2}
}

// ParseQuality accepts both the resolution form ("720p") and the legacy
// enum names stored by older presets ("HIGHEST").
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "144p", "LOWEST":
		return QualityLowest, nil
	case "240p", "LOW":
		return QualityLow, nil
	case "360p", "MEDIUM":
		return QualityMedium, nil
	case "480p", "HIGH":
		return QualityHigh, nil
	case "720p", "HIGHEST":
		return QualityHighest, nil
	}
	return "", fmt.Errorf("unknown video quality %q", s)
}
