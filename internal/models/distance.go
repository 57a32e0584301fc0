package models

import "time"

// DistanceResult is the per-tick output of a triangulation session.
type DistanceResult struct {
	DistanceLower  float64   `json:"distance_lower"`
	DistanceUpper  float64   `json:"distance_upper"`
	ProximityEvent bool      `json:"proximity_event"`
	MeasuredAt     time.Time `json:"measured_at"`
}

// ProximityEvent reports whether the upper reference point is farther than
// the lower one. Equal distances are not an event.
func ProximityEvent(distanceLower, distanceUpper float64) bool {
	return distanceUpper > distanceLower
}
