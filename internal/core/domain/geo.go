package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether p lies inside b, edges included.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lon >= b.MinLon && p.Lon <= b.MaxLon &&
		p.Lat >= b.MinLat && p.Lat <= b.MaxLat
}

// GridCell is an integer offset from a search origin, in grid units.
type GridCell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns the Euclidean length of the offset scaled by resolution.
func (c GridCell) Distance(resolution float64) float64 {
	dx := float64(c.X) * resolution
	dy := float64(c.Y) * resolution
	return math.Sqrt(dx*dx + dy*dy)
}
