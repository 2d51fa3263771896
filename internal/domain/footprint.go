package domain

import "math"

const (
	// RingCount is the number of iso-intensity rings per impact.
	RingCount = 5
	// RingSamples is the number of sampled vertices per ring, before the
	// closing vertex is appended.
	RingSamples = 90

	metersPerDegreeLng = 111320.0 // at the equator, scaled by cos(lat)
	metersPerDegreeLat = 110540.0
)

// LngLat is a WGS-84 point in degrees, longitude first as in GeoJSON.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// RingStyle is the fill and border paint of one ring.
type RingStyle struct {
	FillColor   string  `json:"fill_color"`
	BorderColor string  `json:"border_color"`
	BorderWidth float64 `json:"border_width"`
}

var ringFractions = [RingCount]float64{0.2, 0.4, 0.6, 0.8, 1.0}

// Strongest at the innermost ring.
var ringPalette = [RingCount]RingStyle{
	{FillColor: "rgba(255,255,255,0.35)", BorderColor: "rgba(255,255,255,0.7)", BorderWidth: 3},
	{FillColor: "rgba(255,87,34,0.25)", BorderColor: "rgba(255,87,34,0.7)", BorderWidth: 3},
	{FillColor: "rgba(255,152,0,0.18)", BorderColor: "rgba(255,152,0,0.7)", BorderWidth: 3},
	{FillColor: "rgba(255,193,7,0.13)", BorderColor: "rgba(255,193,7,0.7)", BorderWidth: 3},
	{FillColor: "rgba(255,255,255,0.10)", BorderColor: "rgba(255,255,255,0.3)", BorderWidth: 3},
}

// FootprintRing is one closed iso-intensity polygon.
type FootprintRing struct {
	Index       int       `json:"index"`
	Fraction    float64   `json:"fraction"`
	Style       RingStyle `json:"style"`
	Coordinates []LngLat  `json:"coordinates"`
}

// AxesRatio is the minor/major axes ratio of the footprint ellipse:
// 0.4 for a grazing impact, 1.0 for a vertical one.
func AxesRatio(angleDeg float64) float64 {
	return 0.4 + 0.6*(angleDeg/90)
}

// CenterOffset is the shift of the ellipse center along its major axis, in
// semi-major axes. Zero for a vertical impact, -1 for a grazing one.
func CenterOffset(angleDeg float64) float64 {
	return -math.Cos(angleDeg * math.Pi / 180)
}

// ProjectFootprint returns the five rings of an impact at center, innermost
// first. A zero radius yields five degenerate rings collapsed on center.
func ProjectFootprint(center LngLat, radiusMeters, angleDeg float64) []FootprintRing {
	k := AxesRatio(angleDeg)
	offset := CenterOffset(angleDeg)
	angleRad := angleDeg * math.Pi / 180
	sinA, cosA := math.Sin(angleRad), math.Cos(angleRad)
	lngScale := metersPerDegreeLng * math.Cos(center.Lat*math.Pi/180)

	rings := make([]FootprintRing, RingCount)
	for i, fraction := range ringFractions {
		a := radiusMeters * fraction
		b := radiusMeters * k * fraction

		coords := make([]LngLat, 0, RingSamples+1)
		for j := 0; j < RingSamples; j++ {
			theta := float64(j) / RingSamples * 2 * math.Pi
			x := a*math.Cos(theta) + offset*a
			y := b * math.Sin(theta)
			xr := x*cosA - y*sinA
			yr := x*sinA + y*cosA
			coords = append(coords, LngLat{
				Lng: center.Lng + xr/lngScale,
				Lat: center.Lat + yr/metersPerDegreeLat,
			})
		}
		coords = append(coords, coords[0])

		rings[i] = FootprintRing{
			Index:       i,
			Fraction:    fraction,
			Style:       ringPalette[i],
			Coordinates: coords,
		}
	}
	return rings
}

// MaxExtentMeters is the largest planar distance from center to any vertex
// of the ring, inverting the flat-Earth conversion.
func (r FootprintRing) MaxExtentMeters(center LngLat) float64 {
	lngScale := metersPerDegreeLng * math.Cos(center.Lat*math.Pi/180)
	var maxDist float64
	for _, c := range r.Coordinates {
		dx := (c.Lng - center.Lng) * lngScale
		dy := (c.Lat - center.Lat) * metersPerDegreeLat
		if d := math.Hypot(dx, dy); d > maxDist {
			maxDist = d
		}
	}
	return maxDist
}
