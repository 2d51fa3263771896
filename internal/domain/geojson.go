package domain

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds either a Point ([lng, lat]) or a Polygon ([][][lng, lat]).
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// FootprintGeoJSON renders the ground-zero point and the rings of an impact
// as a feature collection, point first then rings innermost first.
func FootprintGeoJSON(center LngLat, rings []FootprintRing) FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(rings)+1),
	}
	fc.Features = append(fc.Features, Feature{
		Type:       "Feature",
		Geometry:   Geometry{Type: "Point", Coordinates: []float64{center.Lng, center.Lat}},
		Properties: map[string]any{"kind": "ground_zero"},
	})
	for _, r := range rings {
		ring := make([][]float64, len(r.Coordinates))
		for i, c := range r.Coordinates {
			ring[i] = []float64{c.Lng, c.Lat}
		}
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: Geometry{Type: "Polygon", Coordinates: [][][]float64{ring}},
			Properties: map[string]any{
				"kind":         "ring",
				"ring":         r.Index,
				"fraction":     r.Fraction,
				"fill_color":   r.Style.FillColor,
				"border_color": r.Style.BorderColor,
				"border_width": r.Style.BorderWidth,
				"max_extent_m": r.MaxExtentMeters(center),
			},
		})
	}
	return fc
}
