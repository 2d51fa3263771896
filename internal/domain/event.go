package domain

import (
	"time"

	"github.com/google/uuid"
)

// StrikeRequest asks for an impact at Center, or at the place named by
// Place when Center is nil. Meteor fields override the stored configuration.
type StrikeRequest struct {
	Center *LngLat         `json:"center,omitempty"`
	Place  string          `json:"place,omitempty"`
	Meteor *MeteorOverride `json:"meteor,omitempty"`
}

// NarrateRequest asks for a narrative of an impact at Center.
type NarrateRequest struct {
	Center LngLat          `json:"center"`
	Meteor *MeteorOverride `json:"meteor,omitempty"`
}

// ImpactEvent is one simulated strike: its inputs, its outcome, and the
// geometry a map client needs to draw it.
type ImpactEvent struct {
	ID           string           `json:"id"`
	Sequence     uint64           `json:"sequence"`
	Center       LngLat           `json:"center"`
	Place        string           `json:"place,omitempty"`
	Material     Material         `json:"material"`
	Parameters   MeteorParameters `json:"parameters"`
	Outcome      ImpactOutcome    `json:"outcome"`
	AxesRatio    float64          `json:"axes_ratio"`
	CenterOffset float64          `json:"center_offset"`
	Rings        []FootprintRing  `json:"rings"`
	Render       RenderPlan       `json:"render"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewImpactEvent computes the footprint for an outcome and stamps the event.
// Sequence and Render are assigned by the caller that owns the counter.
func NewImpactEvent(center LngLat, cfg MeteorConfig, outcome ImpactOutcome) ImpactEvent {
	angle := cfg.ImpactAngleDegrees
	return ImpactEvent{
		ID:           uuid.NewString(),
		Center:       center,
		Material:     cfg.Material,
		Parameters:   cfg.Parameters(),
		Outcome:      outcome,
		AxesRatio:    AxesRatio(angle),
		CenterOffset: CenterOffset(angle),
		Rings:        ProjectFootprint(center, outcome.DevastationRadiusMeters, angle),
		CreatedAt:    clock.Now(),
	}
}

// GeoJSON renders the event's footprint.
func (e ImpactEvent) GeoJSON() FeatureCollection {
	return FootprintGeoJSON(e.Center, e.Rings)
}
