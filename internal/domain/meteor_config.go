package domain

import (
	"fmt"
	"time"
)

// MeteorConfig is the flat record a user edits on the configuration page.
// Zero numeric fields mean "unset".
type MeteorConfig struct {
	DiameterMeters     float64   `json:"diameter_m,omitempty"`
	VelocityKmPerSec   float64   `json:"velocity_km_s,omitempty"`
	ImpactAngleDegrees float64   `json:"angle_deg,omitempty"`
	DensityKgPerM3     float64   `json:"density_kg_m3,omitempty"`
	Material           Material  `json:"material,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitzero"`
}

// DefaultMeteorConfig is a 10 km dense-rock body at 20 km/s and 45°.
func DefaultMeteorConfig() MeteorConfig {
	return MeteorConfig{
		DiameterMeters:     10000,
		VelocityKmPerSec:   20,
		ImpactAngleDegrees: 45,
		DensityKgPerM3:     3000,
		Material:           MaterialDenseRock,
	}
}

// Parameters extracts the model inputs.
func (c MeteorConfig) Parameters() MeteorParameters {
	return MeteorParameters{
		DiameterMeters:     c.DiameterMeters,
		VelocityKmPerSec:   c.VelocityKmPerSec,
		ImpactAngleDegrees: c.ImpactAngleDegrees,
		DensityKgPerM3:     c.DensityKgPerM3,
	}
}

// Validate checks the parameters and that the material, if set, is known.
func (c MeteorConfig) Validate(consts PhysicalConstants) error {
	if c.Material != "" {
		if _, ok := consts.DensityFor(c.Material); !ok {
			return fmt.Errorf("%w: unknown material %q", ErrInvalidParameter, c.Material)
		}
	}
	return c.Parameters().Validate()
}

// Normalize returns a usable record. If any numeric field is missing or
// invalid the whole record is replaced by the defaults; otherwise a missing
// material is inferred from the density.
func (c MeteorConfig) Normalize(consts PhysicalConstants) MeteorConfig {
	for _, v := range []float64{c.DiameterMeters, c.VelocityKmPerSec, c.ImpactAngleDegrees, c.DensityKgPerM3} {
		if !isPositiveFinite(v) {
			d := DefaultMeteorConfig()
			d.UpdatedAt = c.UpdatedAt
			return d
		}
	}
	if c.Material == "" {
		c.Material = consts.MaterialFor(c.DensityKgPerM3)
	}
	return c
}

// Overlay applies the set fields of o on top of c. A material without an
// explicit density takes its density from the table, and a density without
// a material clears the label so Normalize can infer it again.
func (c MeteorConfig) Overlay(o MeteorConfig, consts PhysicalConstants) MeteorConfig {
	if o.DiameterMeters != 0 {
		c.DiameterMeters = o.DiameterMeters
	}
	if o.VelocityKmPerSec != 0 {
		c.VelocityKmPerSec = o.VelocityKmPerSec
	}
	if o.ImpactAngleDegrees != 0 {
		c.ImpactAngleDegrees = o.ImpactAngleDegrees
	}
	switch {
	case o.DensityKgPerM3 != 0:
		c.DensityKgPerM3 = o.DensityKgPerM3
		c.Material = o.Material
	case o.Material != "":
		c.Material = o.Material
		if d, ok := consts.DensityFor(o.Material); ok {
			c.DensityKgPerM3 = d
		}
	}
	return c
}

// MeteorOverride is a per-request change to the stored record. Nil fields
// keep the stored value; present fields replace it even when zero, so they
// still go through validation.
type MeteorOverride struct {
	DiameterMeters     *float64 `json:"diameter_m,omitempty"`
	VelocityKmPerSec   *float64 `json:"velocity_km_s,omitempty"`
	ImpactAngleDegrees *float64 `json:"angle_deg,omitempty"`
	DensityKgPerM3     *float64 `json:"density_kg_m3,omitempty"`
	Material           Material `json:"material,omitempty"`
}

// Apply returns c with the present fields of o. Material and density follow
// the same rules as Overlay.
func (c MeteorConfig) Apply(o MeteorOverride, consts PhysicalConstants) MeteorConfig {
	if o.DiameterMeters != nil {
		c.DiameterMeters = *o.DiameterMeters
	}
	if o.VelocityKmPerSec != nil {
		c.VelocityKmPerSec = *o.VelocityKmPerSec
	}
	if o.ImpactAngleDegrees != nil {
		c.ImpactAngleDegrees = *o.ImpactAngleDegrees
	}
	switch {
	case o.DensityKgPerM3 != nil:
		c.DensityKgPerM3 = *o.DensityKgPerM3
		c.Material = o.Material
	case o.Material != "":
		c.Material = o.Material
		if d, ok := consts.DensityFor(o.Material); ok {
			c.DensityKgPerM3 = d
		}
	}
	return c
}
