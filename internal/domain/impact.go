package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParameter is returned when a meteor parameter is non-finite,
// non-positive, or the impact angle falls outside (0, 90].
var ErrInvalidParameter = errors.New("invalid parameter")

// MeteorParameters are the physical inputs of the impact model.
type MeteorParameters struct {
	DiameterMeters     float64 `json:"diameter_m"`
	VelocityKmPerSec   float64 `json:"velocity_km_s"`
	ImpactAngleDegrees float64 `json:"angle_deg"`
	DensityKgPerM3     float64 `json:"density_kg_m3"`
}

// Validate reports the first parameter that would make the model produce a
// physically meaningless result.
func (p MeteorParameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"diameter_m", p.DiameterMeters},
		{"velocity_km_s", p.VelocityKmPerSec},
		{"angle_deg", p.ImpactAngleDegrees},
		{"density_kg_m3", p.DensityKgPerM3},
	}
	for _, f := range fields {
		if !isPositiveFinite(f.value) {
			return fmt.Errorf("%w: %s must be finite and positive, got %v", ErrInvalidParameter, f.name, f.value)
		}
	}
	if p.ImpactAngleDegrees > 90 {
		return fmt.Errorf("%w: angle_deg must be at most 90, got %v", ErrInvalidParameter, p.ImpactAngleDegrees)
	}
	return nil
}

// ImpactOutcome is derived from MeteorParameters and never mutated.
type ImpactOutcome struct {
	EnergyMegatons          float64 `json:"energy_megatons"`
	MassTonnes              float64 `json:"mass_tonnes"`
	DevastationRadiusMeters float64 `json:"devastation_radius_m"`
	DevastationRadiusKm     float64 `json:"devastation_radius_km"`
}

// Model evaluates the impact equations against a fixed set of constants.
// It holds no mutable state and is safe for concurrent use.
type Model struct {
	constants PhysicalConstants
}

// NewModel creates a Model bound to the given constants.
func NewModel(c PhysicalConstants) *Model {
	return &Model{constants: c}
}

// Constants returns the constants the model was built with.
func (m *Model) Constants() PhysicalConstants {
	return m.constants
}

// Compute validates p and evaluates the model.
func (m *Model) Compute(p MeteorParameters) (ImpactOutcome, error) {
	if err := p.Validate(); err != nil {
		return ImpactOutcome{}, err
	}
	return computeImpact(m.constants, p), nil
}

// ComputeImpact evaluates the model with the default constants and no input
// checks: invalid inputs yield NaN or zero outputs. Prefer Model.Compute
// unless p is already validated.
func ComputeImpact(p MeteorParameters) ImpactOutcome {
	return computeImpact(DefaultConstants(), p)
}

func computeImpact(c PhysicalConstants, p MeteorParameters) ImpactOutcome {
	r := p.DiameterMeters / 2
	massKg := (4.0 / 3.0) * math.Pi * math.Pow(r, 3) * p.DensityKgPerM3
	velocityMps := p.VelocityKmPerSec * 1000
	angleRad := p.ImpactAngleDegrees * math.Pi / 180

	craterDiameter := 1.161 *
		math.Pow(p.DensityKgPerM3/c.TargetDensity, 1.0/3.0) *
		math.Pow(p.DiameterMeters, 0.78) *
		math.Pow(velocityMps, 0.44) *
		math.Pow(c.Gravity, -0.22) *
		math.Pow(math.Sin(angleRad), 1.0/3.0)
	radius := craterDiameter / 2

	return ImpactOutcome{
		EnergyMegatons:          0.5 * massKg * velocityMps * velocityMps / c.JoulesPerMegaton,
		MassTonnes:              massKg / 1000,
		DevastationRadiusMeters: radius,
		DevastationRadiusKm:     radius / 1000,
	}
}
