package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Material is an impactor composition label.
type Material string

const (
	MaterialIron       Material = "iron"
	MaterialIce        Material = "ice"
	MaterialDenseRock  Material = "dense_rock"
	MaterialPorousRock Material = "porous_rock"
)

// PhysicalConstants holds the constants of the impact model and the
// material density table (kg/m³).
type PhysicalConstants struct {
	Gravity          float64              `json:"gravity" yaml:"gravity"`
	TargetDensity    float64              `json:"target_density" yaml:"target_density"`
	JoulesPerMegaton float64              `json:"joules_per_megaton" yaml:"joules_per_megaton"`
	Materials        map[Material]float64 `json:"materials" yaml:"materials"`
}

// DefaultConstants returns Earth gravity, a generic rock target and the
// standard four-material table.
func DefaultConstants() PhysicalConstants {
	return PhysicalConstants{
		Gravity:          9.81,
		TargetDensity:    2750,
		JoulesPerMegaton: 4.184e15,
		Materials: map[Material]float64{
			MaterialIron:       7800,
			MaterialIce:        900,
			MaterialDenseRock:  3200,
			MaterialPorousRock: 2200,
		},
	}
}

// Validate checks that every constant is finite and positive.
func (c PhysicalConstants) Validate() error {
	for name, v := range map[string]float64{
		"gravity":            c.Gravity,
		"target_density":     c.TargetDensity,
		"joules_per_megaton": c.JoulesPerMegaton,
	} {
		if !isPositiveFinite(v) {
			return fmt.Errorf("constant %s must be finite and positive, got %v", name, v)
		}
	}
	if len(c.Materials) == 0 {
		return errors.New("material table is empty")
	}
	for m, d := range c.Materials {
		if !isPositiveFinite(d) {
			return fmt.Errorf("density for material %q must be finite and positive, got %v", m, d)
		}
	}
	return nil
}

// DensityFor looks up the density of a material.
func (c PhysicalConstants) DensityFor(m Material) (float64, bool) {
	d, ok := c.Materials[m]
	return d, ok
}

// MaterialFor maps a density back to a material label. Exact table matches
// win; anything else is classified by threshold.
func (c PhysicalConstants) MaterialFor(density float64) Material {
	for _, m := range c.MaterialNames() {
		if c.Materials[m] == density {
			return m
		}
	}
	switch {
	case density >= 7000:
		return MaterialIron
	case density <= 1000:
		return MaterialIce
	case density >= 3000:
		return MaterialDenseRock
	default:
		return MaterialPorousRock
	}
}

// MaterialNames returns the table's materials in a stable order.
func (c PhysicalConstants) MaterialNames() []Material {
	names := make([]Material, 0, len(c.Materials))
	for m := range c.Materials {
		names = append(names, m)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// MaterialLabel is the human-readable name used in narrative prompts.
func MaterialLabel(m Material) string {
	switch m {
	case MaterialIron:
		return "iron"
	case MaterialIce:
		return "ice"
	case MaterialDenseRock:
		return "dense rock"
	case MaterialPorousRock:
		return "porous rock"
	case "":
		return "rock"
	default:
		return string(m)
	}
}

func isPositiveFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
