package config

import (
	"fmt"
	"os"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadConstants reads a YAML file of physical constants. Keys left out of the
// file keep their defaults; listed materials are added to or replace entries
// of the default table.
//
//	gravity: 3.71
//	target_density: 2500
//	materials:
//	  nickel_iron: 8000
func LoadConstants(path string) (domain.PhysicalConstants, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PhysicalConstants{}, fmt.Errorf("read constants file: %w", err)
	}

	var override domain.PhysicalConstants
	if err := yaml.Unmarshal(data, &override); err != nil {
		return domain.PhysicalConstants{}, fmt.Errorf("unmarshal constants yaml: %w", err)
	}

	c := domain.DefaultConstants()
	if override.Gravity != 0 {
		c.Gravity = override.Gravity
	}
	if override.TargetDensity != 0 {
		c.TargetDensity = override.TargetDensity
	}
	if override.JoulesPerMegaton != 0 {
		c.JoulesPerMegaton = override.JoulesPerMegaton
	}
	for m, d := range override.Materials {
		c.Materials[m] = d
	}

	if err := c.Validate(); err != nil {
		return domain.PhysicalConstants{}, fmt.Errorf("constants file %s: %w", path, err)
	}
	return c, nil
}
