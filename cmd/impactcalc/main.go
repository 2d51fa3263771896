// Command impactcalc runs the impact model and footprint projector offline
// and prints the outcome and the footprint as JSON.
//
// Usage:
//
//	go run ./cmd/impactcalc -diameter 50 -velocity 20 -angle 45 -material iron \
//	  -lng -47.88 -lat -15.79
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
)

type output struct {
	Material   domain.Material          `json:"material"`
	Parameters domain.MeteorParameters  `json:"parameters"`
	Outcome    domain.ImpactOutcome     `json:"outcome"`
	Footprint  domain.FeatureCollection `json:"footprint"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defaults := domain.DefaultMeteorConfig()

	fs := flag.NewFlagSet("impactcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	diameter := fs.Float64("diameter", defaults.DiameterMeters, "meteor diameter in meters")
	velocity := fs.Float64("velocity", defaults.VelocityKmPerSec, "entry velocity in km/s")
	angle := fs.Float64("angle", defaults.ImpactAngleDegrees, "impact angle in degrees from the horizontal (0-90]")
	density := fs.Float64("density", 0, "meteor density in kg/m^3 (overrides -material)")
	material := fs.String("material", "", "material name: iron, ice, dense_rock, porous_rock")
	lng := fs.Float64("lng", 0, "ground zero longitude")
	lat := fs.Float64("lat", 0, "ground zero latitude")
	constantsFile := fs.String("constants", "", "YAML file overriding physical constants")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	consts := domain.DefaultConstants()
	if *constantsFile != "" {
		c, err := config.LoadConstants(*constantsFile)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		consts = c
	}

	cfg := domain.MeteorConfig{
		DiameterMeters:     *diameter,
		VelocityKmPerSec:   *velocity,
		ImpactAngleDegrees: *angle,
		DensityKgPerM3:     *density,
		Material:           domain.Material(*material),
	}
	if cfg.DensityKgPerM3 == 0 && cfg.Material == "" {
		cfg.DensityKgPerM3 = defaults.DensityKgPerM3
	}
	cfg = domain.MeteorConfig{}.Overlay(cfg, consts)
	if err := cfg.Validate(consts); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if cfg.Material == "" {
		cfg.Material = consts.MaterialFor(cfg.DensityKgPerM3)
	}

	outcome, err := domain.NewModel(consts).Compute(cfg.Parameters())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	center := domain.LngLat{Lng: *lng, Lat: *lat}
	rings := domain.ProjectFootprint(center, outcome.DevastationRadiusMeters, cfg.ImpactAngleDegrees)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		Material:   cfg.Material,
		Parameters: cfg.Parameters(),
		Outcome:    outcome,
		Footprint:  domain.FootprintGeoJSON(center, rings),
	}); err != nil {
		fmt.Fprintln(stderr, "encode output:", err)
		return 1
	}
	return 0
}
