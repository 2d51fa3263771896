// Package domain models meteor impacts: the physical impact model, the
// elliptical blast footprint drawn on the map, and the narrative report.
//
// # Impact Model
//
// [ComputeImpact] converts a meteor's diameter, entry velocity, impact angle
// and bulk density into energy, mass and a devastation radius:
//
//	mass            = 4/3 · π · r³ · ρ                              (kg)
//	E               = ½ · mass · v²  /  4.184e15                    (Mt TNT)
//	craterDiameter  = 1.161 · (ρ/ρt)^⅓ · D^0.78 · v^0.44 · g^-0.22 · sin(θ)^⅓
//	radius          = craterDiameter / 2
//
// with v in m/s, ρt = 2750 kg/m³ (generic rock) and g = 9.81 m/s². The
// coefficients and exponents are reproduced as given; they are not checked
// against a peer-reviewed crater scaling model. A 0° (grazing) impact has
// sin(θ) = 0 and therefore a zero crater.
//
// [Model.Compute] is the checked entry point: it rejects non-finite or
// non-positive inputs, and angles outside (0, 90], with [ErrInvalidParameter]
// instead of letting NaN flow through the equations.
//
// # Footprint
//
// [ProjectFootprint] draws five concentric ellipses at 0.2, 0.4, 0.6, 0.8
// and 1.0 of the devastation radius. The minor/major axes ratio grows from
// 0.4 for grazing impacts to 1.0 for vertical ones, and the ellipse is
// pushed back along the entry direction by -cos(θ) semi-major axes. Each
// ellipse is sampled at 90 points, rotated by the impact angle and converted
// to degrees with a local flat-Earth approximation:
//
//	dLng = x / (111320 · cos(lat))
//	dLat = y / 110540
//
// # Render Lifecycle
//
// Every strike gets a sequence number. A map client removes the five layers
// of the previous sequence before adding the five of the new one; see
// [PlanRender] for the layer naming scheme.
package domain
