package domain

import (
	"context"
	"errors"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNoNarrative is returned when the generator answers without any text.
var ErrNoNarrative = errors.New("no narrative generated")

// NarrativeWordLimit bounds the length of the generated report.
const NarrativeWordLimit = 180

// NarrativeStatus describes how far narrative generation got.
type NarrativeStatus string

const (
	NarrativeOK                  NarrativeStatus = "ok"
	NarrativeDisabled            NarrativeStatus = "disabled"
	NarrativeLocationUnavailable NarrativeStatus = "location_unavailable"
	NarrativeGenerationFailed    NarrativeStatus = "generation_failed"
)

// User-facing texts for degraded narratives.
const (
	MsgNarrativeDisabled    = "Impact analysis is not available on this server."
	MsgLocationUnavailable  = "Could not identify the location."
	MsgNoNarrative          = "The AI could not generate a report for this impact."
	MsgCommunicationFailure = "The AI analysis could not be completed due to a communication error."
)

// Narrative is the outcome of a narrative request. Text is always set.
type Narrative struct {
	Status   NarrativeStatus `json:"status"`
	Location string          `json:"location,omitempty"`
	Text     string          `json:"text"`
}

// NarrativeRequest carries everything the generator is told about a strike.
type NarrativeRequest struct {
	Location   string
	Material   Material
	Parameters MeteorParameters
	MassTonnes float64
}

// Narrator generates a free-text report for an impact.
type Narrator interface {
	Generate(ctx context.Context, req NarrativeRequest) (string, error)
}

var numberPrinter = message.NewPrinter(language.English)

// formatQuantity renders v with thousands separators and at most three
// decimals, dropping trailing zeros.
func formatQuantity(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e18 {
		return numberPrinter.Sprintf("%v", int64(v))
	}
	s := numberPrinter.Sprintf("%.3f", v)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// BuildNarrativePrompt writes the flash-report prompt for req.
func BuildNarrativePrompt(req NarrativeRequest) string {
	p := req.Parameters
	loc := req.Location
	return numberPrinter.Sprintf(`You are an elite disaster analyst and strategist, combining physics with real-world geographical, demographic, and economic data for the Global Impact Response Directorate. Your task is to generate a priority-one flash report.
A meteor with the following characteristics has just struck the planet:
- Impact Location: %s
- Composition: %s (density %s kg/m^3)
- Diameter: %s meters
- Mass: %s tons
- Entry Velocity: %s km/s
- Impact Angle: %s degrees

Write a single, flowing paragraph. The total length must be under %d words.
Maintain an extremely serious and data-driven tone. This report is for immediate strategic decision-making.

Your analysis must follow this strict sequence:
1. State the impact location and characterize the event: Start with "'%s' has been struck..." and briefly mention the impactor's nature (e.g., a high-velocity, dense iron body).
2. Quantify the immediate human cost: Leveraging your knowledge of '%s's population density (e.g., dense metropolis, rural area, shipping lane), provide a specific numerical estimate for immediate fatalities within the primary devastation zone.
3. Detail the localized economic collapse: Identify one or two primary economic pillars '%s' is known for (e.g., a specific industry like technology or agriculture, a major port, a financial hub, a critical university center). Describe their instantaneous and catastrophic obliteration.
4. Describe the physical transformation of the local geography: Detail the immediate environmental ruin. Mention the scale of the resulting crater and how it has irrevocably altered a specific local feature (e.g., vaporized a river, flattened a downtown district, created a new bay).
5. Conclude with a brief, forward-looking global consequence: In a single, concise phrase, mention the most probable large-scale secondary threat, such as atmospheric ejecta causing short-term cooling, or a specific disruption to global trade originating from the loss of this location.

Do not use bolding or lists. Respond ONLY with the text of the report itself.`,
		loc,
		MaterialLabel(req.Material), formatQuantity(p.DensityKgPerM3),
		formatQuantity(p.DiameterMeters),
		formatQuantity(req.MassTonnes),
		formatQuantity(p.VelocityKmPerSec),
		formatQuantity(p.ImpactAngleDegrees),
		NarrativeWordLimit,
		loc, loc, loc,
	)
}
