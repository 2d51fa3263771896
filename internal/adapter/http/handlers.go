package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
)

const maxBodyBytes = 1 << 20

type handlers struct {
	svc    ImpactService
	logger *slog.Logger
}

type materialResponse struct {
	Name    domain.Material `json:"name"`
	Label   string          `json:"label"`
	Density float64         `json:"density_kg_m3"`
}

// impactRequest is a strike at {lng, lat} or at a named place.
type impactRequest struct {
	Lng    *float64               `json:"lng"`
	Lat    *float64               `json:"lat"`
	Place  string                 `json:"place"`
	Meteor *domain.MeteorOverride `json:"meteor"`
}

type narrativeRequest struct {
	Lng    *float64               `json:"lng"`
	Lat    *float64               `json:"lat"`
	Meteor *domain.MeteorOverride `json:"meteor"`
}

// impactResponse is an ImpactEvent with its rings rendered as GeoJSON.
type impactResponse struct {
	ID           string                   `json:"id"`
	Sequence     uint64                   `json:"sequence"`
	Center       domain.LngLat            `json:"center"`
	Place        string                   `json:"place,omitempty"`
	Material     domain.Material          `json:"material"`
	Parameters   domain.MeteorParameters  `json:"parameters"`
	Outcome      domain.ImpactOutcome     `json:"outcome"`
	AxesRatio    float64                  `json:"axes_ratio"`
	CenterOffset float64                  `json:"center_offset"`
	Footprint    domain.FeatureCollection `json:"footprint"`
	Render       domain.RenderPlan        `json:"render"`
	CreatedAt    time.Time                `json:"created_at"`
}

func newImpactResponse(e domain.ImpactEvent) impactResponse {
	return impactResponse{
		ID:           e.ID,
		Sequence:     e.Sequence,
		Center:       e.Center,
		Place:        e.Place,
		Material:     e.Material,
		Parameters:   e.Parameters,
		Outcome:      e.Outcome,
		AxesRatio:    e.AxesRatio,
		CenterOffset: e.CenterOffset,
		Footprint:    e.GeoJSON(),
		Render:       e.Render,
		CreatedAt:    e.CreatedAt,
	}
}

func (h *handlers) materials(w http.ResponseWriter, _ *http.Request) {
	table := h.svc.Materials()
	out := make([]materialResponse, 0, len(table))
	for _, m := range slices.Sorted(maps.Keys(table)) {
		out = append(out, materialResponse{Name: m, Label: domain.MaterialLabel(m), Density: table[m]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"materials": out})
}

func (h *handlers) getConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Config())
}

func (h *handlers) putConfig(w http.ResponseWriter, r *http.Request) {
	var cfg domain.MeteorConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	saved, err := h.svc.UpdateConfig(cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *handlers) strike(w http.ResponseWriter, r *http.Request) {
	var body impactRequest
	if !decodeBody(w, r, &body) {
		return
	}

	req := domain.StrikeRequest{Place: body.Place, Meteor: body.Meteor}
	switch {
	case body.Lng != nil && body.Lat != nil:
		req.Center = &domain.LngLat{Lng: *body.Lng, Lat: *body.Lat}
	case body.Lng != nil || body.Lat != nil:
		writeJSON(w, http.StatusBadRequest, errorBody("lng and lat must be given together"))
		return
	}

	event, err := h.svc.Strike(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newImpactResponse(event))
}

func (h *handlers) latest(w http.ResponseWriter, _ *http.Request) {
	event, ok := h.svc.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no impact simulated yet"))
		return
	}
	writeJSON(w, http.StatusOK, newImpactResponse(event))
}

func (h *handlers) narrate(w http.ResponseWriter, r *http.Request) {
	var body narrativeRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Lng == nil || body.Lat == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("lng and lat are required"))
		return
	}
	n, err := h.svc.Narrate(r.Context(), domain.NarrateRequest{
		Center: domain.LngLat{Lng: *body.Lng, Lat: *body.Lat},
		Meteor: body.Meteor,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// writeError maps domain errors to status codes. Anything unrecognised is an
// upstream failure.
func (h *handlers) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrInvalidParameter), errors.Is(err, domain.ErrGeocodingDisabled):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrPlaceNotFound):
		status = http.StatusNotFound
	default:
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}
