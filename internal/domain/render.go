package domain

import "fmt"

// LayerRef names the map source and layers that draw one ring.
type LayerRef struct {
	Sequence      uint64 `json:"sequence"`
	Ring          int    `json:"ring"`
	SourceID      string `json:"source_id"`
	FillLayerID   string `json:"fill_layer_id"`
	BorderLayerID string `json:"border_layer_id"`
}

// RenderPlan tells a map client which layers to retire and which to add.
// Removal is listed first and must be idempotent on the client side.
type RenderPlan struct {
	Remove []LayerRef `json:"remove"`
	Add    []LayerRef `json:"add"`
}

// BatchLayers returns the five layer references of one strike.
func BatchLayers(sequence uint64) []LayerRef {
	refs := make([]LayerRef, RingCount)
	for i := range refs {
		refs[i] = LayerRef{
			Sequence:      sequence,
			Ring:          i,
			SourceID:      fmt.Sprintf("impact-source-%d-ellipse-%d", sequence, i),
			FillLayerID:   fmt.Sprintf("impact-ellipse-fill-%d-%d", sequence, i),
			BorderLayerID: fmt.Sprintf("impact-ellipse-border-%d-%d", sequence, i),
		}
	}
	return refs
}

// PlanRender retires the batch of previous (0 means none) and adds the
// batch of next.
func PlanRender(previous, next uint64) RenderPlan {
	plan := RenderPlan{Remove: []LayerRef{}, Add: BatchLayers(next)}
	if previous != 0 {
		plan.Remove = BatchLayers(previous)
	}
	return plan
}
