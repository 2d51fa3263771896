package simulator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
	"github.com/couchcryptid/meteor-impact-service/internal/simulator"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGeocoder struct {
	forward domain.GeocodingResult
	reverse domain.GeocodingResult
	err     error
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return m.forward, m.err
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	return m.reverse, m.err
}

type mockNarrator struct {
	text string
	err  error
	last domain.NarrativeRequest
}

func (m *mockNarrator) Generate(_ context.Context, req domain.NarrativeRequest) (string, error) {
	m.last = req
	return m.text, m.err
}

type mockSink struct {
	mu     sync.Mutex
	events []domain.ImpactEvent
	err    error
}

func (m *mockSink) Enqueue(e domain.ImpactEvent) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return true
}

func (m *mockSink) CheckReadiness(_ context.Context) error { return m.err }

func newSimulator(t *testing.T, opts ...simulator.Option) (*simulator.Simulator, *observability.Metrics) {
	t.Helper()
	consts := domain.DefaultConstants()
	metrics := observability.NewMetricsForTesting()
	store := simulator.NewConfigStore(consts, nil, "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return simulator.New(domain.NewModel(consts), store, logger, metrics, opts...), metrics
}

var brasilia = domain.LngLat{Lng: -47.8828, Lat: -15.7939}

// --- Strike ---

func TestStrike_UsesStoredConfig(t *testing.T) {
	sink := &mockSink{}
	sim, metrics := newSimulator(t, simulator.WithSink(sink))

	event, err := sim.Strike(context.Background(), domain.StrikeRequest{Center: &brasilia})
	require.NoError(t, err)

	want := domain.ComputeImpact(domain.DefaultMeteorConfig().Parameters())
	assert.InDelta(t, want.EnergyMegatons, event.Outcome.EnergyMegatons, want.EnergyMegatons*1e-12)
	assert.Equal(t, uint64(1), event.Sequence)
	assert.Equal(t, domain.MaterialDenseRock, event.Material)
	assert.Len(t, event.Rings, domain.RingCount)
	assert.Empty(t, event.Render.Remove)
	assert.Equal(t, "impact-source-1-ellipse-0", event.Render.Add[0].SourceID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, event.ID, sink.events[0].ID)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Strikes), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.LastStrikeSequence), 0)
}

func TestStrike_SecondStrikeRetiresFirst(t *testing.T) {
	sim, _ := newSimulator(t)

	first, err := sim.Strike(context.Background(), domain.StrikeRequest{Center: &brasilia})
	require.NoError(t, err)
	second, err := sim.Strike(context.Background(), domain.StrikeRequest{Center: &brasilia})
	require.NoError(t, err)

	assert.Equal(t, first.Sequence+1, second.Sequence)
	if diff := cmp.Diff(first.Render.Add, second.Render.Remove); diff != "" {
		t.Errorf("second strike must remove exactly the first batch (-first.Add +second.Remove):\n%s", diff)
	}

	latest, ok := sim.Latest()
	require.True(t, ok)
	assert.Equal(t, second.ID, latest.ID)
}

func TestStrike_OverridesDoNotPersist(t *testing.T) {
	sim, _ := newSimulator(t)

	event, err := sim.Strike(context.Background(), domain.StrikeRequest{
		Center: &brasilia,
		Meteor: &domain.MeteorOverride{DiameterMeters: float64Ptr(50), Material: domain.MaterialIron},
	})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, event.Parameters.DiameterMeters, 0)
	assert.InDelta(t, 7800.0, event.Parameters.DensityKgPerM3, 0)
	assert.Equal(t, domain.MaterialIron, event.Material)
	assert.InDelta(t, 10000.0, sim.Config().DiameterMeters, 0)
}

func TestStrike_InvalidParametersRejected(t *testing.T) {
	sink := &mockSink{}
	sim, metrics := newSimulator(t, simulator.WithSink(sink))

	tests := []struct {
		name string
		req  domain.StrikeRequest
	}{
		{"negative velocity", domain.StrikeRequest{Center: &brasilia, Meteor: &domain.MeteorOverride{VelocityKmPerSec: float64Ptr(-1)}}},
		{"zero diameter", domain.StrikeRequest{Center: &brasilia, Meteor: &domain.MeteorOverride{DiameterMeters: float64Ptr(0)}}},
		{"zero angle", domain.StrikeRequest{Center: &brasilia, Meteor: &domain.MeteorOverride{ImpactAngleDegrees: float64Ptr(0)}}},
		{"angle above vertical", domain.StrikeRequest{Center: &brasilia, Meteor: &domain.MeteorOverride{ImpactAngleDegrees: float64Ptr(120)}}},
		{"unknown material", domain.StrikeRequest{Center: &brasilia, Meteor: &domain.MeteorOverride{Material: "granite"}}},
		{"latitude out of range", domain.StrikeRequest{Center: &domain.LngLat{Lng: 0, Lat: 91}}},
		{"no center or place", domain.StrikeRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Strike(context.Background(), tt.req)
			require.ErrorIs(t, err, domain.ErrInvalidParameter)
		})
	}

	_, ok := sim.Latest()
	assert.False(t, ok)
	assert.Empty(t, sink.events)
	assert.InDelta(t, float64(len(tests)), testutil.ToFloat64(metrics.StrikesRejected), 0)
}

func TestStrike_ByPlace(t *testing.T) {
	geo := &mockGeocoder{forward: domain.GeocodingResult{Lat: 48.8566, Lon: 2.3522, FormattedAddress: "Paris, France"}}
	sim, _ := newSimulator(t, simulator.WithGeocoder(geo))

	event, err := sim.Strike(context.Background(), domain.StrikeRequest{Place: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, domain.LngLat{Lng: 2.3522, Lat: 48.8566}, event.Center)
	assert.Equal(t, "Paris, France", event.Place)
}

func TestStrike_ByPlaceNotFound(t *testing.T) {
	sim, _ := newSimulator(t, simulator.WithGeocoder(&mockGeocoder{}))

	_, err := sim.Strike(context.Background(), domain.StrikeRequest{Place: "Atlantis"})
	require.ErrorIs(t, err, domain.ErrPlaceNotFound)
}

func TestStrike_ByPlaceWithoutGeocoder(t *testing.T) {
	sim, _ := newSimulator(t)

	_, err := sim.Strike(context.Background(), domain.StrikeRequest{Place: "Paris"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geocoding disabled")
}

// --- Narrate ---

func TestNarrate_Disabled(t *testing.T) {
	sim, metrics := newSimulator(t)

	n, err := sim.Narrate(context.Background(), domain.NarrateRequest{Center: brasilia})
	require.NoError(t, err)
	assert.Equal(t, domain.NarrativeDisabled, n.Status)
	assert.Equal(t, domain.MsgNarrativeDisabled, n.Text)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.NarrativeRequests.WithLabelValues("disabled")), 0)
}

func TestNarrate_Success(t *testing.T) {
	geo := &mockGeocoder{reverse: domain.GeocodingResult{FormattedAddress: "Brasília, Brazil"}}
	narrator := &mockNarrator{text: "'Brasília, Brazil' has been struck..."}
	sim, _ := newSimulator(t, simulator.WithGeocoder(geo), simulator.WithNarrator(narrator))

	n, err := sim.Narrate(context.Background(), domain.NarrateRequest{
		Center: brasilia,
		Meteor: &domain.MeteorOverride{Material: domain.MaterialIce},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Narrative{Status: domain.NarrativeOK, Location: "Brasília, Brazil", Text: narrator.text}, n)
	assert.Equal(t, "Brasília, Brazil", narrator.last.Location)
	assert.Equal(t, domain.MaterialIce, narrator.last.Material)
	assert.InDelta(t, 900.0, narrator.last.Parameters.DensityKgPerM3, 0)
	assert.Greater(t, narrator.last.MassTonnes, 0.0)
}

func TestNarrate_OpenOcean(t *testing.T) {
	narrator := &mockNarrator{text: "report"}
	sim, _ := newSimulator(t, simulator.WithGeocoder(&mockGeocoder{}), simulator.WithNarrator(narrator))

	n, err := sim.Narrate(context.Background(), domain.NarrateRequest{Center: domain.LngLat{Lng: -140, Lat: -30}})
	require.NoError(t, err)
	assert.Equal(t, domain.NarrativeOK, n.Status)
	assert.Equal(t, domain.RemoteOceanPlace, narrator.last.Location)
}

func TestNarrate_WithoutGeocoderUsesCoordinates(t *testing.T) {
	narrator := &mockNarrator{text: "report"}
	sim, _ := newSimulator(t, simulator.WithNarrator(narrator))

	n, err := sim.Narrate(context.Background(), domain.NarrateRequest{Center: brasilia})
	require.NoError(t, err)
	assert.Equal(t, domain.NarrativeOK, n.Status)
	assert.Equal(t, "-15.7939, -47.8828", narrator.last.Location)
}

func TestNarrate_Degraded(t *testing.T) {
	tests := []struct {
		name       string
		geoErr     error
		narrateErr error
		wantStatus domain.NarrativeStatus
		wantText   string
	}{
		{"geocoder failure", errors.New("timeout"), nil, domain.NarrativeLocationUnavailable, domain.MsgLocationUnavailable},
		{"no candidates", nil, domain.ErrNoNarrative, domain.NarrativeGenerationFailed, domain.MsgNoNarrative},
		{"transport failure", nil, errors.New("connection reset"), domain.NarrativeGenerationFailed, domain.MsgCommunicationFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := &mockGeocoder{reverse: domain.GeocodingResult{FormattedAddress: "Brasília, Brazil"}, err: tt.geoErr}
			narrator := &mockNarrator{err: tt.narrateErr}
			sim, metrics := newSimulator(t, simulator.WithGeocoder(geo), simulator.WithNarrator(narrator))

			n, err := sim.Narrate(context.Background(), domain.NarrateRequest{Center: brasilia})
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, n.Status)
			assert.Equal(t, tt.wantText, n.Text)
			assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.NarrativeRequests.WithLabelValues(string(tt.wantStatus))), 0)
		})
	}
}

func TestNarrate_InvalidParameters(t *testing.T) {
	sim, _ := newSimulator(t, simulator.WithNarrator(&mockNarrator{text: "x"}))

	_, err := sim.Narrate(context.Background(), domain.NarrateRequest{
		Center: brasilia,
		Meteor: &domain.MeteorOverride{DiameterMeters: float64Ptr(-5)},
	})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestNarrate_DoesNotTouchStrikeState(t *testing.T) {
	sim, _ := newSimulator(t, simulator.WithNarrator(&mockNarrator{text: "x"}))

	_, err := sim.Narrate(context.Background(), domain.NarrateRequest{Center: brasilia})
	require.NoError(t, err)

	_, ok := sim.Latest()
	assert.False(t, ok)
}

// --- configuration and readiness ---

func TestUpdateConfig(t *testing.T) {
	sim, _ := newSimulator(t)

	saved, err := sim.UpdateConfig(domain.MeteorConfig{
		DiameterMeters:     50,
		VelocityKmPerSec:   12,
		ImpactAngleDegrees: 90,
		Material:           domain.MaterialIron,
	})
	require.NoError(t, err)
	assert.Equal(t, saved, sim.Config())

	_, err = sim.UpdateConfig(domain.MeteorConfig{})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, saved, sim.Config())
}

func TestMaterials(t *testing.T) {
	sim, _ := newSimulator(t)
	assert.Equal(t, domain.DefaultConstants().Materials, sim.Materials())
}

func TestCheckReadiness(t *testing.T) {
	sim, _ := newSimulator(t)
	require.NoError(t, sim.CheckReadiness(context.Background()))

	sim, _ = newSimulator(t, simulator.WithSink(&mockSink{err: errors.New("publisher down")}))
	require.Error(t, sim.CheckReadiness(context.Background()))
}

func TestEnabledGauges(t *testing.T) {
	_, metrics := newSimulator(t, simulator.WithGeocoder(&mockGeocoder{}))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.GeocodeEnabled), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.NarrativeEnabled), 0)
}

func float64Ptr(v float64) *float64 { return &v }
