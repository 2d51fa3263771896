// Package simulator runs strikes: it resolves meteor parameters against the
// stored configuration, computes the outcome and footprint, numbers each
// strike, and hands the event to the publisher.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/meteor-impact-service/internal/domain"
	"github.com/couchcryptid/meteor-impact-service/internal/observability"
)

// EventSink accepts events for asynchronous publishing.
type EventSink interface {
	Enqueue(event domain.ImpactEvent) bool
}

// Simulator owns the strike sequence and the most recent event.
type Simulator struct {
	model    *domain.Model
	store    *ConfigStore
	geocoder domain.Geocoder
	narrator domain.Narrator
	sink     EventSink
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	sequence uint64
	latest   *domain.ImpactEvent
}

// Option configures optional collaborators.
type Option func(*Simulator)

// WithGeocoder enables place lookup for strikes and narratives.
func WithGeocoder(g domain.Geocoder) Option {
	return func(s *Simulator) { s.geocoder = g }
}

// WithNarrator enables narrative generation.
func WithNarrator(n domain.Narrator) Option {
	return func(s *Simulator) { s.narrator = n }
}

// WithSink publishes every strike.
func WithSink(sink EventSink) Option {
	return func(s *Simulator) { s.sink = sink }
}

// New creates a Simulator. Collaborators left unset are disabled.
func New(model *domain.Model, store *ConfigStore, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Simulator {
	s := &Simulator{
		model:   model,
		store:   store,
		logger:  logger,
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.geocoder != nil {
		metrics.GeocodeEnabled.Set(1)
	}
	if s.narrator != nil {
		metrics.NarrativeEnabled.Set(1)
	}
	return s
}

// Strike simulates an impact. Errors wrapping domain.ErrInvalidParameter or
// domain.ErrPlaceNotFound are the caller's fault; the event is only recorded
// when Strike succeeds.
func (s *Simulator) Strike(ctx context.Context, req domain.StrikeRequest) (domain.ImpactEvent, error) {
	start := time.Now()

	cfg := s.store.Resolve(req.Meteor)
	if err := cfg.Validate(s.model.Constants()); err != nil {
		s.metrics.StrikesRejected.Inc()
		return domain.ImpactEvent{}, err
	}
	outcome, err := s.model.Compute(cfg.Parameters())
	if err != nil {
		s.metrics.StrikesRejected.Inc()
		return domain.ImpactEvent{}, err
	}

	center, place, err := s.locate(ctx, req)
	if err != nil {
		s.metrics.StrikesRejected.Inc()
		return domain.ImpactEvent{}, err
	}

	event := domain.NewImpactEvent(center, cfg, outcome)
	event.Place = place

	s.mu.Lock()
	previous := s.sequence
	s.sequence++
	event.Sequence = s.sequence
	event.Render = domain.PlanRender(previous, event.Sequence)
	latest := event
	s.latest = &latest
	s.mu.Unlock()

	s.metrics.Strikes.Inc()
	s.metrics.LastStrikeSequence.Set(float64(event.Sequence))
	s.metrics.DevastationRadiusKm.Observe(outcome.DevastationRadiusKm)
	s.metrics.EnergyMegatons.Observe(outcome.EnergyMegatons)
	s.metrics.StrikeDuration.Observe(time.Since(start).Seconds())

	if s.sink != nil {
		s.sink.Enqueue(event)
	}

	s.logger.Info("impact simulated",
		"sequence", event.Sequence,
		"lng", center.Lng,
		"lat", center.Lat,
		"material", cfg.Material,
		"energy_mt", outcome.EnergyMegatons,
		"radius_km", outcome.DevastationRadiusKm,
	)
	return event, nil
}

func (s *Simulator) locate(ctx context.Context, req domain.StrikeRequest) (domain.LngLat, string, error) {
	if req.Center != nil {
		if err := validateCenter(*req.Center); err != nil {
			return domain.LngLat{}, "", err
		}
		return *req.Center, "", nil
	}
	if req.Place == "" {
		return domain.LngLat{}, "", fmt.Errorf("%w: center or place is required", domain.ErrInvalidParameter)
	}
	center, name, err := domain.LocatePlace(ctx, s.geocoder, req.Place)
	if err != nil {
		s.logger.Warn("place lookup failed", "place", req.Place, "error", err)
		return domain.LngLat{}, "", err
	}
	return center, name, nil
}

func validateCenter(c domain.LngLat) error {
	if math.IsNaN(c.Lng) || math.IsNaN(c.Lat) || math.Abs(c.Lng) > 180 || math.Abs(c.Lat) > 90 {
		return fmt.Errorf("%w: center %v,%v is not a valid coordinate", domain.ErrInvalidParameter, c.Lng, c.Lat)
	}
	return nil
}

// Narrate produces the narrative for an impact at req.Center. Collaborator
// failures degrade into the returned Narrative's status; only invalid meteor
// parameters or coordinates produce an error.
func (s *Simulator) Narrate(ctx context.Context, req domain.NarrateRequest) (domain.Narrative, error) {
	cfg := s.store.Resolve(req.Meteor)
	if err := cfg.Validate(s.model.Constants()); err != nil {
		return domain.Narrative{}, err
	}
	outcome, err := s.model.Compute(cfg.Parameters())
	if err != nil {
		return domain.Narrative{}, err
	}
	if err := validateCenter(req.Center); err != nil {
		return domain.Narrative{}, err
	}

	n := s.narrate(ctx, req.Center, cfg, outcome)
	s.metrics.NarrativeRequests.WithLabelValues(string(n.Status)).Inc()
	return n, nil
}

func (s *Simulator) narrate(ctx context.Context, center domain.LngLat, cfg domain.MeteorConfig, outcome domain.ImpactOutcome) domain.Narrative {
	if s.narrator == nil {
		return domain.Narrative{Status: domain.NarrativeDisabled, Text: domain.MsgNarrativeDisabled}
	}

	location, err := domain.ResolvePlace(ctx, s.geocoder, center, s.logger)
	if err != nil {
		return domain.Narrative{Status: domain.NarrativeLocationUnavailable, Text: domain.MsgLocationUnavailable}
	}

	text, err := s.narrator.Generate(ctx, domain.NarrativeRequest{
		Location:   location,
		Material:   cfg.Material,
		Parameters: cfg.Parameters(),
		MassTonnes: outcome.MassTonnes,
	})
	switch {
	case errors.Is(err, domain.ErrNoNarrative):
		return domain.Narrative{Status: domain.NarrativeGenerationFailed, Location: location, Text: domain.MsgNoNarrative}
	case err != nil:
		s.logger.Warn("narrative generation failed", "location", location, "error", err)
		return domain.Narrative{Status: domain.NarrativeGenerationFailed, Location: location, Text: domain.MsgCommunicationFailure}
	}
	return domain.Narrative{Status: domain.NarrativeOK, Location: location, Text: text}
}

// Latest returns the most recent event, if any.
func (s *Simulator) Latest() (domain.ImpactEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return domain.ImpactEvent{}, false
	}
	return *s.latest, true
}

// Config returns the stored meteor configuration.
func (s *Simulator) Config() domain.MeteorConfig {
	return s.store.Get()
}

// UpdateConfig validates and stores a new meteor configuration.
func (s *Simulator) UpdateConfig(cfg domain.MeteorConfig) (domain.MeteorConfig, error) {
	saved, err := s.store.Put(cfg)
	if err != nil {
		return domain.MeteorConfig{}, err
	}
	s.logger.Info("meteor configuration updated",
		"diameter_m", saved.DiameterMeters,
		"velocity_km_s", saved.VelocityKmPerSec,
		"angle_deg", saved.ImpactAngleDegrees,
		"material", saved.Material,
	)
	return saved, nil
}

// Materials returns the density table.
func (s *Simulator) Materials() map[domain.Material]float64 {
	return s.store.Materials()
}

// CheckReadiness reports ready once the publisher, if any, is running.
func (s *Simulator) CheckReadiness(ctx context.Context) error {
	if rc, ok := s.sink.(interface {
		CheckReadiness(context.Context) error
	}); ok {
		return rc.CheckReadiness(ctx)
	}
	return nil
}
