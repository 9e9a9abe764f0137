package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripmap/internal/cache"
	"tripmap/internal/domain"
	"tripmap/internal/geometry"
	"tripmap/internal/observability"
	"tripmap/internal/store"
)

// Backend is the trip-planning service that owns HOS rules.
type Backend interface {
	Plan(ctx context.Context, req domain.TripRequest) (*domain.TripPlan, error)
	Ping(ctx context.Context) error
}

type Broadcaster interface {
	Broadcast(update domain.TripUpdate)
}

// Cache is satisfied by *cache.RedisCache. Lookups return nil, nil on a
// miss.
type Cache interface {
	View(ctx context.Context, fingerprint string) (*domain.MapView, error)
	PutView(ctx context.Context, fingerprint string, view domain.MapView) error
	Trip(ctx context.Context, id uuid.UUID) (*domain.Trip, error)
	PutTrip(ctx context.Context, trip *domain.Trip) error
	DeleteTrip(ctx context.Context, id uuid.UUID) error
}

type Options struct {
	HealthInterval time.Duration
	TripTTL        time.Duration
}

type Service struct {
	backend     Backend
	store       *store.Store
	builder     *geometry.Builder
	cache       Cache
	broadcaster Broadcaster
	opts        Options
	logger      *slog.Logger

	ready   bool
	readyMu sync.RWMutex
}

const defaultHealthInterval = 30 * time.Second

// New wires the service. cache and broadcaster may be nil.
func New(backend Backend, s *store.Store, builder *geometry.Builder, c Cache, broadcaster Broadcaster, opts Options, logger *slog.Logger) *Service {
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = defaultHealthInterval
	}
	return &Service{
		backend:     backend,
		store:       s,
		builder:     builder,
		cache:       c,
		broadcaster: broadcaster,
		opts:        opts,
		logger:      logger.With("component", "planner"),
	}
}

// Plan asks the backend for a new trip, builds its map view and stores it.
func (s *Service) Plan(ctx context.Context, req domain.TripRequest) (*domain.Trip, error) {
	return s.plan(ctx, uuid.New(), req)
}

// Replan re-runs planning for an existing trip with new parameters.
func (s *Service) Replan(ctx context.Context, id uuid.UUID, req domain.TripRequest) (*domain.Trip, error) {
	if _, err := s.Trip(ctx, id); err != nil {
		return nil, err
	}
	return s.plan(ctx, id, req)
}

func (s *Service) plan(ctx context.Context, id uuid.UUID, req domain.TripRequest) (*domain.Trip, error) {
	start := time.Now()

	plan, err := s.backend.Plan(ctx, req)
	if err != nil {
		observability.BackendErrors.WithLabelValues("plan").Inc()
		s.logger.Error("trip planning failed", "trip_id", id, "error", err)
		return nil, fmt.Errorf("plan trip: %w", err)
	}
	observability.TripsPlanned.Inc()

	view := s.Render(ctx, plan)

	s.store.Put(&domain.Trip{
		ID:      id,
		Request: req,
		Plan:    plan,
		View:    &view,
	})
	trip, _ := s.store.Get(id)

	if s.cache != nil {
		if err := s.cache.PutTrip(ctx, trip); err != nil {
			s.logger.Warn("failed to cache trip", "trip_id", id, "error", err)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(domain.TripUpdate{
			Type:   domain.UpdateView,
			TripID: id,
			View:   &view,
		})
	}

	s.logger.Info("trip planned",
		"trip_id", id,
		"path_points", len(view.Path),
		"stops", len(plan.Stops),
		"map_stops", len(view.Stops),
		"geometry_error", view.GeometryError != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return trip, nil
}

// Trip looks in the local store first, then in the shared cache.
func (s *Service) Trip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	if trip, ok := s.store.Get(id); ok {
		return trip, nil
	}

	if s.cache != nil {
		trip, err := s.cache.Trip(ctx, id)
		if err != nil {
			s.logger.Warn("trip cache lookup failed", "trip_id", id, "error", err)
		}
		if trip != nil {
			return trip, nil
		}
	}

	return nil, store.ErrTripNotFound
}

func (s *Service) Trips() []*domain.Trip {
	return s.store.List()
}

// Delete drops a trip from the store and the shared cache and tells its
// subscribers it is gone.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Trip(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(id); err != nil && !errors.Is(err, store.ErrTripNotFound) {
		return err
	}
	if s.cache != nil {
		if err := s.cache.DeleteTrip(ctx, id); err != nil {
			return fmt.Errorf("evict trip: %w", err)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(domain.TripUpdate{Type: domain.UpdateExpired, TripID: id})
	}
	s.logger.Info("trip deleted", "trip_id", id)
	return nil
}

// Render builds the map view of a plan without storing it. Views are cached
// by plan fingerprint.
func (s *Service) Render(ctx context.Context, plan *domain.TripPlan) domain.MapView {
	fingerprint := ""
	if s.cache != nil && plan != nil {
		fp, err := cache.PlanFingerprint(plan)
		if err != nil {
			s.logger.Warn("skipping view cache", "error", err)
		}
		fingerprint = fp
	}

	if fingerprint != "" {
		view, err := s.cache.View(ctx, fingerprint)
		if err != nil {
			s.logger.Warn("view cache lookup failed", "error", err)
		}
		if view != nil {
			observability.CacheHits.Inc()
			return *view
		}
		observability.CacheMisses.Inc()
	}

	view := s.builder.Build(plan)
	s.observe(plan, view)

	if fingerprint != "" {
		if err := s.cache.PutView(ctx, fingerprint, view); err != nil {
			s.logger.Warn("failed to cache view", "error", err)
		}
	}

	return view
}

func (s *Service) observe(plan *domain.TripPlan, view domain.MapView) {
	observability.PolylineDecodes.Inc()
	if view.GeometryError == "" {
		observability.DecodedPoints.Observe(float64(len(view.Path)))
		return
	}

	observability.MalformedGeometry.Inc()
	encoded := ""
	if plan != nil {
		encoded = plan.Route.Polyline
	}
	s.logger.Warn("malformed route geometry",
		"error", view.GeometryError,
		"polyline_length", len(encoded),
		"polyline_prefix", truncate(encoded, 32),
	)
}

// Run probes backend health for readiness and prunes expired trips until ctx
// is cancelled.
func (s *Service) Run(ctx context.Context) {
	healthTicker := time.NewTicker(s.opts.HealthInterval)
	defer healthTicker.Stop()

	var pruneC <-chan time.Time
	if s.opts.TripTTL > 0 {
		pruneEvery := s.opts.TripTTL / 4
		if pruneEvery < time.Millisecond {
			pruneEvery = time.Millisecond
		}
		pruneTicker := time.NewTicker(pruneEvery)
		defer pruneTicker.Stop()
		pruneC = pruneTicker.C
	}

	s.probe(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-healthTicker.C:
			s.probe(ctx)
		case <-pruneC:
			s.prune(ctx)
		}
	}
}

func (s *Service) probe(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, s.opts.HealthInterval)
	defer cancel()

	err := s.backend.Ping(pingCtx)
	ready := err == nil
	if err != nil {
		observability.BackendErrors.WithLabelValues("ping").Inc()
	}

	if ready != s.IsReady() {
		s.setReady(ready)
		if ready {
			s.logger.Info("planning backend reachable")
		} else {
			s.logger.Warn("planning backend unreachable", "error", err)
		}
	}
}

func (s *Service) prune(ctx context.Context) {
	pruned := s.store.PruneStale(s.opts.TripTTL)
	if len(pruned) == 0 {
		return
	}
	if s.cache != nil {
		for _, id := range pruned {
			if err := s.cache.DeleteTrip(ctx, id); err != nil {
				s.logger.Warn("failed to evict cached trip", "trip_id", id, "error", err)
			}
		}
	}
	if s.broadcaster != nil {
		for _, id := range pruned {
			s.broadcaster.Broadcast(domain.TripUpdate{Type: domain.UpdateExpired, TripID: id})
		}
	}
	s.logger.Info("pruned expired trips", "count", len(pruned))
}

func (s *Service) IsReady() bool {
	s.readyMu.RLock()
	defer s.readyMu.RUnlock()
	return s.ready
}

func (s *Service) setReady(ready bool) {
	s.readyMu.Lock()
	defer s.readyMu.Unlock()
	s.ready = ready
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
