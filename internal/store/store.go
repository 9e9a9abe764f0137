package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripmap/internal/domain"
)

var ErrTripNotFound = errors.New("trip not found")

type Store struct {
	mu    sync.RWMutex
	trips map[uuid.UUID]*domain.Trip
}

func New() *Store {
	return &Store{
		trips: make(map[uuid.UUID]*domain.Trip),
	}
}

// Put inserts or replaces a trip. CreatedAt is kept from the existing entry.
func (s *Store) Put(trip *domain.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stored := *trip
	if existing, ok := s.trips[trip.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	s.trips[trip.ID] = &stored
}

func (s *Store) Get(id uuid.UUID) (*domain.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trip, ok := s.trips[id]
	if !ok {
		return nil, false
	}
	copy := *trip
	return &copy, true
}

// List returns trips newest first.
func (s *Store) List() []*domain.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Trip, 0, len(s.trips))
	for _, trip := range s.trips {
		copy := *trip
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[id]; !ok {
		return ErrTripNotFound
	}
	delete(s.trips, id)
	return nil
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trips)
}

// PruneStale removes trips not updated within maxAge and returns their IDs.
func (s *Store) PruneStale(maxAge time.Duration) []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var pruned []uuid.UUID

	for id, trip := range s.trips {
		if trip.UpdatedAt.Before(cutoff) {
			pruned = append(pruned, id)
			delete(s.trips, id)
		}
	}

	return pruned
}
