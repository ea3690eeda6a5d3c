package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"granjas-del-carmen/internal/domain/events"
)

type eventsRepo struct {
	mu   sync.RWMutex
	byID map[string]events.AnimalEvent
}

func NewEventsRepo() events.Repository {
	return &eventsRepo{
		byID: make(map[string]events.AnimalEvent),
	}
}

func (r *eventsRepo) Create(ctx context.Context, e events.AnimalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return events.ErrInvalidInput
	}
	r.byID[e.ID] = e
	return nil
}

func (r *eventsRepo) GetByID(ctx context.Context, id string) (events.AnimalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return events.AnimalEvent{}, events.ErrNotFound
	}
	return e, nil
}

func (r *eventsRepo) ListByAnimal(ctx context.Context, animalID string, filter events.ListFilter) ([]events.AnimalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.AnimalEvent, 0)
	for _, e := range r.byID {
		if e.AnimalID != animalID {
			continue
		}
		if len(filter.Types) > 0 && !containsType(filter.Types, e.Type) {
			continue
		}
		if filter.From != nil && e.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.OccurredAt.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *eventsRepo) Void(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return events.ErrNotFound
	}
	e.Status = events.StatusVoided
	r.byID[id] = e
	return nil
}

func containsType(ts []events.EventType, t events.EventType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
