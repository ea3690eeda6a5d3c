package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("event not found")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RecordInput struct {
	Type        EventType
	OccurredAt  time.Time
	Description string
}

// Record agrega una entrada al historial del animal.
// recordedBy es el subject del usuario que registra (o "system" para
// eventos generados por otras operaciones, p.ej. sacrificio).
func (s *Service) Record(ctx context.Context, animalID, recordedBy string, in RecordInput) (AnimalEvent, error) {
	animalID = strings.TrimSpace(animalID)
	if animalID == "" {
		return AnimalEvent{}, fmt.Errorf("%w: animal id is required", ErrInvalidInput)
	}
	if !ValidType(in.Type) {
		return AnimalEvent{}, fmt.Errorf("%w: unknown event type", ErrInvalidInput)
	}
	if in.OccurredAt.IsZero() {
		return AnimalEvent{}, fmt.Errorf("%w: occurred_at is required", ErrInvalidInput)
	}
	if strings.TrimSpace(recordedBy) == "" {
		return AnimalEvent{}, fmt.Errorf("%w: recorded_by is required", ErrInvalidInput)
	}

	e := AnimalEvent{
		ID:          uuid.NewString(),
		AnimalID:    animalID,
		Type:        in.Type,
		OccurredAt:  in.OccurredAt,
		RecordedAt:  s.now(),
		Description: strings.TrimSpace(in.Description),
		RecordedBy:  strings.TrimSpace(recordedBy),
		Status:      StatusActive,
	}

	if err := s.repo.Create(ctx, e); err != nil {
		return AnimalEvent{}, err
	}
	return e, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (AnimalEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return AnimalEvent{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string, filter ListFilter) ([]AnimalEvent, error) {
	for _, t := range filter.Types {
		if !ValidType(t) {
			return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidInput, t)
		}
	}
	return s.repo.ListByAnimal(ctx, strings.TrimSpace(animalID), filter)
}

// SlaughterRecorder adapta el servicio al hook de sacrificio del módulo
// de animales: cada sacrificio deja una entrada SLAUGHTER.
type SlaughterRecorder struct {
	svc *Service
}

func NewSlaughterRecorder(svc *Service) SlaughterRecorder {
	return SlaughterRecorder{svc: svc}
}

func (r SlaughterRecorder) RecordSlaughter(ctx context.Context, animalID, recordedBy string, occurredAt time.Time) error {
	_, err := r.svc.Record(ctx, animalID, recordedBy, RecordInput{
		Type:        TypeSlaughter,
		OccurredAt:  occurredAt,
		Description: "Sacrificio",
	})
	return err
}

// Void anula el evento; el historial nunca se borra.
func (s *Service) Void(ctx context.Context, id string) (AnimalEvent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return AnimalEvent{}, ErrNotFound
	}
	if err := s.repo.Void(ctx, id); err != nil {
		return AnimalEvent{}, err
	}
	return s.repo.GetByID(ctx, id)
}
