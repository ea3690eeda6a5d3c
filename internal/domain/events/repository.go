package events

import (
	"context"
	"time"
)

type ListFilter struct {
	Types []EventType
	From  *time.Time
	To    *time.Time
	Limit int
}

type Repository interface {
	Create(ctx context.Context, e AnimalEvent) error
	GetByID(ctx context.Context, id string) (AnimalEvent, error)
	ListByAnimal(ctx context.Context, animalID string, filter ListFilter) ([]AnimalEvent, error)
	Void(ctx context.Context, id string) error
}
