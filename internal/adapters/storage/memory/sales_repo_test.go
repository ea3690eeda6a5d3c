package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"granjas-del-carmen/internal/domain/animals"
	"granjas-del-carmen/internal/domain/sales"
)

func TestCreateAndMarkSold_UpdatesAnimal(t *testing.T) {
	ctx := context.Background()

	animalsRepo := NewAnimalsRepo()
	salesRepo := NewSalesRepo(animalsRepo)

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	a := animals.Animal{
		ID:        "a-1",
		Species:   animals.SpeciesRabbit,
		Name:      "Bugs",
		Status:    animals.StatusActive,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := animalsRepo.Create(ctx, a); err != nil {
		t.Fatalf("create animal: %v", err)
	}

	soldAt := created.Add(2 * time.Hour)
	err := salesRepo.CreateAndMarkSold(ctx, sales.Sale{
		ID:        "s-1",
		AnimalID:  "a-1",
		Species:   animals.SpeciesRabbit,
		Price:     120,
		SoldAt:    soldAt,
		CreatedAt: soldAt,
		UpdatedAt: soldAt,
	}, "Vendido")
	if err != nil {
		t.Fatalf("sell: %v", err)
	}

	got, err := animalsRepo.GetByID(ctx, "a-1")
	if err != nil {
		t.Fatalf("get animal: %v", err)
	}
	if got.Status != animals.StatusSold || got.StatusReason != "Vendido" {
		t.Fatalf("expected SOLD/Vendido, got %s/%q", got.Status, got.StatusReason)
	}
	// El vendido refleja updated_at igual que el UPDATE de Postgres.
	if !got.UpdatedAt.Equal(soldAt) {
		t.Fatalf("expected updated_at %v, got %v", soldAt, got.UpdatedAt)
	}

	// La segunda venta pierde y no deja fila.
	err = salesRepo.CreateAndMarkSold(ctx, sales.Sale{
		ID:       "s-2",
		AnimalID: "a-1",
		Species:  animals.SpeciesRabbit,
		Price:    99,
		SoldAt:   soldAt.Add(time.Minute),
	}, "Vendido")
	if !errors.Is(err, animals.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second sale, got %v", err)
	}
	if _, err := salesRepo.GetByID(ctx, "s-2"); !errors.Is(err, sales.ErrNotFound) {
		t.Fatalf("losing sale must not persist, got %v", err)
	}
}
