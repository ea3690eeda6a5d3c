package sales

import (
	"context"

	"granjas-del-carmen/internal/domain/animals"
)

type ListFilter struct {
	Species animals.Species // opcional
	SoldBy  string          // opcional
	Sort    string          // "asc" | "desc" por sold_at
}

type Repository interface {
	// CreateAndMarkSold inserta la venta y pasa el animal a SOLD en UNA
	// transacción. Si el animal ya no es vendible (venta concurrente,
	// descartado) devuelve animals.ErrInvalidState y no persiste nada.
	CreateAndMarkSold(ctx context.Context, s Sale, statusReason string) error

	GetByID(ctx context.Context, id string) (Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, error)
	ListByAnimal(ctx context.Context, animalID string) ([]Sale, error)

	// Correct aplica los valores nuevos a la venta y guarda la fila de
	// auditoría, también en una sola transacción.
	Correct(ctx context.Context, c Correction) (Sale, error)

	ListCorrections(ctx context.Context, saleID string) ([]Correction, error)
}
