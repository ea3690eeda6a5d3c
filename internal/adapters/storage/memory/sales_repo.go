package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"granjas-del-carmen/internal/domain/sales"
)

type salesRepo struct {
	mu      sync.RWMutex
	byID    map[string]sales.Sale
	corrs   map[string][]sales.Correction // por sale_id
	animals *AnimalsRepo
}

// NewSalesRepo recibe el repo de animales en memoria para que la venta
// pueda marcar SOLD bajo el mismo lock, imitando la transacción de
// Postgres.
func NewSalesRepo(animals *AnimalsRepo) sales.Repository {
	return &salesRepo{
		byID:    make(map[string]sales.Sale),
		corrs:   make(map[string][]sales.Correction),
		animals: animals,
	}
}

func (r *salesRepo) CreateAndMarkSold(ctx context.Context, s sales.Sale, statusReason string) error {
	if strings.TrimSpace(s.ID) == "" {
		return sales.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.animals.mu.Lock()
	defer r.animals.mu.Unlock()

	if err := r.animals.markSoldLocked(s.AnimalID, statusReason, s.UpdatedAt); err != nil {
		return err
	}
	r.byID[s.ID] = s
	return nil
}

func (r *salesRepo) GetByID(ctx context.Context, id string) (sales.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return sales.Sale{}, sales.ErrNotFound
	}
	return s, nil
}

func (r *salesRepo) List(ctx context.Context, filter sales.ListFilter) ([]sales.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sales.Sale, 0)
	for _, s := range r.byID {
		if filter.Species != "" && s.Species != filter.Species {
			continue
		}
		if filter.SoldBy != "" && s.SoldBy != filter.SoldBy {
			continue
		}
		out = append(out, s)
	}

	asc := filter.Sort == "asc"
	sort.Slice(out, func(i, j int) bool {
		if asc {
			return out[i].SoldAt.Before(out[j].SoldAt)
		}
		return out[i].SoldAt.After(out[j].SoldAt)
	})

	return out, nil
}

func (r *salesRepo) ListByAnimal(ctx context.Context, animalID string) ([]sales.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sales.Sale, 0)
	for _, s := range r.byID {
		if s.AnimalID == animalID {
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SoldAt.After(out[j].SoldAt)
	})

	return out, nil
}

func (r *salesRepo) Correct(ctx context.Context, c sales.Correction) (sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[c.SaleID]
	if !ok {
		return sales.Sale{}, sales.ErrNotFound
	}

	s.Price = c.NewPrice
	s.Buyer = c.NewBuyer
	s.UpdatedAt = c.CorrectedAt
	r.byID[c.SaleID] = s
	r.corrs[c.SaleID] = append(r.corrs[c.SaleID], c)

	return s, nil
}

func (r *salesRepo) ListCorrections(ctx context.Context, saleID string) ([]sales.Correction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sales.Correction, 0, len(r.corrs[saleID]))
	out = append(out, r.corrs[saleID]...)
	return out, nil
}
