package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"granjas-del-carmen/internal/domain/animals"
)

// AnimalsRepo es el repositorio en memoria de animales. Es exportado
// porque el repo de ventas lo necesita para compartir su lock en la
// venta atómica.
type AnimalsRepo struct {
	mu   sync.RWMutex
	byID map[string]animals.Animal
}

func NewAnimalsRepo() *AnimalsRepo {
	return &AnimalsRepo{
		byID: make(map[string]animals.Animal),
	}
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(a.ID) == "" {
		return animals.ErrInvalidInput
	}
	if _, exists := r.byID[a.ID]; exists {
		return animals.ErrConflict
	}
	if a.Tag != "" {
		for _, other := range r.byID {
			if other.Species == a.Species && other.Tag == a.Tag {
				return animals.ErrConflict
			}
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[a.ID]; !exists {
		return animals.ErrNotFound
	}
	if a.Tag != "" {
		for id, other := range r.byID {
			if id != a.ID && other.Species == a.Species && other.Tag == a.Tag {
				return animals.ErrConflict
			}
		}
	}
	r.byID[a.ID] = a
	return nil
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id string) (animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.Animal{}, animals.ErrNotFound
	}
	return a, nil
}

func (r *AnimalsRepo) List(ctx context.Context, filter animals.ListFilter) ([]animals.Animal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.Animal, 0)
	for _, a := range r.byID {
		if a.Species != filter.Species {
			continue
		}
		if filter.Gender != "" && a.Gender != filter.Gender {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}

	switch filter.Sort {
	case "asc", "desc":
		desc := filter.Sort == "desc"
		sort.Slice(out, func(i, j int) bool {
			bi, bj := out[i].BirthDate, out[j].BirthDate
			// sin fecha van al final
			if bi == nil {
				return false
			}
			if bj == nil {
				return true
			}
			if desc {
				return bi.After(*bj)
			}
			return bi.Before(*bj)
		})
	default:
		sort.Slice(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}

	return out, nil
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return animals.ErrNotFound
	}
	// un animal vendido conserva su venta; no se borra
	if a.Status == animals.StatusSold {
		return animals.ErrConflict
	}
	delete(r.byID, id)
	return nil
}

func (r *AnimalsRepo) ListChildren(ctx context.Context, id string) ([]animals.ChildRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]animals.ChildRef, 0)
	for _, a := range r.byID {
		if a.Status == animals.StatusDiscarded {
			continue
		}
		isChild := (a.MotherID != nil && *a.MotherID == id) ||
			(a.FatherID != nil && *a.FatherID == id)
		if !isChild {
			continue
		}
		out = append(out, animals.ChildRef{
			ID:        a.ID,
			Name:      a.Name,
			Species:   a.Species,
			Gender:    a.Gender,
			BirthDate: a.BirthDate,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].BirthDate, out[j].BirthDate
		if bi == nil {
			return false
		}
		if bj == nil {
			return true
		}
		return bi.After(*bj)
	})

	return out, nil
}

// markSoldLocked pasa el animal a SOLD si sigue vendible. El caller debe
// tener tomado r.mu. soldAt queda como updated_at, igual que el UPDATE
// de la transacción de Postgres.
func (r *AnimalsRepo) markSoldLocked(id, statusReason string, soldAt time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return animals.ErrNotFound
	}
	if !a.Sellable() {
		return animals.ErrInvalidState
	}
	a.Status = animals.StatusSold
	a.StatusReason = statusReason
	a.InFreezer = false
	a.UpdatedAt = soldAt
	r.byID[id] = a
	return nil
}
