package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"granjas-del-carmen/internal/domain/animals"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("sale not found")
)

type Service struct {
	repo        Repository
	animalsRepo animals.Repository
	now         func() time.Time
}

func NewService(repo Repository, animalsRepo animals.Repository) *Service {
	return &Service{
		repo:        repo,
		animalsRepo: animalsRepo,
		now:         time.Now,
	}
}

type SellInput struct {
	Price  float64
	Weight *float64
	Height *float64
	Buyer  string
	Notes  string
	Reason string // motivo para status_reason del animal; default "Vendido"
}

// Sell valida y ejecuta la venta. La pareja insert-venta + animal→SOLD
// ocurre dentro del repo en una transacción: acá solo se hacen los checks
// previos; el check definitivo de vendibilidad lo repite la transacción.
func (s *Service) Sell(ctx context.Context, species animals.Species, animalID, soldBy string, in SellInput) (Sale, error) {
	if in.Price <= 0 {
		return Sale{}, fmt.Errorf("%w: price must be > 0", ErrInvalidInput)
	}
	if strings.TrimSpace(soldBy) == "" {
		return Sale{}, fmt.Errorf("%w: sold_by is required", ErrInvalidInput)
	}

	a, err := s.animalsRepo.GetByID(ctx, strings.TrimSpace(animalID))
	if err != nil {
		return Sale{}, err
	}
	if a.Species != species {
		return Sale{}, animals.ErrNotFound
	}
	if !a.Sellable() {
		return Sale{}, fmt.Errorf("%w: animal is already %s", animals.ErrInvalidState, strings.ToLower(string(a.Status)))
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "Vendido"
	}

	now := s.now()
	sale := Sale{
		ID:        uuid.NewString(),
		AnimalID:  a.ID,
		Species:   a.Species,
		Price:     in.Price,
		Weight:    in.Weight,
		Height:    in.Height,
		Buyer:     strings.TrimSpace(in.Buyer),
		Notes:     strings.TrimSpace(in.Notes),
		SoldBy:    strings.TrimSpace(soldBy),
		SoldAt:    now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateAndMarkSold(ctx, sale, reason); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Sale, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Sale{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, error) {
	if filter.Species != "" && !animals.ValidSpecies(filter.Species) {
		return nil, fmt.Errorf("%w: unknown species", ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) ListByAnimal(ctx context.Context, animalID string) ([]Sale, error) {
	return s.repo.ListByAnimal(ctx, strings.TrimSpace(animalID))
}

type CorrectInput struct {
	Price  *float64
	Buyer  *string
	Reason string
}

// Correct corrige una venta dejando auditoría. Al menos un campo debe cambiar.
func (s *Service) Correct(ctx context.Context, saleID, correctedBy string, in CorrectInput) (Sale, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return Sale{}, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if in.Price == nil && in.Buyer == nil {
		return Sale{}, fmt.Errorf("%w: nothing to correct", ErrInvalidInput)
	}
	if in.Price != nil && *in.Price <= 0 {
		return Sale{}, fmt.Errorf("%w: price must be > 0", ErrInvalidInput)
	}

	current, err := s.repo.GetByID(ctx, strings.TrimSpace(saleID))
	if err != nil {
		return Sale{}, err
	}

	c := Correction{
		ID:          uuid.NewString(),
		SaleID:      current.ID,
		OldPrice:    current.Price,
		NewPrice:    current.Price,
		OldBuyer:    current.Buyer,
		NewBuyer:    current.Buyer,
		Reason:      strings.TrimSpace(in.Reason),
		CorrectedBy: strings.TrimSpace(correctedBy),
		CorrectedAt: s.now(),
	}
	if in.Price != nil {
		c.NewPrice = *in.Price
	}
	if in.Buyer != nil {
		c.NewBuyer = strings.TrimSpace(*in.Buyer)
	}

	return s.repo.Correct(ctx, c)
}

func (s *Service) ListCorrections(ctx context.Context, saleID string) ([]Correction, error) {
	if _, err := s.repo.GetByID(ctx, strings.TrimSpace(saleID)); err != nil {
		return nil, err
	}
	return s.repo.ListCorrections(ctx, strings.TrimSpace(saleID))
}
