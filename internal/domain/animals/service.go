package animals

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
	ErrNotFound     = errors.New("animal not found")

	// ErrInvalidState cubre transiciones prohibidas (sacrificar un descartado,
	// descartar dos veces, etc.).
	ErrInvalidState = errors.New("invalid animal state")

	// ErrConflict lo devuelven los adapters ante violaciones de integridad:
	// tag duplicado, o borrar un animal referenciado por ventas.
	ErrConflict = errors.New("conflict")
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

type CreateInput struct {
	Name      string
	Tag       string
	Image     string
	BirthDate *time.Time
	Gender    string
	IsBreeder bool

	Origin   string // BORN | PURCHASED; default PURCHASED
	MotherID string
	FatherID string

	PurchaseDate   *time.Time
	PurchasePrice  *float64
	PurchaseVendor string
}

func (s *Service) Create(ctx context.Context, species Species, in CreateInput) (Animal, error) {
	if !ValidSpecies(species) {
		return Animal{}, fmt.Errorf("%w: unknown species", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return Animal{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	gender, err := parseGender(in.Gender)
	if err != nil {
		return Animal{}, err
	}

	origin := OriginPurchased
	if strings.TrimSpace(in.Origin) != "" {
		origin = Origin(strings.ToUpper(strings.TrimSpace(in.Origin)))
		if origin != OriginBorn && origin != OriginPurchased {
			return Animal{}, fmt.Errorf("%w: origin must be BORN or PURCHASED", ErrInvalidInput)
		}
	}

	a := Animal{
		ID:        uuid.NewString(),
		Species:   species,
		Name:      strings.TrimSpace(in.Name),
		Tag:       strings.TrimSpace(in.Tag),
		Image:     strings.TrimSpace(in.Image),
		BirthDate: in.BirthDate,
		Gender:    gender,
		Origin:    origin,
		IsBreeder: in.IsBreeder,
		Status:    StatusActive,
	}

	motherID := strings.TrimSpace(in.MotherID)
	fatherID := strings.TrimSpace(in.FatherID)

	switch origin {
	case OriginBorn:
		// Nacido acá: padres opcionales pero validados; sin datos de compra.
		if motherID != "" {
			if err := s.validateParent(ctx, species, motherID, GenderFemale, a.ID); err != nil {
				return Animal{}, err
			}
			a.MotherID = &motherID
		}
		if fatherID != "" {
			if err := s.validateParent(ctx, species, fatherID, GenderMale, a.ID); err != nil {
				return Animal{}, err
			}
			a.FatherID = &fatherID
		}
	case OriginPurchased:
		if motherID != "" || fatherID != "" {
			return Animal{}, fmt.Errorf("%w: animals with parents must have origin=BORN", ErrInvalidInput)
		}
		if in.PurchasePrice != nil && *in.PurchasePrice < 0 {
			return Animal{}, fmt.Errorf("%w: purchase_price must be >= 0", ErrInvalidInput)
		}
		a.PurchaseDate = in.PurchaseDate
		a.PurchasePrice = in.PurchasePrice
		a.PurchaseVendor = strings.TrimSpace(in.PurchaseVendor)
	}

	now := s.now()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := s.repo.Create(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// GetByID valida que el animal exista y sea de la especie pedida:
// un GET /animals/cow/{id de conejo} es 404, no un cruce de especies.
func (s *Service) GetByID(ctx context.Context, species Species, id string) (Animal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Animal{}, ErrNotFound
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Animal{}, err
	}
	if a.Species != species {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Animal, error) {
	if !ValidSpecies(filter.Species) {
		return nil, fmt.Errorf("%w: unknown species", ErrInvalidInput)
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status", ErrInvalidInput)
	}
	if filter.Gender != "" && filter.Gender != GenderMale && filter.Gender != GenderFemale {
		return nil, fmt.Errorf("%w: gender must be MALE or FEMALE", ErrInvalidInput)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Parents(ctx context.Context, a Animal) (mother, father *ParentRef, err error) {
	if a.MotherID != nil {
		if m, err := s.repo.GetByID(ctx, *a.MotherID); err == nil {
			mother = &ParentRef{ID: m.ID, Name: m.Name, Species: m.Species}
		}
	}
	if a.FatherID != nil {
		if f, err := s.repo.GetByID(ctx, *a.FatherID); err == nil {
			father = &ParentRef{ID: f.ID, Name: f.Name, Species: f.Species}
		}
	}
	return mother, father, nil
}

func (s *Service) Children(ctx context.Context, id string) ([]ChildRef, error) {
	return s.repo.ListChildren(ctx, id)
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
// Species nunca se actualiza.
type UpdateInput struct {
	Name           *string
	Tag            *string
	Image          *string
	BirthDate      *time.Time
	ClearBirthDate bool
	Gender         *string
	IsBreeder      *bool

	Origin   *string
	MotherID *string // "" = limpiar
	FatherID *string

	PurchaseDate   *time.Time
	PurchasePrice  *float64
	PurchaseVendor *string
}

func (s *Service) Update(ctx context.Context, species Species, id string, in UpdateInput) (Animal, error) {
	a, err := s.GetByID(ctx, species, id)
	if err != nil {
		return Animal{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Animal{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		a.Name = strings.TrimSpace(*in.Name)
	}
	if in.Tag != nil {
		a.Tag = strings.TrimSpace(*in.Tag)
	}
	if in.Image != nil {
		a.Image = strings.TrimSpace(*in.Image)
	}
	if in.ClearBirthDate {
		a.BirthDate = nil
	} else if in.BirthDate != nil {
		a.BirthDate = in.BirthDate
	}
	if in.Gender != nil {
		g, err := parseGender(*in.Gender)
		if err != nil {
			return Animal{}, err
		}
		a.Gender = g
	}
	if in.IsBreeder != nil {
		a.IsBreeder = *in.IsBreeder
	}

	if in.Origin != nil {
		o := Origin(strings.ToUpper(strings.TrimSpace(*in.Origin)))
		if o != OriginBorn && o != OriginPurchased {
			return Animal{}, fmt.Errorf("%w: origin must be BORN or PURCHASED", ErrInvalidInput)
		}
		a.Origin = o
	}

	if in.MotherID != nil {
		mid := strings.TrimSpace(*in.MotherID)
		if mid == "" {
			a.MotherID = nil
		} else {
			if a.Origin != OriginBorn {
				return Animal{}, fmt.Errorf("%w: animals with parents must have origin=BORN", ErrInvalidInput)
			}
			if err := s.validateParent(ctx, species, mid, GenderFemale, a.ID); err != nil {
				return Animal{}, err
			}
			a.MotherID = &mid
		}
	}
	if in.FatherID != nil {
		fid := strings.TrimSpace(*in.FatherID)
		if fid == "" {
			a.FatherID = nil
		} else {
			if a.Origin != OriginBorn {
				return Animal{}, fmt.Errorf("%w: animals with parents must have origin=BORN", ErrInvalidInput)
			}
			if err := s.validateParent(ctx, species, fid, GenderMale, a.ID); err != nil {
				return Animal{}, err
			}
			a.FatherID = &fid
		}
	}

	// Coherencia origin <-> campos: PURCHASED no lleva padres,
	// BORN no lleva datos de compra.
	switch a.Origin {
	case OriginPurchased:
		a.MotherID = nil
		a.FatherID = nil
		if in.PurchaseDate != nil {
			a.PurchaseDate = in.PurchaseDate
		}
		if in.PurchasePrice != nil {
			if *in.PurchasePrice < 0 {
				return Animal{}, fmt.Errorf("%w: purchase_price must be >= 0", ErrInvalidInput)
			}
			a.PurchasePrice = in.PurchasePrice
		}
		if in.PurchaseVendor != nil {
			a.PurchaseVendor = strings.TrimSpace(*in.PurchaseVendor)
		}
	case OriginBorn:
		a.PurchaseDate = nil
		a.PurchasePrice = nil
		a.PurchaseVendor = ""
	}

	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// Delete borra físicamente. El adapter devuelve conflicto si hay ventas
// que referencian al animal; ese historial no se toca.
func (s *Service) Delete(ctx context.Context, species Species, id string) error {
	if _, err := s.GetByID(ctx, species, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Discard marca el animal como descartado (muerto, eliminado...) sin venta.
func (s *Service) Discard(ctx context.Context, species Species, id, reason string) (Animal, error) {
	a, err := s.GetByID(ctx, species, id)
	if err != nil {
		return Animal{}, err
	}
	if a.Status == StatusDiscarded || a.Status == StatusSold {
		return Animal{}, fmt.Errorf("%w: animal already %s", ErrInvalidState, strings.ToLower(string(a.Status)))
	}
	if strings.TrimSpace(reason) == "" {
		return Animal{}, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}

	a.Status = StatusDiscarded
	a.StatusReason = strings.TrimSpace(reason)
	a.InFreezer = false
	a.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

// Slaughter sacrifica un conejo y lo deja en congelador.
// Distinto de vender: el animal sigue siendo inventario de la granja
// y todavía puede venderse desde el congelador.
func (s *Service) Slaughter(ctx context.Context, id string) (Animal, error) {
	a, err := s.GetByID(ctx, SpeciesRabbit, id)
	if err != nil {
		return Animal{}, err
	}
	if a.Status != StatusActive {
		return Animal{}, fmt.Errorf("%w: only active rabbits can be slaughtered", ErrInvalidState)
	}

	now := s.now()
	a.Status = StatusSlaughtered
	a.SlaughteredDate = &now
	a.InFreezer = true
	a.UpdatedAt = now

	if err := s.repo.Update(ctx, a); err != nil {
		return Animal{}, err
	}
	return a, nil
}

func (s *Service) validateParent(ctx context.Context, species Species, parentID string, wantGender Gender, selfID string) error {
	if parentID == selfID {
		return fmt.Errorf("%w: animal cannot be its own parent", ErrInvalidInput)
	}

	p, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: parent animal not found", ErrInvalidInput)
		}
		return err
	}
	if p.Species != species {
		return fmt.Errorf("%w: parent must be of the same species", ErrInvalidInput)
	}
	if p.Gender != wantGender {
		if wantGender == GenderFemale {
			return fmt.Errorf("%w: mother must be FEMALE", ErrInvalidInput)
		}
		return fmt.Errorf("%w: father must be MALE", ErrInvalidInput)
	}
	if p.Status == StatusDiscarded || p.Status == StatusSold {
		return fmt.Errorf("%w: parent animal is no longer active", ErrInvalidInput)
	}
	return nil
}

func parseGender(g string) (Gender, error) {
	g = strings.ToUpper(strings.TrimSpace(g))
	switch Gender(g) {
	case "", GenderMale, GenderFemale:
		return Gender(g), nil
	}
	return "", fmt.Errorf("%w: gender must be MALE or FEMALE", ErrInvalidInput)
}
