package animals

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Animal
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Animal{}}
}

func (r *testRepo) Create(ctx context.Context, a Animal) error {
	if a.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[a.ID]; ok {
		return ErrConflict
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) Update(ctx context.Context, a Animal) error {
	if _, ok := r.byID[a.ID]; !ok {
		return ErrNotFound
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Animal, error) {
	a, ok := r.byID[id]
	if !ok {
		return Animal{}, ErrNotFound
	}
	return a, nil
}

func (r *testRepo) List(ctx context.Context, filter ListFilter) ([]Animal, error) {
	out := make([]Animal, 0)
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
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testRepo) ListChildren(ctx context.Context, id string) ([]ChildRef, error) {
	out := make([]ChildRef, 0)
	for _, a := range r.byID {
		if a.Status == StatusDiscarded {
			continue
		}
		if (a.MotherID != nil && *a.MotherID == id) || (a.FatherID != nil && *a.FatherID == id) {
			out = append(out, ChildRef{ID: a.ID, Name: a.Name, Species: a.Species})
		}
	}
	return out, nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

// -------------------------
// Tests
// -------------------------

func TestCreate_DefaultsToPurchased(t *testing.T) {
	svc := newTestService(newTestRepo())

	a, err := svc.Create(context.Background(), SpeciesCow, CreateInput{
		Name:   "Lola",
		Gender: "female",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Origin != OriginPurchased {
		t.Fatalf("expected origin PURCHASED, got %s", a.Origin)
	}
	if a.Status != StatusActive {
		t.Fatalf("expected status ACTIVE, got %s", a.Status)
	}
	if a.Gender != GenderFemale {
		t.Fatalf("expected gender FEMALE, got %s", a.Gender)
	}
}

func TestCreate_RejectsParentsWhenPurchased(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)

	mother, err := svc.Create(context.Background(), SpeciesRabbit, CreateInput{Name: "Mamá", Gender: "FEMALE"})
	if err != nil {
		t.Fatalf("create mother: %v", err)
	}

	_, err = svc.Create(context.Background(), SpeciesRabbit, CreateInput{
		Name:     "Cría",
		Gender:   "MALE",
		Origin:   "PURCHASED",
		MotherID: mother.ID,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for purchased with parents, got %v", err)
	}
}

func TestCreate_ValidatesParents(t *testing.T) {
	repo := newTestRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	mother, _ := svc.Create(ctx, SpeciesRabbit, CreateInput{Name: "Mamá", Gender: "FEMALE"})
	male, _ := svc.Create(ctx, SpeciesRabbit, CreateInput{Name: "Macho", Gender: "MALE"})
	cow, _ := svc.Create(ctx, SpeciesCow, CreateInput{Name: "Vaca", Gender: "FEMALE"})

	// madre de otra especie
	if _, err := svc.Create(ctx, SpeciesRabbit, CreateInput{
		Name: "Cría", Gender: "MALE", Origin: "BORN", MotherID: cow.ID,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for cross-species mother, got %v", err)
	}

	// madre macho
	if _, err := svc.Create(ctx, SpeciesRabbit, CreateInput{
		Name: "Cría", Gender: "MALE", Origin: "BORN", MotherID: male.ID,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for male mother, got %v", err)
	}

	// madre descartada
	if _, err := svc.Discard(ctx, SpeciesRabbit, mother.ID, "enferma"); err != nil {
		t.Fatalf("discard mother: %v", err)
	}
	if _, err := svc.Create(ctx, SpeciesRabbit, CreateInput{
		Name: "Cría", Gender: "MALE", Origin: "BORN", MotherID: mother.ID,
	}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for discarded mother, got %v", err)
	}

	// caso feliz
	father := male
	kid, err := svc.Create(ctx, SpeciesRabbit, CreateInput{
		Name: "Cría", Gender: "FEMALE", Origin: "BORN", FatherID: father.ID,
	})
	if err != nil {
		t.Fatalf("create born with father: %v", err)
	}
	if kid.FatherID == nil || *kid.FatherID != father.ID {
		t.Fatalf("expected father_id set")
	}
	if kid.PurchaseDate != nil || kid.PurchasePrice != nil || kid.PurchaseVendor != "" {
		t.Fatalf("born animal must not carry purchase data")
	}
}

func TestGetByID_SpeciesMismatchIsNotFound(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	rabbit, _ := svc.Create(ctx, SpeciesRabbit, CreateInput{Name: "Bugs", Gender: "MALE"})

	if _, err := svc.GetByID(ctx, SpeciesCow, rabbit.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across species, got %v", err)
	}
	if _, err := svc.GetByID(ctx, SpeciesRabbit, rabbit.ID); err != nil {
		t.Fatalf("same species get: %v", err)
	}
}

func TestDiscard_Rules(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	a, _ := svc.Create(ctx, SpeciesSheep, CreateInput{Name: "Oveja", Gender: "FEMALE"})

	// sin motivo
	if _, err := svc.Discard(ctx, SpeciesSheep, a.ID, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without reason, got %v", err)
	}

	d, err := svc.Discard(ctx, SpeciesSheep, a.ID, "murió")
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	if d.Status != StatusDiscarded || d.StatusReason != "murió" {
		t.Fatalf("unexpected discard result: %+v", d)
	}

	// dos veces no
	if _, err := svc.Discard(ctx, SpeciesSheep, a.ID, "otra vez"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double discard, got %v", err)
	}
}

func TestSlaughter_OnlyActiveRabbits(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	cow, _ := svc.Create(ctx, SpeciesCow, CreateInput{Name: "Vaca", Gender: "FEMALE"})
	if _, err := svc.Slaughter(ctx, cow.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound slaughtering a cow, got %v", err)
	}

	rabbit, _ := svc.Create(ctx, SpeciesRabbit, CreateInput{Name: "Bugs", Gender: "MALE"})
	s, err := svc.Slaughter(ctx, rabbit.ID)
	if err != nil {
		t.Fatalf("slaughter: %v", err)
	}
	if s.Status != StatusSlaughtered || !s.InFreezer || s.SlaughteredDate == nil {
		t.Fatalf("unexpected slaughter result: %+v", s)
	}
	if !s.Sellable() {
		t.Fatalf("slaughtered rabbit in freezer must remain sellable")
	}

	// dos veces no
	if _, err := svc.Slaughter(ctx, rabbit.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double slaughter, got %v", err)
	}
}

func TestUpdate_OriginCoherence(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	mother, _ := svc.Create(ctx, SpeciesGoat, CreateInput{Name: "Mamá", Gender: "FEMALE"})
	kid, _ := svc.Create(ctx, SpeciesGoat, CreateInput{
		Name: "Cabrito", Gender: "MALE", Origin: "BORN", MotherID: mother.ID,
	})

	// pasar a PURCHASED limpia los padres
	origin := "PURCHASED"
	price := 1500.0
	updated, err := svc.Update(ctx, SpeciesGoat, kid.ID, UpdateInput{
		Origin:        &origin,
		PurchasePrice: &price,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.MotherID != nil {
		t.Fatalf("purchase origin must clear parents")
	}
	if updated.PurchasePrice == nil || *updated.PurchasePrice != price {
		t.Fatalf("expected purchase_price set")
	}

	// volver a BORN limpia los datos de compra
	born := "BORN"
	updated, err = svc.Update(ctx, SpeciesGoat, kid.ID, UpdateInput{Origin: &born})
	if err != nil {
		t.Fatalf("update back to born: %v", err)
	}
	if updated.PurchasePrice != nil || updated.PurchaseDate != nil || updated.PurchaseVendor != "" {
		t.Fatalf("born origin must clear purchase data")
	}
}

func TestUpdate_RejectsSelfParent(t *testing.T) {
	svc := newTestService(newTestRepo())
	ctx := context.Background()

	a, _ := svc.Create(ctx, SpeciesChicken, CreateInput{Name: "Gallina", Gender: "FEMALE", Origin: "BORN"})

	self := a.ID
	if _, err := svc.Update(ctx, SpeciesChicken, a.ID, UpdateInput{MotherID: &self}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self parent, got %v", err)
	}
}
