package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"granjas-del-carmen/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]User
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]User{}}
}

func (r *testRepo) Create(ctx context.Context, u User) error {
	if u.ID == "" {
		return errors.New("repo: id required")
	}
	for _, other := range r.byID {
		if u.Subject != "" && other.Subject == u.Subject {
			return ErrDuplicate
		}
		if u.Email != "" && other.Email == u.Email {
			return ErrDuplicate
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) Update(ctx context.Context, u User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	r.byID[u.ID] = u
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *testRepo) GetBySubject(ctx context.Context, subject string) (User, error) {
	if subject == "" {
		return User{}, ErrNotFound
	}
	for _, u := range r.byID {
		if u.Subject == subject {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	return out, nil
}

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	svc := NewService(repo)
	svc.now = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc, repo
}

// -------------------------
// Tests
// -------------------------

func TestEnsureFromLogin_CreatesOnFirstLogin(t *testing.T) {
	svc, _ := newTestService()

	u, err := svc.EnsureFromLogin(context.Background(), auth.Claims{
		Subject: "auth0|abc",
		Email:   "ana@granja.com",
		Name:    "Ana",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected generated id")
	}
	if u.Role != RoleUser {
		t.Fatalf("first login must default to USER, got %s", u.Role)
	}
	if !u.Active {
		t.Fatalf("new user must be active")
	}
}

func TestEnsureFromLogin_RefreshesProfile(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|abc", Email: "ana@granja.com", Name: "Ana"})

	second, err := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|abc", Email: "ana@granja.com", Name: "Ana María"})
	if err != nil {
		t.Fatalf("ensure second login: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second login must reuse the same user")
	}
	if second.Name != "Ana María" {
		t.Fatalf("expected refreshed name, got %q", second.Name)
	}
}

func TestEnsureFromLogin_RequiresSubject(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.EnsureFromLogin(context.Background(), auth.Claims{Email: "x@y.com"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without subject, got %v", err)
	}
}

func TestCreate_AdminProvisioning(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{Name: "Sin Correo"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without email, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{Email: "x@y.com", Role: Role("JEFE")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}

	u, err := svc.Create(ctx, CreateInput{Email: "peon@granja.com", Name: "Peón"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Subject != "" {
		t.Fatalf("provisioned user must have no subject until first login, got %q", u.Subject)
	}
	if u.Role != RoleUser || !u.Active {
		t.Fatalf("expected active USER by default, got %s active=%v", u.Role, u.Active)
	}

	if _, err := svc.Create(ctx, CreateInput{Email: "peon@granja.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated email, got %v", err)
	}
}

func TestEnsureFromLogin_ClaimsProvisionedUser(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	pre, err := svc.Create(ctx, CreateInput{Email: "ana@granja.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u, err := svc.EnsureFromLogin(ctx, auth.Claims{
		Subject: "auth0|ana",
		Email:   "ana@granja.com",
		Name:    "Ana",
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if u.ID != pre.ID {
		t.Fatalf("first login must claim the provisioned row, got %q want %q", u.ID, pre.ID)
	}
	if u.Subject != "auth0|ana" {
		t.Fatalf("claimed row must keep the subject, got %q", u.Subject)
	}
	if u.Role != RoleAdmin {
		t.Fatalf("claimed row must keep its assigned role, got %s", u.Role)
	}

	// Y el claim quedó persistido: el próximo login resuelve por subject.
	again, err := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|ana", Email: "ana@granja.com"})
	if err != nil || again.ID != pre.ID {
		t.Fatalf("second login must find the claimed row, got %q err=%v", again.ID, err)
	}
}

func TestSetRole_Validates(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|abc"})

	if _, err := svc.SetRole(ctx, u.ID, Role("SUPERUSER")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown role, got %v", err)
	}

	updated, err := svc.SetRole(ctx, u.ID, RoleAdmin)
	if err != nil {
		t.Fatalf("set role: %v", err)
	}
	if updated.Role != RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", updated.Role)
	}
}

func TestDisable_RemovesEffectiveRole(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|abc"})

	id, err := svc.IdentityBySubject(ctx, "auth0|abc")
	if err != nil || id.Role != string(RoleUser) {
		t.Fatalf("expected USER role before disable, got %+v err=%v", id, err)
	}
	if id.UserID != u.ID {
		t.Fatalf("identity must carry the local user id, got %q want %q", id.UserID, u.ID)
	}

	disabled, err := svc.Disable(ctx, u.ID)
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if disabled.Active {
		t.Fatalf("expected inactive user")
	}

	if _, err := svc.IdentityBySubject(ctx, "auth0|abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("disabled user must have no effective identity, got %v", err)
	}
}

func TestUpdateProfile_PartialUpdate(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, _ := svc.EnsureFromLogin(ctx, auth.Claims{Subject: "auth0|abc", Name: "Ana"})

	phone := "555-1234"
	updated, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Phone: &phone})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Phone != phone {
		t.Fatalf("expected phone set")
	}
	if updated.Name != "Ana" {
		t.Fatalf("untouched fields must survive, got name %q", updated.Name)
	}

	empty := "  "
	if _, err := svc.UpdateProfile(ctx, u.ID, UpdateProfileInput{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank name, got %v", err)
	}
}
