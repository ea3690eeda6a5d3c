package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"granjas-del-carmen/internal/ports/auth"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("user not found")

	// ErrDuplicate: subject o email ya registrados.
	ErrDuplicate = errors.New("user already exists")
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

// EnsureFromLogin busca el usuario por subject y lo crea si no existe.
// Es el punto donde "primer login exitoso" se vuelve una fila en users.
// Si ya existe, refresca email/nombre/foto con lo que diga el IdP.
func (s *Service) EnsureFromLogin(ctx context.Context, claims auth.Claims) (User, error) {
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetBySubject(ctx, sub)
	claimed := false
	if errors.Is(err, ErrNotFound) && strings.TrimSpace(claims.Email) != "" {
		// Un admin puede dar de alta usuarios antes de su primer login
		// (subject vacío). El primer login reclama esa fila por email.
		if pre, preErr := s.repo.GetByEmail(ctx, strings.TrimSpace(claims.Email)); preErr == nil && pre.Subject == "" {
			pre.Subject = sub
			u, err = pre, nil
			claimed = true
		}
	}
	if err == nil {
		changed := claimed
		if e := strings.TrimSpace(claims.Email); e != "" && e != u.Email {
			u.Email = e
			changed = true
		}
		if n := strings.TrimSpace(claims.Name); n != "" && n != u.Name {
			u.Name = n
			changed = true
		}
		if p := strings.TrimSpace(claims.Picture); p != "" && p != u.Picture {
			u.Picture = p
			changed = true
		}
		if changed {
			u.UpdatedAt = s.now()
			if err := s.repo.Update(ctx, u); err != nil {
				return User{}, err
			}
		}
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	now := s.now()
	u = User{
		ID:        uuid.NewString(),
		Subject:   sub,
		Email:     strings.TrimSpace(claims.Email),
		Name:      strings.TrimSpace(claims.Name),
		Picture:   strings.TrimSpace(claims.Picture),
		Role:      RoleUser,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

type CreateInput struct {
	Email   string
	Name    string
	Phone   string
	Address string
	Role    Role // vacío = USER
}

// Create da de alta un usuario sin login previo (alta administrativa).
// La fila queda sin subject hasta que la persona entre por primera vez
// con ese email; EnsureFromLogin la reclama entonces.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	role := in.Role
	if role == "" {
		role = RoleUser
	}
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: role must be ADMIN, USER or VIEWER", ErrInvalidInput)
	}

	now := s.now()
	u := User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrInvalidInput
	}
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// UpdateProfileInput usa punteros para PATCH real: nil = no tocar.
type UpdateProfileInput struct {
	Name    *string
	Phone   *string
	Address *string
	Picture *string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return User{}, ErrInvalidInput
		}
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.Picture != nil {
		u.Picture = strings.TrimSpace(*in.Picture)
	}

	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *Service) SetRole(ctx context.Context, id string, role Role) (User, error) {
	if !ValidRole(role) {
		return User{}, ErrInvalidInput
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	u.Role = role
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Disable marca la cuenta como inactiva. No hay borrado físico de usuarios:
// las ventas referencian sold_by y ese historial debe sobrevivir.
func (s *Service) Disable(ctx context.Context, id string) (User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	u.Active = false
	u.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// IdentityBySubject implementa auth.IdentityResolver para el middleware.
// Devuelve el id local junto al rol: las ventas y correcciones guardan
// ese id, no el subject del IdP. Usuarios deshabilitados no tienen
// identidad efectiva.
func (s *Service) IdentityBySubject(ctx context.Context, subject string) (auth.Identity, error) {
	u, err := s.repo.GetBySubject(ctx, strings.TrimSpace(subject))
	if err != nil {
		return auth.Identity{}, err
	}
	if !u.Active {
		return auth.Identity{}, ErrNotFound
	}
	return auth.Identity{UserID: u.ID, Role: string(u.Role)}, nil
}
