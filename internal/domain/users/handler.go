package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"granjas-del-carmen/internal/adapters/auth/auth0"
	"granjas-del-carmen/internal/middleware"
	"granjas-del-carmen/internal/ports/auth"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", listUsersHandler(svc))
		ur.Post("/", createUserHandler(svc))
		ur.Get("/{userID}", getUserHandler(svc))
		ur.Patch("/{userID}", updateUserHandler(svc))

		// Solo admin
		ur.Put("/{userID}/role", setRoleHandler(svc))
		ur.Post("/{userID}/disable", disableUserHandler(svc))
	})
}

// RegisterAuthRoutes expone los endpoints de autenticación delegada.
// auth0Client puede ser nil en modo dev; login/logout devuelven 503 en ese caso.
func RegisterAuthRoutes(r chi.Router, svc *Service, auth0Client *auth0.Client) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Get("/login-url", loginURLHandler(auth0Client))
		ar.Get("/logout-url", logoutURLHandler(auth0Client))
		ar.Get("/me", meHandler(svc))
	})
}

type userResponse struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Picture string `json:"picture"`
	Role    string `json:"role"`
	Active  bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateUserRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Picture *string `json:"picture"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type createUserRequest struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Role    string `json:"role"` // opcional, default USER
}

// createUserHandler es el alta administrativa: la fila queda sin subject
// hasta que la persona haga su primer login con ese email.
func createUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can create users", http.StatusForbidden)
			return
		}

		var req createUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.Create(r.Context(), CreateInput{
			Email:   req.Email,
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
			Role:    Role(strings.ToUpper(strings.TrimSpace(req.Role))),
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrDuplicate):
				http.Error(w, "a user with that email already exists", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

func listUsersHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Filtro opcional por email (?email=...)
		if email := strings.TrimSpace(r.URL.Query().Get("email")); email != "" {
			u, err := svc.GetByEmail(r.Context(), email)
			if err != nil {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, []userResponse{toUserResponse(u)})
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.GetByID(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		userID := chi.URLParam(r, "userID")

		// Cada quien edita su perfil; admin edita cualquiera.
		current, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if current.Subject != p.Subject && !p.IsAdmin() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), userID, UpdateProfileInput{
			Name:    req.Name,
			Phone:   req.Phone,
			Address: req.Address,
			Picture: req.Picture,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func setRoleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can change roles", http.StatusForbidden)
			return
		}

		var req setRoleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.SetRole(r.Context(), chi.URLParam(r, "userID"), Role(strings.ToUpper(strings.TrimSpace(req.Role))))
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, "role must be ADMIN, USER or VIEWER", http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func disableUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can disable users", http.StatusForbidden)
			return
		}

		u, err := svc.Disable(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "user not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func loginURLHandler(client *auth0.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil || !client.IsConfigured() {
			http.Error(w, "auth not configured", http.StatusServiceUnavailable)
			return
		}
		u, err := client.LoginURL(r.URL.Query().Get("state"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"loginUrl": u})
	}
}

func logoutURLHandler(client *auth0.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil || !client.IsConfigured() {
			http.Error(w, "auth not configured", http.StatusServiceUnavailable)
			return
		}
		u, err := client.LogoutURL()
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"logoutUrl": u})
	}
}

// meHandler devuelve el usuario autenticado, creándolo si es su primer login.
func meHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok || strings.TrimSpace(p.Subject) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := svc.EnsureFromLogin(r.Context(), auth.Claims{
			Subject: p.Subject,
			Email:   p.Email,
			Name:    p.Name,
			Picture: p.Picture,
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Subject:   u.Subject,
		Email:     u.Email,
		Name:      u.Name,
		Phone:     u.Phone,
		Address:   u.Address,
		Picture:   u.Picture,
		Role:      string(u.Role),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (users/animals/sales/events) para no crear helpers compartidos antes
// de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
