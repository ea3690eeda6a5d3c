package animals

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"granjas-del-carmen/internal/middleware"
)

// SlaughterRecorder deja constancia del sacrificio en el historial del
// animal. Lo implementa el módulo de eventos.
type SlaughterRecorder interface {
	RecordSlaughter(ctx context.Context, animalID, recordedBy string, occurredAt time.Time) error
}

// RegisterRoutes cuelga las rutas por especie: /animals/{species}/...
// La especie viene en la URL (el frontend histórico navega por especie)
// pero el storage es una sola tabla animals. rec puede ser nil (tests).
func RegisterRoutes(r chi.Router, svc *Service, rec SlaughterRecorder) {
	r.Route("/animals/{species}", func(ar chi.Router) {
		ar.Get("/", listAnimalsHandler(svc))
		ar.Post("/", createAnimalHandler(svc))

		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))

		// Solo admin
		ar.Post("/{animalID}/discard", discardAnimalHandler(svc))
		ar.Post("/{animalID}/slaughter", slaughterAnimalHandler(svc, rec))
	})
}

type createAnimalRequest struct {
	Name      string `json:"name"`
	Tag       string `json:"tag"`
	Image     string `json:"image"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD opcional
	Gender    string `json:"gender"`
	IsBreeder bool   `json:"is_breeder"`

	Origin   string `json:"origin"`
	MotherID string `json:"mother_id"`
	FatherID string `json:"father_id"`

	PurchaseDate   string   `json:"purchase_date"` // YYYY-MM-DD opcional
	PurchasePrice  *float64 `json:"purchase_price"`
	PurchaseVendor string   `json:"purchase_vendor"`
}

type updateAnimalRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name      *string `json:"name"`
	Tag       *string `json:"tag"`
	Image     *string `json:"image"`
	BirthDate *string `json:"birth_date"` // YYYY-MM-DD; null = limpiar
	Gender    *string `json:"gender"`
	IsBreeder *bool   `json:"is_breeder"`

	Origin   *string `json:"origin"`
	MotherID *string `json:"mother_id"` // "" o null = limpiar
	FatherID *string `json:"father_id"`

	PurchaseDate   *string  `json:"purchase_date"`
	PurchasePrice  *float64 `json:"purchase_price"`
	PurchaseVendor *string  `json:"purchase_vendor"`
}

type discardRequest struct {
	Reason string `json:"reason"`
}

type animalResponse struct {
	ID      string `json:"id"`
	Species string `json:"species"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	Image   string `json:"image,omitempty"`

	BirthDate *time.Time `json:"birth_date,omitempty"`
	Gender    string     `json:"gender,omitempty"`

	Origin   string     `json:"origin"`
	MotherID *string    `json:"mother_id,omitempty"`
	Mother   *parentRef `json:"mother,omitempty"`
	FatherID *string    `json:"father_id,omitempty"`
	Father   *parentRef `json:"father,omitempty"`

	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	PurchasePrice  *float64   `json:"purchase_price,omitempty"`
	PurchaseVendor string     `json:"purchase_vendor,omitempty"`

	IsBreeder bool `json:"is_breeder"`

	Status       string `json:"status"`
	StatusReason string `json:"status_reason,omitempty"`

	SlaughteredDate *time.Time `json:"slaughtered_date,omitempty"`
	InFreezer       bool       `json:"in_freezer"`

	Children []childRef `json:"children,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type parentRef struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Species string `json:"species"`
}

type childRef struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Gender    string     `json:"gender,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
}

func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			Species: species,
			Gender:  Gender(strings.ToUpper(strings.TrimSpace(q.Get("gender")))),
			Status:  Status(strings.ToUpper(strings.TrimSpace(q.Get("status")))),
			Sort:    strings.ToLower(strings.TrimSpace(q.Get("sort"))),
		}

		items, err := svc.List(r.Context(), filter)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a, nil, nil, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, err := parseDate(req.BirthDate)
		if err != nil {
			http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		pd, err := parseDate(req.PurchaseDate)
		if err != nil {
			http.Error(w, "purchase_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		a, err := svc.Create(r.Context(), species, CreateInput{
			Name:           req.Name,
			Tag:            req.Tag,
			Image:          req.Image,
			BirthDate:      bd,
			Gender:         req.Gender,
			IsBreeder:      req.IsBreeder,
			Origin:         req.Origin,
			MotherID:       req.MotherID,
			FatherID:       req.FatherID,
			PurchaseDate:   pd,
			PurchasePrice:  req.PurchasePrice,
			PurchaseVendor: req.PurchaseVendor,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a, nil, nil, nil))
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		a, err := svc.GetByID(r.Context(), species, chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}

		mother, father, _ := svc.Parents(r.Context(), a)

		var children []ChildRef
		if r.URL.Query().Get("include_children") == "true" {
			children, _ = svc.Children(r.Context(), a.ID)
		}

		writeJSON(w, http.StatusOK, toAnimalResponse(a, mother, father, children))
	}
}

func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		// Para distinguir "birth_date": null (limpiar) de campo ausente,
		// decodificamos primero a raw y miramos presencia.
		var raw map[string]json.RawMessage
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updateAnimalRequest
		{
			b, _ := json.Marshal(raw)
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		in := UpdateInput{
			Name:           req.Name,
			Tag:            req.Tag,
			Image:          req.Image,
			Gender:         req.Gender,
			IsBreeder:      req.IsBreeder,
			Origin:         req.Origin,
			MotherID:       req.MotherID,
			FatherID:       req.FatherID,
			PurchasePrice:  req.PurchasePrice,
			PurchaseVendor: req.PurchaseVendor,
		}

		if v, exists := raw["birth_date"]; exists {
			if string(v) == "null" {
				in.ClearBirthDate = true
			} else if req.BirthDate != nil {
				bd, err := parseDate(*req.BirthDate)
				if err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.BirthDate = bd
			}
		}
		if req.PurchaseDate != nil {
			pd, err := parseDate(*req.PurchaseDate)
			if err != nil {
				http.Error(w, "purchase_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.PurchaseDate = pd
		}

		// Null explícito en mother_id/father_id = limpiar.
		if v, exists := raw["mother_id"]; exists && string(v) == "null" {
			empty := ""
			in.MotherID = &empty
		}
		if v, exists := raw["father_id"]; exists && string(v) == "null" {
			empty := ""
			in.FatherID = &empty
		}

		a, err := svc.Update(r.Context(), species, chi.URLParam(r, "animalID"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a, nil, nil, nil))
	}
}

func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can delete animals", http.StatusForbidden)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		if err := svc.Delete(r.Context(), species, chi.URLParam(r, "animalID")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func discardAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can discard animals", http.StatusForbidden)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		var req discardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Discard(r.Context(), species, chi.URLParam(r, "animalID"), req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a, nil, nil, nil))
	}
}

func slaughterAnimalHandler(svc *Service, rec SlaughterRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can slaughter animals", http.StatusForbidden)
			return
		}

		species, ok := ParseSpecies(chi.URLParam(r, "species"))
		if !ok || species != SpeciesRabbit {
			// Por ahora el flujo de congelador solo existe para conejos.
			http.Error(w, "slaughter is only supported for rabbits", http.StatusBadRequest)
			return
		}

		a, err := svc.Slaughter(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if rec != nil && a.SlaughteredDate != nil {
			// El sacrificio ya quedó aplicado; el historial es secundario.
			_ = rec.RecordSlaughter(r.Context(), a.ID, p.Subject, *a.SlaughteredDate)
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(a, nil, nil, nil))
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toAnimalResponse(a Animal, mother, father *ParentRef, children []ChildRef) animalResponse {
	resp := animalResponse{
		ID:              a.ID,
		Species:         string(a.Species),
		Name:            a.Name,
		Tag:             a.Tag,
		Image:           a.Image,
		BirthDate:       a.BirthDate,
		Gender:          string(a.Gender),
		Origin:          string(a.Origin),
		MotherID:        a.MotherID,
		FatherID:        a.FatherID,
		PurchaseDate:    a.PurchaseDate,
		PurchasePrice:   a.PurchasePrice,
		PurchaseVendor:  a.PurchaseVendor,
		IsBreeder:       a.IsBreeder,
		Status:          string(a.Status),
		StatusReason:    a.StatusReason,
		SlaughteredDate: a.SlaughteredDate,
		InFreezer:       a.InFreezer,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}

	if mother != nil {
		resp.Mother = &parentRef{ID: mother.ID, Name: mother.Name, Species: string(mother.Species)}
	}
	if father != nil {
		resp.Father = &parentRef{ID: father.ID, Name: father.Name, Species: string(father.Species)}
	}
	for _, c := range children {
		resp.Children = append(resp.Children, childRef{
			ID:        c.ID,
			Name:      c.Name,
			Species:   string(c.Species),
			Gender:    string(c.Gender),
			BirthDate: c.BirthDate,
		})
	}

	return resp
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
