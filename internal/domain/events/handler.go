package events

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"granjas-del-carmen/internal/domain/animals"
	"granjas-del-carmen/internal/middleware"
)

// RegisterRoutes cuelga el historial bajo el animal:
//
//	GET  /animals/{species}/{animalID}/events
//	POST /animals/{species}/{animalID}/events
//	POST /events/{eventID}/void
func RegisterRoutes(r chi.Router, svc *Service, animalsSvc *animals.Service) {
	r.Get("/animals/{species}/{animalID}/events", listEventsHandler(svc, animalsSvc))
	r.Post("/animals/{species}/{animalID}/events", createEventHandler(svc, animalsSvc))
	r.Post("/events/{eventID}/void", voidEventHandler(svc))
}

type createEventRequest struct {
	Type        string `json:"type"`
	OccurredAt  string `json:"occurred_at"` // RFC3339
	Description string `json:"description"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	AnimalID    string    `json:"animal_id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	RecordedAt  time.Time `json:"recorded_at"`
	Description string    `json:"description,omitempty"`
	RecordedBy  string    `json:"recorded_by"`
	Status      string    `json:"status"`
}

func createEventHandler(svc *Service, animalsSvc *animals.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := animals.ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		a, err := animalsSvc.GetByID(r.Context(), species, chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}

		var req createEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		occurredAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.OccurredAt))
		if err != nil {
			http.Error(w, "occurred_at must be RFC3339", http.StatusBadRequest)
			return
		}

		e, err := svc.Record(r.Context(), a.ID, p.Subject, RecordInput{
			Type:        EventType(strings.ToUpper(strings.TrimSpace(req.Type))),
			OccurredAt:  occurredAt,
			Description: req.Description,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

func listEventsHandler(svc *Service, animalsSvc *animals.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		species, ok := animals.ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		a, err := animalsSvc.GetByID(r.Context(), species, chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}

		q := r.URL.Query()
		filter := ListFilter{}

		for _, t := range strings.Split(q.Get("types"), ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				filter.Types = append(filter.Types, EventType(t))
			}
		}
		if v := strings.TrimSpace(q.Get("from")); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "from must be RFC3339", http.StatusBadRequest)
				return
			}
			filter.From = &t
		}
		if v := strings.TrimSpace(q.Get("to")); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				http.Error(w, "to must be RFC3339", http.StatusBadRequest)
				return
			}
			filter.To = &t
		}
		if v := strings.TrimSpace(q.Get("limit")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			filter.Limit = n
		}

		items, err := svc.ListByAnimal(r.Context(), a.ID, filter)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]eventResponse, 0, len(items))
		for _, e := range items {
			out = append(out, toEventResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func voidEventHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		e, err := svc.Void(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "event not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func toEventResponse(e AnimalEvent) eventResponse {
	return eventResponse{
		ID:          e.ID,
		AnimalID:    e.AnimalID,
		Type:        string(e.Type),
		OccurredAt:  e.OccurredAt,
		RecordedAt:  e.RecordedAt,
		Description: e.Description,
		RecordedBy:  e.RecordedBy,
		Status:      string(e.Status),
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
