package sales

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"granjas-del-carmen/internal/domain/animals"
	"granjas-del-carmen/internal/middleware"
	"granjas-del-carmen/internal/platform/metrics"
)

// RegisterRoutes cuelga:
//   - POST /animals/{species}/{animalID}/sell  (la operación atómica)
//   - GET  /animals/{species}/{animalID}/sales
//   - GET  /sales, GET /sales/{saleID}
//   - POST /sales/{saleID}/corrections, GET /sales/{saleID}/corrections
//
// m puede ser nil (tests).
func RegisterRoutes(r chi.Router, svc *Service, m *metrics.Metrics) {
	r.Post("/animals/{species}/{animalID}/sell", sellAnimalHandler(svc, m))
	r.Get("/animals/{species}/{animalID}/sales", listAnimalSalesHandler(svc))

	r.Route("/sales", func(sr chi.Router) {
		sr.Get("/", listSalesHandler(svc))
		sr.Get("/{saleID}", getSaleHandler(svc))
		sr.Post("/{saleID}/corrections", correctSaleHandler(svc))
		sr.Get("/{saleID}/corrections", listCorrectionsHandler(svc))
	})
}

type sellRequest struct {
	Price  float64  `json:"price"`
	Weight *float64 `json:"weight"`
	Height *float64 `json:"height"`
	Buyer  string   `json:"buyer"`
	Notes  string   `json:"notes"`
	Reason string   `json:"reason"`
}

type correctRequest struct {
	Price  *float64 `json:"price"`
	Buyer  *string  `json:"buyer"`
	Reason string   `json:"reason"`
}

type saleResponse struct {
	ID       string   `json:"id"`
	AnimalID string   `json:"animal_id"`
	Species  string   `json:"species"`
	Price    float64  `json:"price"`
	Weight   *float64 `json:"weight,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Buyer    string   `json:"buyer,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	SoldBy   string   `json:"sold_by"`

	SoldAt    time.Time `json:"sold_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type correctionResponse struct {
	ID          string    `json:"id"`
	SaleID      string    `json:"sale_id"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	OldBuyer    string    `json:"old_buyer,omitempty"`
	NewBuyer    string    `json:"new_buyer,omitempty"`
	Reason      string    `json:"reason"`
	CorrectedBy string    `json:"corrected_by"`
	CorrectedAt time.Time `json:"corrected_at"`
}

func sellAnimalHandler(svc *Service, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can sell animals", http.StatusForbidden)
			return
		}

		species, ok := animals.ParseSpecies(chi.URLParam(r, "species"))
		if !ok {
			http.Error(w, "unknown species", http.StatusNotFound)
			return
		}

		var req sellRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		// sold_by guarda el id local del usuario, no el subject del IdP.
		sale, err := svc.Sell(r.Context(), species, chi.URLParam(r, "animalID"), p.UserID, SellInput{
			Price:  req.Price,
			Weight: req.Weight,
			Height: req.Height,
			Buyer:  req.Buyer,
			Notes:  req.Notes,
			Reason: req.Reason,
		})
		if err != nil {
			writeSaleError(w, err)
			return
		}

		if m != nil {
			m.AnimalsSold.Inc()
		}
		writeJSON(w, http.StatusCreated, toSaleResponse(sale))
	}
}

func listAnimalSalesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByAnimal(r.Context(), chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSaleResponses(items))
	}
}

func listSalesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		q := r.URL.Query()
		filter := ListFilter{
			SoldBy: strings.TrimSpace(q.Get("sold_by")),
			Sort:   strings.ToLower(strings.TrimSpace(q.Get("sort"))),
		}
		if sp := strings.TrimSpace(q.Get("species")); sp != "" {
			species, ok := animals.ParseSpecies(sp)
			if !ok {
				http.Error(w, "unknown species", http.StatusBadRequest)
				return
			}
			filter.Species = species
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
		writeJSON(w, http.StatusOK, toSaleResponses(items))
	}
}

func getSaleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sale, err := svc.GetByID(r.Context(), chi.URLParam(r, "saleID"))
		if err != nil {
			http.Error(w, "sale not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toSaleResponse(sale))
	}
}

func correctSaleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.GetPrincipal(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !p.IsAdmin() {
			http.Error(w, "only administrators can correct sales", http.StatusForbidden)
			return
		}

		var req correctRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		sale, err := svc.Correct(r.Context(), chi.URLParam(r, "saleID"), p.UserID, CorrectInput{
			Price:  req.Price,
			Buyer:  req.Buyer,
			Reason: req.Reason,
		})
		if err != nil {
			writeSaleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSaleResponse(sale))
	}
}

func listCorrectionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetPrincipal(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListCorrections(r.Context(), chi.URLParam(r, "saleID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "sale not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]correctionResponse, 0, len(items))
		for _, c := range items {
			out = append(out, correctionResponse{
				ID:          c.ID,
				SaleID:      c.SaleID,
				OldPrice:    c.OldPrice,
				NewPrice:    c.NewPrice,
				OldBuyer:    c.OldBuyer,
				NewBuyer:    c.NewBuyer,
				Reason:      c.Reason,
				CorrectedBy: c.CorrectedBy,
				CorrectedAt: c.CorrectedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeSaleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, animals.ErrInvalidState):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, animals.ErrNotFound):
		http.Error(w, "animal not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "sale not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toSaleResponse(s Sale) saleResponse {
	return saleResponse{
		ID:        s.ID,
		AnimalID:  s.AnimalID,
		Species:   string(s.Species),
		Price:     s.Price,
		Weight:    s.Weight,
		Height:    s.Height,
		Buyer:     s.Buyer,
		Notes:     s.Notes,
		SoldBy:    s.SoldBy,
		SoldAt:    s.SoldAt,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toSaleResponses(items []Sale) []saleResponse {
	out := make([]saleResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSaleResponse(s))
	}
	return out
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// para no crear helpers compartidos antes de tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
