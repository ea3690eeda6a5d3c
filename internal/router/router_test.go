package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"granjas-del-carmen/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{})) // sin verifier ni DB: modo dev in-memory
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_SellFlow(t *testing.T) {
	ts := newTestServer(t)

	adminID := "auth0|admin"
	userID := "auth0|user"

	// 1) Alta de un conejo
	rabbitID := createAnimal(t, ts.URL, userID, "rabbit", map[string]any{
		"name":   "Bugs",
		"gender": "MALE",
		"tag":    "R-001",
	})

	// 2) Un usuario común no puede vender
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/sell", userID, "USER", map[string]any{
			"price": 120.5,
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 sell by non-admin, got %d", st)
		}
	}

	// 3) Admin vende
	var saleID string
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/sell", adminID, "ADMIN", map[string]any{
			"price": 120.5,
			"buyer": "Don José",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 sell, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID     string  `json:"id"`
			Price  float64 `json:"price"`
			SoldBy string  `json:"sold_by"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Price != 120.5 || resp.SoldBy != adminID {
			t.Fatalf("unexpected sale body=%s", string(body))
		}
		saleID = resp.ID
	}

	// 4) El animal quedó SOLD
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID, userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get animal, got %d", st)
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "SOLD" {
			t.Fatalf("expected status SOLD, got %q body=%s", resp.Status, string(body))
		}
	}

	// 5) Segunda venta rechazada
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/sell", adminID, "ADMIN", map[string]any{
			"price": 99,
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on second sell, got %d", st)
		}
	}

	// 6) La venta aparece en el historial del animal
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID+"/sales", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list animal sales, got %d", st)
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 sale, got %d body=%s", len(items), string(body))
		}
	}

	// 7) Corrección de la venta con auditoría
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/sales/"+saleID+"/corrections", adminID, "ADMIN", map[string]any{
			"price":  110.0,
			"reason": "precio mal tipeado",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 correct sale, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/api/v1/sales/"+saleID+"/corrections", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list corrections, got %d", st)
		}
		var corrs []struct {
			OldPrice float64 `json:"old_price"`
			NewPrice float64 `json:"new_price"`
		}
		_ = json.Unmarshal(body, &corrs)
		if len(corrs) != 1 || corrs[0].OldPrice != 120.5 || corrs[0].NewPrice != 110.0 {
			t.Fatalf("unexpected corrections body=%s", string(body))
		}
	}

	// 8) El animal vendido no se puede borrar
	{
		st, _ := doReq(t, ts.URL, "DELETE", "/api/v1/animals/rabbit/"+rabbitID, adminID, "ADMIN", nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 deleting sold animal, got %d", st)
		}
	}
}

func TestHTTP_SlaughterThenSellFromFreezer(t *testing.T) {
	ts := newTestServer(t)

	adminID := "auth0|admin"

	rabbitID := createAnimal(t, ts.URL, adminID, "rabbit", map[string]any{
		"name":   "Conejo",
		"gender": "MALE",
	})
	cowID := createAnimal(t, ts.URL, adminID, "cow", map[string]any{
		"name":   "Vaca",
		"gender": "FEMALE",
	})

	// Solo conejos se sacrifican
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/animals/cow/"+cowID+"/slaughter", adminID, "ADMIN", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 slaughtering a cow, got %d", st)
		}
	}

	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/slaughter", adminID, "ADMIN", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 slaughter, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status    string `json:"status"`
			InFreezer bool   `json:"in_freezer"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "SLAUGHTERED" || !resp.InFreezer {
			t.Fatalf("expected SLAUGHTERED in freezer, body=%s", string(body))
		}
	}

	// El sacrificio queda en el historial del animal
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID+"/events", adminID, "ADMIN", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list events, got %d", st)
		}
		var items []struct {
			Type       string `json:"type"`
			RecordedBy string `json:"recorded_by"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Type != "SLAUGHTER" {
			t.Fatalf("expected one SLAUGHTER event, body=%s", string(body))
		}
		if items[0].RecordedBy != adminID {
			t.Fatalf("expected slaughter recorded by admin, body=%s", string(body))
		}
	}

	// Desde el congelador todavía se vende
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/sell", adminID, "ADMIN", map[string]any{
			"price":  80,
			"reason": "Venta de carne",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 sell from freezer, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_ParentsAndChildren(t *testing.T) {
	ts := newTestServer(t)
	userID := "auth0|user"

	motherID := createAnimal(t, ts.URL, userID, "rabbit", map[string]any{
		"name":   "Mamá",
		"gender": "FEMALE",
	})

	kidID := createAnimal(t, ts.URL, userID, "rabbit", map[string]any{
		"name":      "Cría",
		"gender":    "MALE",
		"origin":    "BORN",
		"mother_id": motherID,
	})

	// Padre de otra especie => 400
	{
		cowID := createAnimal(t, ts.URL, userID, "cow", map[string]any{
			"name":   "Toro",
			"gender": "MALE",
		})
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit", userID, "USER", map[string]any{
			"name":      "Imposible",
			"gender":    "MALE",
			"origin":    "BORN",
			"father_id": cowID,
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for cross-species father, got %d", st)
		}
	}

	// La madre lista a su cría
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+motherID+"?include_children=true", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get mother, got %d", st)
		}
		var resp struct {
			Children []struct {
				ID string `json:"id"`
			} `json:"children"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Children) != 1 || resp.Children[0].ID != kidID {
			t.Fatalf("expected kid in children, body=%s", string(body))
		}
	}

	// La cría resuelve a su madre
	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+kidID, userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get kid, got %d", st)
		}
		var resp struct {
			Mother *struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"mother"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Mother == nil || resp.Mother.ID != motherID {
			t.Fatalf("expected mother ref, body=%s", string(body))
		}
	}
}

func TestHTTP_SpeciesScoping(t *testing.T) {
	ts := newTestServer(t)
	userID := "auth0|user"

	rabbitID := createAnimal(t, ts.URL, userID, "rabbit", map[string]any{
		"name":   "Bugs",
		"gender": "MALE",
	})

	// El mismo id bajo otra especie es 404
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/animals/cow/"+rabbitID, userID, "USER", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 across species, got %d", st)
		}
	}

	// Especie desconocida es 404
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/animals/dragon", userID, "USER", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for unknown species, got %d", st)
		}
	}

	// Sin identidad es 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit", "", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without identity, got %d", st)
		}
	}
}

func TestHTTP_ListReflectsCreatesAndDeletes(t *testing.T) {
	ts := newTestServer(t)
	adminID := "auth0|admin"

	ids := make([]string, 0, 3)
	for _, name := range []string{"Uno", "Dos", "Tres"} {
		ids = append(ids, createAnimal(t, ts.URL, adminID, "chicken", map[string]any{
			"name":   name,
			"gender": "FEMALE",
		}))
	}

	{
		st, _ := doReq(t, ts.URL, "DELETE", "/api/v1/animals/chicken/"+ids[0], adminID, "ADMIN", nil)
		if st != http.StatusNoContent {
			t.Fatalf("expected 204 delete, got %d", st)
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/chicken", adminID, "ADMIN", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", st)
	}
	var items []map[string]any
	_ = json.Unmarshal(body, &items)
	if len(items) != 2 {
		t.Fatalf("expected 2 animals after 3 creates and 1 delete, got %d", len(items))
	}

	// El borrado ya no se encuentra
	{
		st, _ := doReq(t, ts.URL, "GET", "/api/v1/animals/chicken/"+ids[0], adminID, "ADMIN", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 for deleted animal, got %d", st)
		}
	}
}

func TestHTTP_EventsLifecycle(t *testing.T) {
	ts := newTestServer(t)
	userID := "auth0|user"

	rabbitID := createAnimal(t, ts.URL, userID, "rabbit", map[string]any{
		"name":   "Bugs",
		"gender": "MALE",
	})

	var eventID string
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/events", userID, "USER", map[string]any{
			"type":        "TREATMENT",
			"occurred_at": time.Now().UTC().Format(time.RFC3339),
			"description": "antiparasitario",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create event, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		eventID = resp.ID
	}

	{
		st, body := doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID+"/events", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list events, got %d", st)
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 {
			t.Fatalf("expected 1 event, got %d body=%s", len(items), string(body))
		}
	}

	// limit acota el listado (el más reciente primero)
	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/animals/rabbit/"+rabbitID+"/events", userID, "USER", map[string]any{
			"type":        "NOTE",
			"occurred_at": time.Now().UTC().Add(time.Hour).Format(time.RFC3339),
			"description": "control de peso",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 second event, got %d body=%s", st, string(body))
		}

		st, body = doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID+"/events?limit=1", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 limited list, got %d", st)
		}
		var items []struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Type != "NOTE" {
			t.Fatalf("expected only the newest event with limit=1, body=%s", string(body))
		}

		st, _ = doReq(t, ts.URL, "GET", "/api/v1/animals/rabbit/"+rabbitID+"/events?limit=cero", userID, "USER", nil)
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for non-numeric limit, got %d", st)
		}
	}

	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/events/"+eventID+"/void", userID, "USER", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 void event, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "voided" {
			t.Fatalf("expected voided event, body=%s", string(body))
		}
	}
}

func TestHTTP_MeCreatesUserOnFirstLogin(t *testing.T) {
	ts := newTestServer(t)

	st, body := doReq(t, ts.URL, "GET", "/api/v1/auth/me", "auth0|nuevo", "USER", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 me, got %d body=%s", st, string(body))
	}
	var resp struct {
		Subject string `json:"subject"`
		Role    string `json:"role"`
		Active  bool   `json:"active"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Subject != "auth0|nuevo" || resp.Role != "USER" || !resp.Active {
		t.Fatalf("unexpected me body=%s", string(body))
	}

	// login-url sin auth0 configurado => 503
	st, _ = doReq(t, ts.URL, "GET", "/api/v1/auth/login-url", "auth0|nuevo", "USER", nil)
	if st != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 login-url in dev mode, got %d", st)
	}
}

func TestHTTP_AdminCreatesUser(t *testing.T) {
	ts := newTestServer(t)

	adminID := "auth0|admin"

	// Un usuario común no da de alta usuarios
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/users", "auth0|user", "USER", map[string]any{
			"email": "peon@granja.test",
		})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 create user by non-admin, got %d", st)
		}
	}

	{
		st, body := doReq(t, ts.URL, "POST", "/api/v1/users", adminID, "ADMIN", map[string]any{
			"email": "peon@granja.test",
			"name":  "Peón",
			"role":  "VIEWER",
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create user, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID      string `json:"id"`
			Subject string `json:"subject"`
			Role    string `json:"role"`
			Active  bool   `json:"active"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" || resp.Subject != "" || resp.Role != "VIEWER" || !resp.Active {
			t.Fatalf("unexpected created user body=%s", string(body))
		}
	}

	// Email repetido => 409
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/users", adminID, "ADMIN", map[string]any{
			"email": "peon@granja.test",
		})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 duplicate email, got %d", st)
		}
	}

	// Sin email => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/api/v1/users", adminID, "ADMIN", map[string]any{
			"name": "Sin Correo",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 without email, got %d", st)
		}
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", res.StatusCode)
	}

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 metrics, got %d", res.StatusCode)
	}
}

func createAnimal(t *testing.T, baseURL, userID, species string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/api/v1/animals/"+species, userID, "USER", payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create animal, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create animal: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if debugRole != "" {
		req.Header.Set("X-Debug-Role", debugRole)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
