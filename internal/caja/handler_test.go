package caja

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (http.Handler, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	handler := NewHandler(nil, newTestService(repo))
	r := chi.NewRouter()
	r.Route("/api/caja", handler.MountRoutes)
	return r, repo
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var payload map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestHandlerOpenThenConflict(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":1000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, float64(1000), body["opening_amount"])
	require.Equal(t, DefaultOpenDescription, body["description"])
	require.NotContains(t, body, "closed_at")
	require.NotContains(t, body, "closing_amount")

	rec, body = do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":1000}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Ya hay una caja abierta", body["error"])
}

func TestHandlerMovementsAndClose(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":"1000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":500,"kind":"sale"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "sale", body["kind"])
	require.Equal(t, float64(500), body["amount"])
	require.Nil(t, body["description"])

	rec, body = do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":200,"kind":"egreso","description":"hielo"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "expense", body["kind"])
	require.Equal(t, "hielo", body["description"])

	rec, body = do(t, router, http.MethodPost, "/api/caja/close", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1300), body["closing_amount"])
	require.NotEmpty(t, body["closed_at"])
	resumen, ok := body["resumen"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(500), resumen["ventas"])
	require.Equal(t, float64(200), resumen["egresos"])
	require.Equal(t, float64(1300), resumen["neto"])
}

func TestHandlerRejectsNegativeAmount(t *testing.T) {
	router, repo := newTestRouter(t)
	rec, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":-10,"kind":"sale"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Monto inválido", body["error"])
	require.Empty(t, repo.movements)
}

func TestHandlerRejectsOutOfRangeAmounts(t *testing.T) {
	router, repo := newTestRouter(t)

	cases := []struct {
		path string
		body string
		want string
	}{
		{path: "/api/caja/open", body: `{"opening_amount":1e99999999}`, want: "Monto inicial inválido"},
		{path: "/api/caja/open", body: `{"opening_amount":1e15}`, want: "Monto inicial inválido"},
		{path: "/api/caja/open", body: `{"opening_amount":"1000000000000"}`, want: "Monto inicial inválido"},
	}
	for _, tc := range cases {
		rec, body := do(t, router, http.MethodPost, tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		require.Equal(t, tc.want, body["error"], tc.body)
	}
	require.Empty(t, repo.sessions)

	rec, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/caja/movement", strings.NewReader(`{"amount":1e99999999,"kind":"sale"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		done <- rec
	}()
	select {
	case rec := <-done:
		require.Equal(t, http.StatusBadRequest, rec.Code)
	case <-time.After(2 * time.Second):
		t.Fatal("movement with a huge exponent was not rejected promptly")
	}

	for _, amount := range []string{`1e-99999999`, `1e12`, `"999999999999.995"`} {
		rec, body := do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":`+amount+`,"kind":"sale"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code, amount)
		require.Equal(t, "Monto inválido", body["error"], amount)
	}
	require.Empty(t, repo.movements)

	rec, _ = do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":999999999999.99,"kind":"sale"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestHandlerRejectsUnknownKind(t *testing.T) {
	router, repo := newTestRouter(t)
	rec, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":50,"kind":"refund"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "Tipo inválido", body["error"])
	require.Empty(t, repo.movements)
}

func TestHandlerCloseTwice(t *testing.T) {
	router, _ := newTestRouter(t)
	rec, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, router, http.MethodPost, "/api/caja/close", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, router, http.MethodPost, "/api/caja/close", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No hay caja abierta", body["error"])
}

func TestHandlerOpenValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	cases := []struct {
		body string
		want string
	}{
		{body: `{}`, want: "Monto inicial inválido"},
		{body: `{"opening_amount":null}`, want: "Monto inicial inválido"},
		{body: `{"opening_amount":"abc"}`, want: "Monto inicial inválido"},
		{body: `{"opening_amount":-1}`, want: "Monto inicial inválido"},
		{body: `{"opening_amount":`, want: "JSON inválido"},
	}
	for _, tc := range cases {
		rec, body := do(t, router, http.MethodPost, "/api/caja/open", tc.body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.body)
		require.Equal(t, tc.want, body["error"], tc.body)
	}
}

func TestHandlerHistory(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/caja/historial", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < 2; i++ {
		r, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":5}`)
		require.Equal(t, http.StatusCreated, r.Code)
		r, _ = do(t, router, http.MethodPost, "/api/caja/close", "")
		require.Equal(t, http.StatusOK, r.Code)
	}
	r, _ := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":7.5}`)
	require.Equal(t, http.StatusCreated, r.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/caja/historial", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 3)
	require.Equal(t, 7.5, sessions[0]["opening_amount"])
	require.NotContains(t, sessions[0], "closed_at")
	require.Contains(t, sessions[1], "closed_at")
	require.Greater(t, sessions[1]["id"].(float64), sessions[2]["id"].(float64))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/caja/historial?limit=1&offset=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/caja/historial?limit=x", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	for query, want := range map[string]string{"limit=-1": "limit inválido", "offset=-1": "offset inválido", "offset=y": "offset inválido"} {
		rec, body := do(t, router, http.MethodGet, "/api/caja/historial?"+query, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, query)
		require.Equal(t, want, body["error"], query)
	}
}

func TestHandlerCurrentAndSession(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodGet, "/api/caja/current", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "No hay caja abierta", body["error"])

	rec, opened := do(t, router, http.MethodPost, "/api/caja/open", `{"opening_amount":100,"description":"mañana"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, router, http.MethodPost, "/api/caja/movement", `{"amount":"12.345","kind":"pago"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = do(t, router, http.MethodGet, "/api/caja/current", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "mañana", body["description"])
	resumen := body["resumen"].(map[string]any)
	require.Equal(t, 12.35, resumen["egresos"])
	require.Equal(t, 87.65, resumen["neto"])

	id := int64(opened["id"].(float64))
	rec, body = do(t, router, http.MethodGet, "/api/caja/sessions/"+strconv.FormatInt(id, 10), "")
	require.Equal(t, http.StatusOK, rec.Code)
	movements := body["movimientos"].([]any)
	require.Len(t, movements, 1)

	rec, body = do(t, router, http.MethodGet, "/api/caja/sessions/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Sesión no encontrada", body["error"])

	rec, _ = do(t, router, http.MethodGet, "/api/caja/sessions/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: `10`, want: "10", ok: true},
		{raw: `"10.50"`, want: "10.5", ok: true},
		{raw: `" 3 "`, want: "3", ok: true},
		{raw: `1e2`, want: "100", ok: true},
		{raw: `1e99999999`, ok: false},
		{raw: `"1e-99999999"`, ok: false},
		{raw: `""`, ok: false},
		{raw: `null`, ok: false},
		{raw: `true`, ok: false},
		{raw: ``, ok: false},
	}
	for _, tc := range cases {
		got, ok := parseAmount(json.RawMessage(tc.raw))
		require.Equal(t, tc.ok, ok, tc.raw)
		if tc.ok {
			require.Equal(t, tc.want, got.String(), tc.raw)
		}
	}
}
