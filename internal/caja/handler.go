package caja

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
	"github.com/almacen-pos/almacen/internal/shared"
)

// Handler exposes the ledger over JSON HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers ledger routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/open", h.open)
	r.Post("/movement", h.addMovement)
	r.Post("/close", h.close)
	r.Get("/historial", h.history)
	r.Get("/current", h.current)
	r.Get("/sessions/{id}", h.session)
}

type openRequest struct {
	OpeningAmount json.RawMessage `json:"opening_amount"`
	Description   *string         `json:"description"`
}

type movementRequest struct {
	Amount      json.RawMessage `json:"amount"`
	Kind        string          `json:"kind"`
	Description *string         `json:"description"`
}

type sessionView struct {
	ID            int64        `json:"id"`
	OpeningAmount json.Number  `json:"opening_amount"`
	Description   string       `json:"description"`
	OpenedAt      time.Time    `json:"opened_at"`
	ClosedAt      *time.Time   `json:"closed_at,omitempty"`
	ClosingAmount *json.Number `json:"closing_amount,omitempty"`
}

type summaryView struct {
	Ventas  json.Number `json:"ventas"`
	Egresos json.Number `json:"egresos"`
	Neto    json.Number `json:"neto"`
}

type closedView struct {
	sessionView
	Resumen summaryView `json:"resumen"`
}

type movementView struct {
	ID          int64       `json:"id"`
	SessionID   int64       `json:"session_id"`
	Amount      json.Number `json:"amount"`
	Kind        Kind        `json:"kind"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"created_at"`
}

type detailView struct {
	sessionView
	Resumen     summaryView    `json:"resumen"`
	Movimientos []movementView `json:"movimientos,omitempty"`
}

func (h *Handler) open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, r, errInvalidBody, "Error al abrir caja")
		return
	}
	amount, ok := parseAmount(req.OpeningAmount)
	if !ok {
		h.respondError(w, r, errInvalidOpeningAmount, "Error al abrir caja")
		return
	}
	in := OpenInput{OpeningAmount: amount}
	if req.Description != nil {
		in.Description = *req.Description
	}
	session, err := h.service.Open(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err, "Error al abrir caja")
		return
	}
	httpx.JSON(w, http.StatusCreated, toSessionView(session))
}

func (h *Handler) addMovement(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, r, errInvalidBody, "Error al registrar movimiento")
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		h.respondError(w, r, errInvalidAmount, "Error al registrar movimiento")
		return
	}
	kind, ok := ParseKind(req.Kind)
	if !ok {
		h.respondError(w, r, errInvalidKind, "Error al registrar movimiento")
		return
	}
	movement, err := h.service.AddMovement(r.Context(), MovementInput{Amount: amount, Kind: kind, Description: req.Description})
	if err != nil {
		h.respondError(w, r, err, "Error al registrar movimiento")
		return
	}
	httpx.JSON(w, http.StatusCreated, toMovementView(movement))
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	closed, err := h.service.Close(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Error al cerrar caja")
		return
	}
	httpx.JSON(w, http.StatusOK, closedView{
		sessionView: toSessionView(closed.Session),
		Resumen:     toSummaryView(closed.Summary),
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.respondError(w, r, err, "Error al listar sesiones")
		return
	}
	sessions, err := h.service.History(r.Context(), page)
	if err != nil {
		h.respondError(w, r, err, "Error al listar sesiones")
		return
	}
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toSessionView(s))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Current(r.Context())
	if err != nil {
		h.respondError(w, r, err, "Error al obtener caja")
		return
	}
	httpx.JSON(w, http.StatusOK, toDetailView(detail))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.respondError(w, r, errInvalidID, "Error al obtener sesión")
		return
	}
	detail, err := h.service.Session(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "Error al obtener sesión")
		return
	}
	view := toDetailView(detail)
	if view.Movimientos == nil {
		view.Movimientos = []movementView{}
	}
	httpx.JSON(w, http.StatusOK, view)
}

// respondError maps ledger error kinds to HTTP. Conflict and precondition
// failures are reported as 400, matching what register clients expect.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ledgerErr *Error
	if !errors.As(err, &ledgerErr) {
		h.logger.ErrorContext(r.Context(), "caja request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, fallback)
		return
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrPrecondition):
		httpx.Error(w, http.StatusBadRequest, ledgerErr.Message)
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, ledgerErr.Message)
	default:
		httpx.Error(w, http.StatusInternalServerError, fallback)
	}
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, false
		}
		text = strings.TrimSpace(s)
	}
	return shared.ParseAmount(text)
}

// parsePage reads limit and offset; range checks belong to Page.Validate.
func parsePage(r *http.Request) (Page, error) {
	var page Page
	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, errInvalidLimit
		}
		page.Limit = n
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, errInvalidOffset
		}
		page.Offset = n
	}
	return page, nil
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func toSessionView(s Session) sessionView {
	view := sessionView{
		ID:            s.ID,
		OpeningAmount: number(s.OpeningAmount),
		Description:   s.Description,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
	}
	if s.ClosingAmount != nil {
		n := number(*s.ClosingAmount)
		view.ClosingAmount = &n
	}
	return view
}

func toSummaryView(s Summary) summaryView {
	return summaryView{Ventas: number(s.Sales), Egresos: number(s.Outflow), Neto: number(s.Net)}
}

func toMovementView(m Movement) movementView {
	return movementView{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Amount:      number(m.Amount),
		Kind:        m.Kind,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func toDetailView(d SessionDetail) detailView {
	view := detailView{
		sessionView: toSessionView(d.Session),
		Resumen:     toSummaryView(d.Summary),
	}
	if d.Movements != nil {
		view.Movimientos = make([]movementView, 0, len(d.Movements))
		for _, m := range d.Movements {
			view.Movimientos = append(view.Movimientos, toMovementView(m))
		}
	}
	return view
}
