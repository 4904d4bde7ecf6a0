package products

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
)

// Handler serves the product API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a product handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers product routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/by-barcode/{code}", h.byBarcode)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Put("/{id}/image", h.replaceImage)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	products, err := h.service.List(r.Context(), q.Get("q"), page, limit)
	if err != nil {
		h.fail(w, r, "list products", err)
		return
	}
	views := make([]View, 0, len(products))
	for _, p := range products {
		views = append(views, ToView(p))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) byBarcode(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if httpx.StatusOf(err) == http.StatusNotFound && r.URL.Query().Get("soft") == "1" {
			httpx.JSON(w, http.StatusOK, map[string]bool{"found": false})
			return
		}
		h.fail(w, r, "product by barcode", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToView(product))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToView(product))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	product, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create product", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToView(product))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	product, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, "update product", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToView(product))
}

func (h *Handler) replaceImage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	var req ImageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if err := h.service.ReplaceImage(r.Context(), id, req.ImageDataURL); err != nil {
		h.fail(w, r, "replace product image", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusOf(err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err, "Server error")
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.Error(w, http.StatusBadRequest, "id inválido")
		return 0, false
	}
	return id, true
}
