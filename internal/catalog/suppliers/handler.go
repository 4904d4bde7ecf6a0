package suppliers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
)

// Handler serves the supplier API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a supplier handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

type supplierView struct {
	ID       int64     `json:"id"`
	Nombre   string    `json:"nombre"`
	Contacto *string   `json:"contacto"`
	CreadoEn time.Time `json:"creado_en"`
}

type productView struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Barcode string       `json:"barcode"`
	Price   *json.Number `json:"price"`
	Costo   json.Number  `json:"costo"`
}

type unassignedView struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name"`
	Barcode string       `json:"barcode"`
	Price   *json.Number `json:"price"`
}

type catalogView struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Barcode         string       `json:"barcode"`
	Price           *json.Number `json:"price"`
	ProveedorID     *int64       `json:"proveedor_id"`
	ProveedorNombre *string      `json:"proveedor_nombre"`
	Costo           *json.Number `json:"costo"`
}

type assignView struct {
	Success     bool    `json:"success"`
	ProveedorID int64   `json:"proveedor_id"`
	Productos   []int64 `json:"productos"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, r, "list suppliers", err)
		return
	}
	views := make([]supplierView, 0, len(suppliers))
	for _, s := range suppliers {
		views = append(views, toSupplierView(s))
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	sup, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create supplier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSupplierView(sup))
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Datos inválidos")
		return
	}
	a, err := h.service.Assign(r.Context(), req)
	if err != nil {
		h.fail(w, r, "assign supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignView{Success: true, ProveedorID: a.ProveedorID, Productos: a.Productos})
}

func (h *Handler) productsOf(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	products, err := h.service.ProductsOf(r.Context(), id)
	if err != nil {
		h.fail(w, r, "list supplier products", err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{ID: p.ID, Name: p.Name, Barcode: p.Barcode, Price: number(p.Price), Costo: json.Number(p.Costo.String())})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) unassigned(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Unassigned(r.Context())
	if err != nil {
		h.fail(w, r, "list unassigned products", err)
		return
	}
	views := make([]unassignedView, 0, len(products))
	for _, p := range products {
		views = append(views, unassignedView{ID: p.ID, Name: p.Name, Barcode: p.Barcode, Price: number(p.Price)})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Catalog(r.Context())
	if err != nil {
		h.fail(w, r, "list catalog", err)
		return
	}
	views := make([]catalogView, 0, len(products))
	for _, p := range products {
		views = append(views, catalogView{
			ID:              p.ID,
			Name:            p.Name,
			Barcode:         p.Barcode,
			Price:           number(p.Price),
			ProveedorID:     p.ProveedorID,
			ProveedorNombre: p.ProveedorNombre,
			Costo:           number(p.Costo),
		})
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) updateCost(w http.ResponseWriter, r *http.Request) {
	supplierID, ok := parseID(w, r, "proveedorId")
	if !ok {
		return
	}
	productID, ok := parseID(w, r, "productoId")
	if !ok {
		return
	}
	var req CostRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "JSON inválido")
		return
	}
	if err := h.service.UpdateCost(r.Context(), supplierID, productID, req); err != nil {
		h.fail(w, r, "update supplier cost", err)
		return
	}
	cost, _ := parseCost(req.Costo, true)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"proveedor_id": supplierID,
		"producto_id":  productID,
		"costo":        json.Number(cost.String()),
	})
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

func number(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

func toSupplierView(s Supplier) supplierView {
	return supplierView{ID: s.ID, Nombre: s.Nombre, Contacto: s.Contacto, CreadoEn: s.CreadoEn}
}
