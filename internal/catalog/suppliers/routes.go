package suppliers

import "github.com/go-chi/chi/v5"

// MountRoutes registers supplier routes. Static segments are registered
// before the {id} patterns they would otherwise shadow.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/productos/asignar", h.assign)
	r.Get("/productos/sin-proveedor", h.unassigned)
	r.Get("/todos/productos", h.catalog)
	r.Get("/{id}/productos", h.productsOf)
	r.Put("/{proveedorId}/productos/{productoId}", h.updateCost)
}
