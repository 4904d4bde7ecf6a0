package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
)

// Handler exposes registration and login.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)
}

type userView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Direccion string `json:"direccion"`
	Role      string `json:"role"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Faltan campos")
		return
	}
	u, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.fail(w, r, "register user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(u))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Faltan campos")
		return
	}
	u, err := h.service.Authenticate(r.Context(), in)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(u))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.StatusOf(err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), op+" failed", slog.Any("error", err))
	}
	httpx.RespondError(w, err, "Server error")
}

func toView(u User) userView {
	return userView{ID: u.ID, Name: u.Name, Direccion: u.Direccion, Role: u.Role}
}
