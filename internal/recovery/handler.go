package recovery

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helix-id/helix/internal/platform/httpx"
)

// Handler serves the request/response recovery commands.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the recovery HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches recovery routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/password-recoveries/{token}", h.get)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	accountID := r.URL.Query().Get("account_id")

	rec, err := h.service.Validate(r.Context(), accountID, token)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}
