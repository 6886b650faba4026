package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helix-id/helix/internal/platform/httpx"
)

// Handler serves the request/response user commands.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the users HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches the user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeInvalidOperation, "invalid request body")
		return
	}
	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	showDeleted := r.URL.Query().Get("show_deleted") == "true"

	user, err := h.service.Get(r.Context(), accountID, chi.URLParam(r, "id"), showDeleted)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := ListUsersRequest{
		AccountID:   query.Get("account_id"),
		Filter:      query.Get("filter_by"),
		OrderBy:     query.Get("order_by"),
		Descending:  query.Get("sorting_desc") == "true",
		Page:        atoiOrZero(query.Get("page")),
		PageSize:    atoiOrZero(query.Get("page_size")),
		ShowDeleted: query.Get("show_deleted") == "true",
	}
	page, err := h.service.List(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, httpx.TypeInvalidOperation, "invalid request body")
		return
	}
	user, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")

	user, err := h.service.Delete(r.Context(), accountID, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
