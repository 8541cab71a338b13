package cycle

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sementes/sementes-api/internal/middleware"
	"github.com/sementes/sementes-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Status serves the cycle status query; reading it is what triggers
// lazy rollover when a window has elapsed
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.svc.Status(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, status)
}

func (h *Handler) Pause(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Pause(r.Context()); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Resume(r.Context()); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	cycleNumber, err := strconv.ParseInt(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid cycle number")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.svc.Archive(r.Context(), cycleNumber, limit)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, entries)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.Status)
	r.Get("/{number}/archive", h.Archive)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware, middleware.RequireAdmin())
		r.Post("/pause", h.Pause)
		r.Post("/resume", h.Resume)
	})
	return r
}
