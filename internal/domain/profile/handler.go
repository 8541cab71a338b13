package profile

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sementes/sementes-api/internal/middleware"
	"github.com/sementes/sementes-api/internal/pkg/response"
	"github.com/sementes/sementes-api/internal/pkg/validator"
)

type Handler struct {
	repo *Repository
}

type createCreatorRequest struct {
	Bio string `json:"bio" validate:"max=500"`
}

type createPartnerRequest struct {
	StoreName string `json:"store_name" validate:"required,min=2,max=100"`
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) CreateCreator(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createCreatorRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	p := &CreatorProfile{ID: uuid.New(), UserID: userID, Bio: req.Bio}
	if err := h.repo.CreateCreator(r.Context(), p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			response.Conflict(w, "creator profile already exists")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, p)
}

func (h *Handler) CreatePartner(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createPartnerRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	p := &PartnerProfile{ID: uuid.New(), UserID: userID, StoreName: req.StoreName}
	if err := h.repo.CreatePartner(r.Context(), p); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			response.Conflict(w, "partner profile already exists")
			return
		}
		response.InternalError(w)
		return
	}

	response.Created(w, p)
}

func (h *Handler) MyCreator(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p, err := h.repo.GetCreatorByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "creator profile not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

func (h *Handler) MyPartner(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p, err := h.repo.GetPartnerByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "partner profile not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, p)
}

// RegisterContent records a new piece of published content for the
// calling creator
func (h *Handler) RegisterContent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.repo.RegisterContent(r.Context(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "creator profile not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/creator", h.CreateCreator)
	r.Get("/creator/me", h.MyCreator)
	r.With(middleware.RequireCreator()).Post("/creator/content", h.RegisterContent)
	r.Post("/partner", h.CreatePartner)
	r.Get("/partner/me", h.MyPartner)
	return r
}
