package cashback

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sementes/sementes-api/internal/middleware"
	"github.com/sementes/sementes-api/internal/pkg/response"
	"github.com/sementes/sementes-api/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type generateRequest struct {
	Value int64 `json:"value" validate:"required,gt=0"`
	Count int   `json:"count" validate:"required,gte=1"`
}

type redeemRequest struct {
	CodeID string `json:"code_id" validate:"required,uuid"`
}

type codeResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Value     int64  `json:"value"`
	Used      bool   `json:"used"`
	ExpiresAt string `json:"expires_at"`
}

func toCodeResponse(c Code) codeResponse {
	return codeResponse{
		ID:        c.ID.String(),
		Code:      c.Code,
		Value:     c.Value,
		Used:      c.Used,
		ExpiresAt: c.ExpiresAt.Format(time.RFC3339),
	}
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	partnerID := middleware.GetUserID(r.Context())

	var req generateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	codes, err := h.service.GenerateCodes(r.Context(), partnerID, req.Value, req.Count)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidValue):
			response.BadRequest(w, "value must be positive")
		case errors.Is(err, ErrInvalidCount):
			response.BadRequest(w, "count out of range")
		default:
			response.InternalError(w)
		}
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	response.Created(w, map[string]interface{}{"codes": out})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	partnerID := middleware.GetUserID(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	codes, err := h.service.ListByPartner(r.Context(), partnerID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	unused, err := h.service.UnusedCount(r.Context(), partnerID)
	if err != nil {
		response.InternalError(w)
		return
	}

	out := make([]codeResponse, 0, len(codes))
	for _, c := range codes {
		out = append(out, toCodeResponse(c))
	}
	response.OK(w, map[string]interface{}{"codes": out, "unused": unused})
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req redeemRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	codeID, err := uuid.Parse(req.CodeID)
	if err != nil {
		response.BadRequest(w, "invalid code id")
		return
	}

	credited, err := h.service.Redeem(r.Context(), codeID, userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "code not found")
		case errors.Is(err, ErrAlreadyUsed):
			response.ConflictWithCode(w, "CODE_ALREADY_USED", "code has already been redeemed")
		case errors.Is(err, ErrExpired):
			response.ConflictWithCode(w, "CODE_EXPIRED", "code has expired")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"credited": credited})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/redeem", h.Redeem)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePartner())
		r.Post("/codes", h.Generate)
		r.Get("/codes", h.List)
	})

	return r
}
