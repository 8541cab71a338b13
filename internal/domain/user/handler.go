package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sementes/sementes-api/internal/middleware"
	"github.com/sementes/sementes-api/internal/pkg/response"
	"github.com/sementes/sementes-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type donateRequest struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=255"`
}

type adjustRequest struct {
	Amount      int64  `json:"amount" validate:"required"`
	ReferenceID string `json:"reference_id" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, u)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	balance, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(w, "user not found")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]interface{}{"sementes": balance})
}

func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, txs)
}

func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req donateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		response.BadRequest(w, "invalid recipient id")
		return
	}

	donationID, err := h.svc.Donate(r.Context(), userID, recipientID, req.Amount, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "recipient not found")
		case errors.Is(err, ErrSelfDonation), errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrInsufficientFunds):
			response.ConflictWithCode(w, "INSUFFICIENT_FUNDS", "not enough sementes to donate")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, map[string]interface{}{"donation_id": donationID, "amount": req.Amount})
}

func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req adjustRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	err = h.svc.Adjust(r.Context(), targetID, req.Amount, req.ReferenceID, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, err.Error())
		case errors.Is(err, ErrReferenceConflict):
			response.ConflictWithCode(w, "REFERENCE_CONFLICT", "reference already applied with a different amount")
		case errors.Is(err, ErrInsufficientFunds):
			response.ConflictWithCode(w, "INSUFFICIENT_FUNDS", "adjustment would overdraw the balance")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, map[string]interface{}{"applied": req.Amount})
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/me", h.Me)
	r.Get("/me/balance", h.Balance)
	r.Get("/me/transactions", h.Transactions)
	r.Post("/me/donations", h.Donate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())
		r.Post("/{id}/adjustments", h.Adjust)
	})
	return r
}
