package settlement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

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

type submitPurchaseRequest struct {
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	PartnerID string  `json:"partner_id" validate:"required,uuid"`
	Coupon    *string `json:"coupon,omitempty" validate:"omitempty,max=40"`
}

type requestSettlementRequest struct {
	ProofRef string `json:"proof_ref" validate:"omitempty,max=255"`
}

type proofUploadRequest struct {
	ContentType string `json:"content_type" validate:"required,max=100"`
}

// paymentWebhookPayload is the provider's confirmation callback body
type paymentWebhookPayload struct {
	PaymentID string `json:"payment_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Amount    int64  `json:"amount" validate:"gte=0"`
}

func (h *Handler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.GetUserID(r.Context())
	if buyerID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req submitPurchaseRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	partnerID, err := uuid.Parse(req.PartnerID)
	if err != nil {
		response.BadRequest(w, "invalid partner_id")
		return
	}

	p, err := h.svc.SubmitPurchase(r.Context(), buyerID, partnerID, req.Amount, req.Coupon)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ErrPartnerNotFound):
			response.NotFound(w, "partner not found")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, p)
}

func (h *Handler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid purchase id")
		return
	}

	p, err := h.svc.GetPurchase(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			response.NotFound(w, "purchase not found")
			return
		}
		response.InternalError(w)
		return
	}

	userID := middleware.GetUserID(r.Context())
	role := middleware.GetRole(r.Context())
	if p.BuyerID != userID && role != "admin" && role != "partner" {
		response.Forbidden(w, "not your purchase")
		return
	}

	response.OK(w, p)
}

func (h *Handler) ListMyPurchases(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	purchases, err := h.svc.ListPurchasesByBuyer(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, purchases)
}

func (h *Handler) RequestSettlement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid purchase id")
		return
	}

	var req requestSettlementRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	st, err := h.svc.RequestSettlement(r.Context(), id, req.ProofRef)
	if err != nil {
		switch {
		case errors.Is(err, ErrPurchaseNotFound):
			response.NotFound(w, "purchase not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, "purchase is not awaiting settlement")
		case errors.Is(err, ErrProofNotUploaded):
			response.BadRequest(w, "proof object was not uploaded")
		case errors.Is(err, ErrProofCheckFailed):
			response.BadGateway(w, "proof storage unavailable")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, st)
}

func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid settlement id")
		return
	}

	st, err := h.svc.GetSettlement(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrSettlementNotFound) {
			response.NotFound(w, "settlement not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, st)
}

func (h *Handler) ReleaseCashback(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid settlement id")
		return
	}

	st, err := h.svc.ReleaseCashback(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrSettlementNotFound):
			response.NotFound(w, "settlement not found")
		case errors.Is(err, ErrAlreadyReleased):
			response.ConflictWithCode(w, "ALREADY_RELEASED", "cashback already released")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, "settlement is not confirmed")
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, st)
}

func (h *Handler) RejectPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid purchase id")
		return
	}

	if err := h.svc.RejectPurchase(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrPurchaseNotFound):
			response.NotFound(w, "purchase not found")
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, "purchase is already terminal")
		default:
			response.InternalError(w)
		}
		return
	}

	response.NoContent(w)
}

func (h *Handler) CreateProofUpload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req proofUploadRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(req); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	key, url, err := h.svc.CreateProofUpload(r.Context(), userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Msg("proof presign failed")
		response.BadGateway(w, "proof storage unavailable")
		return
	}

	response.OK(w, map[string]string{"key": key, "upload_url": url})
}

// PaymentWebhook consumes the provider's confirmation callback.
// Deliveries are at-least-once and possibly out of order: duplicates
// and unknown payment ids are acknowledged with 200 so the provider
// stops retrying.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var payload paymentWebhookPayload
	if err := response.DecodeJSON(r.Body, &payload); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if fieldErrors := validator.Validate(payload); fieldErrors != nil {
		response.ValidationError(w, fieldErrors)
		return
	}

	switch payload.Status {
	case "approved", "paid":
		st, err := h.svc.ConfirmSettlement(r.Context(), payload.PaymentID, payload.Amount)
		if err != nil {
			switch {
			case errors.Is(err, ErrSettlementNotFound):
				log.Warn().Str("payment_id", payload.PaymentID).Msg("webhook for unknown payment, ignoring")
				response.OK(w, map[string]string{"result": "ignored"})
			case errors.Is(err, ErrAlreadyRejected):
				response.Conflict(w, "settlement already rejected")
			case errors.Is(err, ErrAmountMismatch):
				response.BadRequest(w, "confirmation amount does not match settlement")
			default:
				response.InternalError(w)
			}
			return
		}
		response.OK(w, map[string]string{"result": "confirmed", "settlement_id": st.ID.String()})

	case "failed", "cancelled":
		err := h.svc.FailSettlement(r.Context(), payload.PaymentID)
		if err != nil && !errors.Is(err, ErrSettlementNotFound) && !errors.Is(err, ErrInvalidTransition) {
			response.InternalError(w)
			return
		}
		response.OK(w, map[string]string{"result": "failed"})

	default:
		response.BadRequest(w, "unknown payment status")
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/purchases", h.SubmitPurchase)
	r.Get("/purchases", h.ListMyPurchases)
	r.Get("/purchases/{id}", h.GetPurchase)
	r.With(middleware.RequirePartner()).Post("/purchases/{id}/settlement", h.RequestSettlement)
	r.With(middleware.RequireAdmin()).Post("/purchases/{id}/reject", h.RejectPurchase)

	r.With(middleware.RequirePartner()).Get("/settlements/{id}", h.GetSettlement)
	r.With(middleware.RequireAdmin()).Post("/settlements/{id}/release", h.ReleaseCashback)
	r.With(middleware.RequirePartner()).Post("/settlements/proofs", h.CreateProofUpload)

	return r
}

// WebhookRoutes are mounted without auth; the provider does not carry
// platform credentials
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.PaymentWebhook)
	return r
}
