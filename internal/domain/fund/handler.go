package fund

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sementes/sementes-api/internal/pkg/response"
)

type Handler struct {
	svc           *Service
	triggerSecret string
}

func NewHandler(svc *Service, triggerSecret string) *Handler {
	return &Handler{svc: svc, triggerSecret: triggerSecret}
}

func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	cycle, total, err := h.svc.PendingTotal(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]interface{}{"cycle_number": cycle, "total": total})
}

func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
	fundID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid fund id")
		return
	}
	entries, err := h.svc.ListEntries(r.Context(), fundID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, entries)
}

// Distribute runs the distribution engine for the active cycle's fund.
// The trigger is redundant-safe: an already distributed or missing fund
// is acknowledged instead of failing, so schedulers can call blindly.
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Trigger-Secret")
	if h.triggerSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.triggerSecret)) != 1 {
		response.Unauthorized(w, "invalid trigger secret")
		return
	}

	result, err := h.svc.Distribute(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyDistributed), errors.Is(err, ErrNoOpenFund):
			response.OK(w, map[string]string{"result": "nothing to distribute"})
		case errors.Is(err, ErrNoBeneficiaries):
			response.OK(w, map[string]string{"result": "no eligible beneficiaries"})
		default:
			response.InternalError(w)
		}
		return
	}

	response.OK(w, result)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/pending", h.Pending)
		r.Get("/{id}/entries", h.Entries)
	})
	// Shared-secret trigger, no user session
	r.Post("/distribute", h.Distribute)
	return r
}
