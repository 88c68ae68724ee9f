package referralhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"payledger/internal/domain/audit"
	"payledger/internal/domain/referral"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service *referral.Service
	Audit   *audit.Service
}

func NewHandler(service *referral.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	r.With(guard).Post("/referral/credit", h.handleCredit)
}

type creditPayload struct {
	WorkerID string `json:"workerId"`
	Action   string `json:"action" validate:"required,oneof=registration job_application"`
}

func (h *Handler) handleCredit(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload creditPayload
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	if actor.IsWorker() && payload.WorkerID == "" {
		payload.WorkerID = actor.WorkerID
	}
	v := shared.NewValidator()
	v.Struct(payload)
	v.Required("workerId", payload.WorkerID, "is required")
	if v.Reject(w, reqID) {
		return
	}

	outcome, err := h.Service.CreditOnFirstQualifyingAction(r.Context(), payload.WorkerID, payload.Action, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	if outcome.Credited {
		h.Audit.Record(r.Context(), actor, audit.ActionReferralCredit, "worker", payload.WorkerID, "", outcome)
	}
	api.Success(w, outcome, reqID)
}
