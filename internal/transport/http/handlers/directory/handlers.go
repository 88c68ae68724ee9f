package directoryhandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"payledger/internal/domain/audit"
	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service *directory.Service
	Audit   *audit.Service
}

func NewHandler(service *directory.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/employee/{employeeId}", h.handleGetProfile)
	r.Patch("/employee/{employeeId}", h.handleUpdateProfile)

	r.Route("/contracts", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/", h.handleOffer)
		r.Get("/{contractId}", h.handleGetContract)
		r.With(middleware.RequireRole(auth.RoleWorker, auth.RoleAdmin)).Post("/{contractId}/accept", h.handleAccept)
		r.With(middleware.RequireRole(auth.RoleWorker, auth.RoleAdmin)).Post("/{contractId}/reject", h.handleReject)
		r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Post("/{contractId}/revoke", h.handleRevoke)
	})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	workerID := chi.URLParam(r, "employeeId")
	if !h.canSeeWorker(r, actor, workerID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return
	}
	worker, err := h.Service.GetWorker(r.Context(), workerID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	api.Success(w, worker, middleware.GetRequestID(r.Context()))
}

// canSeeWorker admits the worker, an admin, or an employer the worker
// currently works for.
func (h *Handler) canSeeWorker(r *http.Request, actor auth.Actor, workerID string) bool {
	if actor.CanActForWorker(workerID) {
		return true
	}
	if !actor.IsEmployer() {
		return false
	}
	_, err := h.Service.GetEmployment(r.Context(), workerID, actor.CompanyID)
	return err == nil
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	workerID := chi.URLParam(r, "employeeId")
	if !actor.CanActForWorker(workerID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return
	}

	var payload directory.ProfileUpdate
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	worker, err := h.Service.UpdateProfile(r.Context(), workerID, payload)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionProfileUpdate, "worker", worker.ID, "", payload)
	api.Success(w, worker, reqID)
}

func (h *Handler) handleOffer(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload directory.OfferInput
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	if actor.IsEmployer() && payload.CompanyID == "" {
		payload.CompanyID = actor.CompanyID
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	if !actor.CanActForCompany(payload.CompanyID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return
	}

	contract, err := h.Service.OfferContract(r.Context(), payload)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionContractOffer, "contract", contract.ID, contract.CompanyID, contract)
	api.Created(w, contract, reqID)
}

func (h *Handler) handleGetContract(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	contract, ok := h.loadContract(w, r, actor)
	if !ok {
		return
	}
	api.Success(w, contract, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.AcceptContract)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RejectContract)
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.RevokeContract)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, contractID string) (directory.Contract, error)) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	contract, ok := h.loadContract(w, r, actor)
	if !ok {
		return
	}
	updated, err := apply(r.Context(), contract.ID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionContractDecide, "contract", updated.ID, updated.CompanyID, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

// loadContract fetches the contract named in the URL if actor is a party to it.
func (h *Handler) loadContract(w http.ResponseWriter, r *http.Request, actor auth.Actor) (directory.Contract, bool) {
	contract, err := h.Service.GetContract(r.Context(), chi.URLParam(r, "contractId"))
	if err != nil {
		shared.Fail(w, r, err)
		return directory.Contract{}, false
	}
	if !actor.CanActForCompany(contract.CompanyID) && !actor.CanActForWorker(contract.WorkerID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return directory.Contract{}, false
	}
	return contract, true
}
