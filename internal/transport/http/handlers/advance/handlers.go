package advancehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/audit"
	"payledger/internal/domain/auth"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service   *advance.Service
	Directory shared.EmployerResolver
	Audit     *audit.Service
}

func NewHandler(service *advance.Service, dir shared.EmployerResolver, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: dir, Audit: auditSvc}
}

// RegisterRoutes mounts the advance endpoints. guard wraps the money-moving
// writes.
func (h *Handler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	deciders := middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)

	r.With(guard).Post("/advance", h.handleCreate)
	r.Get("/advance/{advanceId}", h.handleGet)
	r.Get("/employee/{employeeId}/advance", h.handleList)
	r.With(deciders, guard).Post("/advance/{advanceId}/approve", h.handleApprove)
	r.With(deciders, guard).Post("/advance/{advanceId}/reject", h.handleReject)
	r.With(middleware.RequireRole(auth.RoleAdmin)).Delete("/advance/{advanceId}", h.handleRemove)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload advance.CreateInput
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	if actor.IsWorker() && payload.WorkerID == "" {
		payload.WorkerID = actor.WorkerID
	}
	if payload.CompanyID == "" && payload.WorkerID != "" {
		if companyID, err := h.Directory.ActiveEmployerFor(r.Context(), payload.WorkerID); err == nil {
			payload.CompanyID = companyID
		}
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if !payload.Amount.IsPositive() {
		v.Add("amount", "must be greater than 0")
	}
	if v.Reject(w, reqID) {
		return
	}

	req, err := h.Service.Create(r.Context(), payload, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionAdvanceCreate, "advance", req.ID, req.CompanyID, req)
	api.Created(w, req, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "advanceId"), actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	workerID := chi.URLParam(r, "employeeId")
	companyID, err := shared.ResolveEmployer(r.Context(), h.Directory, actor, workerID, r.URL.Query().Get("employerId"))
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	requests, err := h.Service.List(r.Context(), workerID, companyID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	page := shared.Paginate(requests, shared.ParsePagination(r, shared.DefaultPageLimit, shared.MaxPageLimit))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Approve(r.Context(), chi.URLParam(r, "advanceId"), actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionAdvanceApprove, "advance", req.ID, req.CompanyID, req)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Reject(r.Context(), chi.URLParam(r, "advanceId"), actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionAdvanceReject, "advance", req.ID, req.CompanyID, req)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "advanceId")
	if err := h.Service.Remove(r.Context(), id, actor); err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionAdvanceRemove, "advance", id, "", nil)
	api.Success(w, map[string]any{"id": id, "archived": true}, middleware.GetRequestID(r.Context()))
}
