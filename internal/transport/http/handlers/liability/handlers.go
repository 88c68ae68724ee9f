package liabilityhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"payledger/internal/domain/audit"
	"payledger/internal/domain/liability"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service   *liability.Service
	Directory shared.EmployerResolver
	Audit     *audit.Service
}

func NewHandler(service *liability.Service, dir shared.EmployerResolver, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: dir, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/liability", h.handleCreate)
	r.Get("/employee/{employeeId}/liability", h.handleList)
	r.Patch("/liability/{liabilityId}/status", h.handleSetStatus)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload liability.CreateInput
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	if actor.IsEmployer() && payload.CompanyID == "" {
		payload.CompanyID = actor.CompanyID
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if payload.Leave != nil {
		v.DateOrder("leave.startDate", payload.Leave.StartDate, "leave.endDate", payload.Leave.EndDate)
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), payload, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionLiabilityCreate, "liability", created.ID, created.CompanyID, created)
	api.Created(w, created, reqID)
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
	items, err := h.Service.List(r.Context(), workerID, companyID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	page := shared.Paginate(items, shared.ParsePagination(r, shared.DefaultPageLimit, shared.MaxPageLimit))
	api.Success(w, page, middleware.GetRequestID(r.Context()))
}

type statusPayload struct {
	Status string `json:"status" validate:"required,oneof=pending accepted rejected dispute"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload statusPayload
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	updated, err := h.Service.SetStatus(r.Context(), chi.URLParam(r, "liabilityId"), payload.Status, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionLiabilityStatus, "liability", updated.ID, updated.CompanyID, payload)
	api.Success(w, updated, reqID)
}
