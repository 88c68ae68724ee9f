package leavehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"payledger/internal/domain/audit"
	"payledger/internal/domain/auth"
	"payledger/internal/domain/leave"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service   *leave.Service
	Directory shared.EmployerResolver
	Audit     *audit.Service
}

func NewHandler(service *leave.Service, dir shared.EmployerResolver, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Directory: dir, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	deciders := middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)

	r.Post("/leave", h.handleCreate)
	r.Get("/employee/{employeeId}/leave", h.handleList)
	r.With(deciders).Post("/leave/{leaveId}/approve", h.handleApprove)
	r.With(deciders).Post("/leave/{leaveId}/reject", h.handleReject)
}

type createPayload struct {
	WorkerID  string `json:"workerId"`
	CompanyID string `json:"companyId"`
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload createPayload
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	if actor.IsWorker() && payload.WorkerID == "" {
		payload.WorkerID = actor.WorkerID
	}
	if actor.IsEmployer() && payload.CompanyID == "" {
		payload.CompanyID = actor.CompanyID
	}

	v := shared.NewValidator()
	v.Struct(payload)
	v.Required("workerId", payload.WorkerID, "is required")
	start, okStart := v.Date("startDate", payload.StartDate)
	end, okEnd := v.Date("endDate", payload.EndDate)
	if okStart && okEnd {
		v.DateOrder("startDate", start, "endDate", end)
	}
	if v.Reject(w, reqID) {
		return
	}

	companyID, err := shared.ResolveEmployer(r.Context(), h.Directory, actor, payload.WorkerID, payload.CompanyID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}

	req, err := h.Service.Create(r.Context(), leave.CreateInput{
		WorkerID:  payload.WorkerID,
		CompanyID: companyID,
		StartDate: start,
		EndDate:   end,
		Reason:    payload.Reason,
	})
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	api.Created(w, req, reqID)
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

type approvePayload struct {
	LeaveType string `json:"leaveType" validate:"required"`
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload approvePayload
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	if !h.authorize(w, r, actor) {
		return
	}

	req, err := h.Service.Approve(r.Context(), chi.URLParam(r, "leaveId"), payload.LeaveType)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionLeaveDecide, "leave", req.ID, req.CompanyID, req)
	api.Success(w, req, reqID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, actor) {
		return
	}
	req, err := h.Service.Reject(r.Context(), chi.URLParam(r, "leaveId"))
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionLeaveDecide, "leave", req.ID, req.CompanyID, req)
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

// authorize checks that actor decides for the leave's company.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, actor auth.Actor) bool {
	req, err := h.Service.Get(r.Context(), chi.URLParam(r, "leaveId"))
	if err != nil {
		shared.Fail(w, r, err)
		return false
	}
	if !actor.CanActForCompany(req.CompanyID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return false
	}
	return true
}
