package payrollhandler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payledger/internal/domain/audit"
	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/payslip"
	"payledger/internal/domain/period"
	"payledger/internal/domain/reconcile"
	"payledger/internal/platform/logger"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Directory interface {
	shared.EmployerResolver
	GetAcceptedContract(ctx context.Context, workerID, companyID string) (directory.Contract, error)
}

type Handler struct {
	Engine    *reconcile.Engine
	Payroll   *payroll.Service
	Directory Directory
	Payslips  *payslip.Renderer
	Audit     *audit.Service
	Now       func() time.Time
}

func NewHandler(engine *reconcile.Engine, payrollSvc *payroll.Service, dir Directory, payslips *payslip.Renderer, auditSvc *audit.Service) *Handler {
	return &Handler{Engine: engine, Payroll: payrollSvc, Directory: dir, Payslips: payslips, Audit: auditSvc, Now: time.Now}
}

// RegisterRoutes mounts the salary endpoints. guard wraps the money-moving
// writes (rate limit, idempotency).
func (h *Handler) RegisterRoutes(r chi.Router, guard func(http.Handler) http.Handler) {
	if guard == nil {
		guard = func(next http.Handler) http.Handler { return next }
	}
	employerOrAdmin := middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)

	r.With(employerOrAdmin).Get("/salary/list", h.handleCompanySummary)
	r.With(employerOrAdmin).Get("/salary/list/{employerId}", h.handleCompanySummary)
	r.Get("/employee/{employeeId}/salary", h.handleEmployeeSalary)
	r.With(employerOrAdmin, guard).Post("/salary/payment", h.handleRecordPayment)
	r.With(middleware.RequireRole(auth.RoleAdmin), guard).Patch("/salary/payment/{paymentId}", h.handleCorrectPayment)
	r.Get("/salaryslip", h.handleSalarySlip)
}

func (h *Handler) handleCompanySummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	companyID := strings.TrimSpace(chi.URLParam(r, "employerId"))
	if companyID == "" {
		companyID = actor.CompanyID
	}
	if companyID == "" {
		api.Fail(w, http.StatusBadRequest, "employer_required", "employerId is required", reqID)
		return
	}
	if !actor.CanActForCompany(companyID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return
	}

	summary, err := h.Engine.CompanySummary(r.Context(), companyID, h.Now())
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	api.Success(w, summary, reqID)
}

type employeeSalary struct {
	reconcile.Result
	Contract directory.Contract `json:"contract"`
}

func (h *Handler) handleEmployeeSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	workerID := chi.URLParam(r, "employeeId")
	employerID, err := shared.ResolveEmployer(r.Context(), h.Directory, actor, workerID, r.URL.Query().Get("employerId"))
	if err != nil {
		shared.Fail(w, r, err)
		return
	}

	result, err := h.Engine.Reconcile(r.Context(), workerID, employerID, period.AllTime())
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	contract, err := h.Directory.GetAcceptedContract(r.Context(), workerID, employerID)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	api.Success(w, employeeSalary{Result: result, Contract: contract}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload payroll.RecordInput
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	run, err := h.Payroll.RecordPayment(r.Context(), payload, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionPaymentRecord, "payment", run.ID, run.CompanyID, run)
	api.Created(w, run, reqID)
}

func (h *Handler) handleCorrectPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload payroll.Correction
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	run, err := h.Payroll.Correct(r.Context(), chi.URLParam(r, "paymentId"), payload, actor)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	h.Audit.Record(r.Context(), actor, audit.ActionPaymentCorrect, "payment", run.ID, run.CompanyID, payload)
	api.Success(w, run, reqID)
}

func (h *Handler) handleSalarySlip(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	workerID := strings.TrimSpace(query.Get("employeeId"))
	if actor.IsWorker() && workerID == "" {
		workerID = actor.WorkerID
	}
	if workerID == "" {
		api.Fail(w, http.StatusBadRequest, "employee_required", "employeeId is required", reqID)
		return
	}
	window, err := period.Parse(query.Get("period"), h.Now())
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	employerID, err := shared.ResolveEmployer(r.Context(), h.Directory, actor, workerID, query.Get("employerId"))
	if err != nil {
		shared.Fail(w, r, err)
		return
	}

	result, err := h.Engine.Reconcile(r.Context(), workerID, employerID, window)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}
	doc, err := h.Payslips.Render(result)
	if err != nil {
		logger.FromContext(r.Context()).Error("payslip render failed", zap.String("employeeId", workerID), zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to render payslip", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", slipFilename(result)))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func slipFilename(result reconcile.Result) string {
	label := "all"
	if result.Window.Kind == period.KindMonth {
		label = result.Window.From.Format("2006-01")
	}
	return "payslip-" + result.Worker.ID + "-" + label + ".pdf"
}
