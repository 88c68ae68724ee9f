package reportshandler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/period"
	"payledger/internal/domain/reports"
	"payledger/internal/platform/logger"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Now     func() time.Time
}

func NewHandler(service *reports.Service) *Handler {
	return &Handler{Service: service, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleEmployer, auth.RoleAdmin)).Get("/reports/payroll", h.handlePayrollRegister)
}

// handlePayrollRegister serves ?employerId=&month=YYYY-MM|all[&format=csv].
func (h *Handler) handlePayrollRegister(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	companyID := strings.TrimSpace(query.Get("employerId"))
	if companyID == "" {
		companyID = actor.CompanyID
	}
	v := shared.NewValidator()
	v.Required("employerId", companyID, "is required")
	window, okWindow := parseMonth(query.Get("month"), h.Now())
	if !okWindow {
		v.Add("month", "must be YYYY-MM or all")
	}
	if v.Reject(w, reqID) {
		return
	}
	if !actor.CanActForCompany(companyID) {
		shared.Fail(w, r, shared.ErrForbidden)
		return
	}

	reg, err := h.Service.PayrollRegister(r.Context(), companyID, window)
	if err != nil {
		shared.Fail(w, r, err)
		return
	}

	if strings.EqualFold(query.Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="payroll-register.csv"`)
		w.WriteHeader(http.StatusOK)
		if err := reports.WriteCSV(w, reg); err != nil {
			logger.FromContext(r.Context()).Warn("payroll register csv failed", zap.Error(err))
		}
		return
	}
	api.Success(w, reg, reqID)
}

func parseMonth(raw string, now time.Time) (period.Window, bool) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return period.CurrentMonth(now.UTC()), true
	case string(period.KindAll):
		return period.AllTime(), true
	}
	month, err := time.Parse("2006-01", raw)
	if err != nil {
		return period.Window{}, false
	}
	return period.Month(month.Year(), month.Month(), time.UTC), true
}
