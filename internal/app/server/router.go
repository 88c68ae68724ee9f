package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/audit"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/notifications"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/payslip"
	"payledger/internal/domain/reconcile"
	"payledger/internal/domain/referral"
	"payledger/internal/domain/reports"
	"payledger/internal/platform/blob"
	"payledger/internal/platform/config"
	"payledger/internal/platform/metrics"
	"payledger/internal/transport/http/api"
	advancehandler "payledger/internal/transport/http/handlers/advance"
	audithandler "payledger/internal/transport/http/handlers/audit"
	authhandler "payledger/internal/transport/http/handlers/auth"
	directoryhandler "payledger/internal/transport/http/handlers/directory"
	leavehandler "payledger/internal/transport/http/handlers/leave"
	liabilityhandler "payledger/internal/transport/http/handlers/liability"
	payrollhandler "payledger/internal/transport/http/handlers/payroll"
	referralhandler "payledger/internal/transport/http/handlers/referral"
	reportshandler "payledger/internal/transport/http/handlers/reports"
	"payledger/internal/transport/http/middleware"
)

type Deps struct {
	Config   config.Config
	Log      *zap.Logger
	Metrics  *metrics.Collector
	Stores   Stores
	Notifier *notifications.Dispatcher
	Signer   blob.Signer
}

// NewRouter builds the services over d.Stores and mounts every endpoint.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Signer == nil {
		d.Signer = blob.NewHMACSigner(cfg.BlobBaseURL, cfg.BlobSigningKey, cfg.BlobURLTTL)
	}
	st := d.Stores

	dirSvc := directory.NewService(st.Directory)
	leaveSvc := leave.NewService(st.Leaves)
	advanceSvc := advance.NewService(st.Advances, dirSvc, d.Notifier, d.Metrics)
	liabilitySvc := liability.NewService(st.Liabilities, leaveSvc, dirSvc, d.Notifier)
	payrollSvc := payroll.NewService(st.Payroll, dirSvc, d.Notifier)
	referralSvc := referral.NewService(st.Referrals, dirSvc, d.Notifier, d.Metrics, cfg.ReferralCreditAmount)
	auditSvc := audit.NewService(st.Audit)
	reportsSvc := reports.NewService(st.Payroll)
	engine := reconcile.NewEngine(dirSvc, st.Liabilities, st.Leaves, st.Advances, st.Payroll, d.Signer, d.Metrics, reconcile.Options{
		SourceTimeout:              cfg.SourceFetchTimeout,
		SingleCountLeaveDeductions: cfg.SingleCountLeaveDeductions,
		SummaryConcurrency:         cfg.SummaryConcurrency,
	})
	payslips := payslip.NewRenderer(payslip.Branding{Currency: cfg.PayslipCurrency})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(d.Log, d.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Total-Count", "Retry-After", "Idempotent-Replay"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if st.Ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := st.Ping(ctx); err != nil {
				api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", middleware.GetRequestID(r.Context()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.Handle("/metrics", d.Metrics.Handler())
	}

	limit := middleware.MoneyMutationRateLimit(cfg.RateLimitPerMinute, time.Minute)
	idempotent := middleware.Idempotency(st.Idempotency)
	guard := func(next http.Handler) http.Handler { return limit(idempotent(next)) }

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		authhandler.NewHandler(dirSvc, cfg.JWTSecret, cfg.TokenTTL).RegisterRoutes(r)
		directoryhandler.NewHandler(dirSvc, auditSvc).RegisterRoutes(r)
		payrollhandler.NewHandler(engine, payrollSvc, dirSvc, payslips, auditSvc).RegisterRoutes(r, guard)
		advancehandler.NewHandler(advanceSvc, dirSvc, auditSvc).RegisterRoutes(r, guard)
		leavehandler.NewHandler(leaveSvc, dirSvc, auditSvc).RegisterRoutes(r)
		liabilityhandler.NewHandler(liabilitySvc, dirSvc, auditSvc).RegisterRoutes(r)
		referralhandler.NewHandler(referralSvc, auditSvc).RegisterRoutes(r, guard)
		reportshandler.NewHandler(reportsSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc).RegisterRoutes(r)
	})

	return router
}
