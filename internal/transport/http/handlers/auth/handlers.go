package authhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/platform/logger"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
	"payledger/internal/transport/http/shared"
)

type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
	GetCompany(ctx context.Context, companyID string) (directory.Company, error)
}

// Handler mints bearer tokens for employers and workers. Only admins may call
// it; admin tokens come from the operator tooling.
type Handler struct {
	Directory Directory
	Secret    string
	TTL       time.Duration
}

func NewHandler(dir Directory, secret string, ttl time.Duration) *Handler {
	return &Handler{Directory: dir, Secret: secret, TTL: ttl}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/auth/token", h.handleIssueToken)
}

type issueRequest struct {
	Role      string `json:"role" validate:"required,oneof=employer worker"`
	CompanyID string `json:"companyId" validate:"required_if=Role employer"`
	WorkerID  string `json:"workerId" validate:"required_if=Role worker"`
}

type issueResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.Actor(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())

	var payload issueRequest
	if !shared.DecodeJSON(w, r, reqID, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	claims := auth.Claims{Role: payload.Role}
	switch payload.Role {
	case auth.RoleEmployer:
		company, err := h.Directory.GetCompany(r.Context(), payload.CompanyID)
		if err != nil {
			shared.Fail(w, r, err)
			return
		}
		claims.SubjectID = "employer:" + company.ID
		claims.CompanyID = company.ID
	case auth.RoleWorker:
		worker, err := h.Directory.GetWorker(r.Context(), payload.WorkerID)
		if err != nil {
			shared.Fail(w, r, err)
			return
		}
		claims.SubjectID = "worker:" + worker.ID
		claims.WorkerID = worker.ID
	}

	token, err := auth.GenerateToken(h.Secret, claims, h.TTL)
	if err != nil {
		logger.FromContext(r.Context()).Error("token signing failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", reqID)
		return
	}
	logger.FromContext(r.Context()).Info("token issued",
		zap.String("role", claims.Role), zap.String("subject", claims.SubjectID), zap.String("issuedBy", actor.ID))
	api.Created(w, issueResponse{Token: token, ExpiresAt: time.Now().Add(h.TTL).UTC()}, reqID)
}
