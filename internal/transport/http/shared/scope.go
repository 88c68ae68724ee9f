package shared

import (
	"context"
	"net/http"
	"strings"

	"payledger/internal/domain/auth"
	"payledger/internal/platform/apperr"
	"payledger/internal/transport/http/api"
	"payledger/internal/transport/http/middleware"
)

var ErrForbidden = apperr.Forbidden("forbidden", "not allowed to access this resource")

type EmployerResolver interface {
	ActiveEmployerFor(ctx context.Context, workerID string) (string, error)
}

// Actor returns the authenticated caller or writes a 401.
func Actor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.Actor{}, false
	}
	return actor, true
}

func Fail(w http.ResponseWriter, r *http.Request, err error) {
	api.FailError(w, err, middleware.GetRequestID(r.Context()))
}

// ResolveEmployer picks the company a worker-scoped read applies to and checks
// that actor may see that worker at that company. An empty employerID means
// the caller's own company for employers and the worker's active employer
// otherwise.
func ResolveEmployer(ctx context.Context, dir EmployerResolver, actor auth.Actor, workerID, employerID string) (string, error) {
	employerID = strings.TrimSpace(employerID)
	if actor.IsWorker() && actor.WorkerID != workerID {
		return "", ErrForbidden
	}
	if employerID == "" {
		if actor.IsEmployer() {
			return actor.CompanyID, nil
		}
		return dir.ActiveEmployerFor(ctx, workerID)
	}
	if actor.IsEmployer() && actor.CompanyID != employerID {
		return "", ErrForbidden
	}
	return employerID, nil
}
