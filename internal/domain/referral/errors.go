package referral

import "payledger/internal/platform/apperr"

var (
	ErrInvalidAction = apperr.Validation("invalid_action", "action must be registration or job_application")
	ErrForbidden     = apperr.Forbidden("forbidden", "not allowed to trigger referral credits for this worker")
)
