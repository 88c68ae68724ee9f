package leave

import "payledger/internal/platform/apperr"

var (
	ErrRequestNotFound  = apperr.NotFound("leave_not_found", "leave request not found")
	ErrInvalidRange     = apperr.Validation("invalid_leave_range", "end date must not be before start date")
	ErrInvalidLeaveType = apperr.Validation("invalid_leave_type", "leave type must be paid or unpaid")
	ErrInvalidState     = apperr.Conflict("leave_invalid_state", "leave request is no longer pending")
)
