package payroll

import "payledger/internal/platform/apperr"

var (
	ErrRunNotFound     = apperr.NotFound("payment_not_found", "salary payment not found")
	ErrNegativePayout  = apperr.Validation("negative_payout", "totalAmount must not be negative")
	ErrNegativeAmount  = apperr.Validation("negative_amount", "monetary fields must not be negative")
	ErrEmptyCorrection = apperr.Validation("empty_update", "no correction fields supplied")
	ErrForbidden       = apperr.Forbidden("forbidden", "not allowed to record payments for this company")
)
