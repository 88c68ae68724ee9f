package advance

import "payledger/internal/platform/apperr"

var (
	ErrRequestNotFound     = apperr.NotFound("advance_not_found", "advance request not found")
	ErrAccountNotFound     = apperr.NotFound("advance_account_not_found", "advance account not found")
	ErrInsufficientBalance = apperr.New(apperr.KindInsufficientBalance, "insufficient_balance", "advance exceeds the available balance")
	ErrInvalidState        = apperr.Conflict("advance_invalid_state", "advance request is no longer pending")
	ErrInvalidAmount       = apperr.Validation("invalid_amount", "amount must be greater than zero")
	ErrForbidden           = apperr.Forbidden("forbidden", "not allowed to act on this advance request")
)
