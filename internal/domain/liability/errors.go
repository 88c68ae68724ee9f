package liability

import "payledger/internal/platform/apperr"

var (
	ErrNotFound          = apperr.NotFound("liability_not_found", "liability not found")
	ErrInvalidType       = apperr.Validation("invalid_liability_type", "type must be item or leave")
	ErrItemFields        = apperr.Validation("invalid_item_liability", "item liabilities need an item name and a positive amount")
	ErrLeaveFields       = apperr.Validation("invalid_leave_liability", "leave liabilities need a start and end date")
	ErrInvalidTransition = apperr.Conflict("invalid_transition", "liability status change not allowed")
	ErrForbidden         = apperr.Forbidden("forbidden", "not allowed to act on this liability")
)
