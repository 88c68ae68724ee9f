package directory

import "payledger/internal/platform/apperr"

var (
	ErrWorkerNotFound     = apperr.NotFound("worker_not_found", "worker not found")
	ErrCompanyNotFound    = apperr.NotFound("company_not_found", "company not found")
	ErrMappingNotFound    = apperr.NotFound("mapping_not_found", "worker is not employed by this company")
	ErrContractNotFound   = apperr.NotFound("contract_not_found", "no accepted contract for worker and company")
	ErrContractState      = apperr.Conflict("contract_invalid_state", "contract is not in a state that allows this change")
	ErrNoActiveEmployer   = apperr.NotFound("no_active_employer", "worker has no active employer")
	ErrInvalidContract    = apperr.Validation("invalid_contract", "contract terms are invalid")
	ErrEmptyProfileUpdate = apperr.Validation("empty_update", "no profile fields supplied")
)
