package reconcile

import (
	"payledger/internal/domain/directory"
	"payledger/internal/platform/apperr"
)

var (
	ErrContractNotFound = directory.ErrContractNotFound
	ErrMappingNotFound  = directory.ErrMappingNotFound
	ErrSourceTimeout    = apperr.New(apperr.KindUnavailable, "source_timeout", "a ledger source did not respond in time")
)
