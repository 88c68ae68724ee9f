package advance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the running advance cap a worker draws down at one employer.
type Account struct {
	ID               string          `json:"id"`
	WorkerID         string          `json:"workerId"`
	CompanyID        string          `json:"companyId"`
	Ceiling          decimal.Decimal `json:"ceiling"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Request is a worker's ask for part of their salary ahead of payday.
// SalaryCeiling and AvailableBalance are snapshots of the account.
type Request struct {
	ID               string          `json:"id"`
	WorkerID         string          `json:"workerId"`
	CompanyID        string          `json:"companyId"`
	AccountID        string          `json:"accountId"`
	Amount           decimal.Decimal `json:"amount"`
	SalaryCeiling    decimal.Decimal `json:"salaryCeiling"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Status           string          `json:"status"`
	IsAdminOverride  bool            `json:"isAdminOverride"`
	Reason           string          `json:"reason"`
	DecidedBy        string          `json:"decidedBy,omitempty"`
	DecidedAt        *time.Time      `json:"decidedAt,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type CreateInput struct {
	WorkerID        string          `json:"workerId" validate:"required"`
	CompanyID       string          `json:"companyId" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason" validate:"max=500"`
	IsAdminOverride bool            `json:"isAdminOverride"`
}
