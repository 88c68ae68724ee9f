package advance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/period"
)

type StoreAPI interface {
	EnsureAccount(ctx context.Context, workerID, companyID string, ceiling decimal.Decimal) (Account, error)
	GetAccount(ctx context.Context, workerID, companyID string) (Account, error)
	CreateRequest(ctx context.Context, req Request) (Request, error)
	GetRequest(ctx context.Context, id string) (Request, error)
	ListRequests(ctx context.Context, workerID, companyID string) ([]Request, error)
	ListApproved(ctx context.Context, workerID, companyID string, window period.Window) ([]Request, error)
	// ApproveAtomic flips a pending request to approved and debits its account in
	// one transaction. A debit that would take the balance below zero rolls back
	// and returns ErrInsufficientBalance.
	ApproveAtomic(ctx context.Context, id, decidedBy string, at time.Time) (Request, error)
	RejectRequest(ctx context.Context, id, decidedBy string, at time.Time) (Request, error)
	ArchiveRequest(ctx context.Context, id string) error
}
