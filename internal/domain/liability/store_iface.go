package liability

import (
	"context"
	"time"

	"payledger/internal/domain/period"
)

type StoreAPI interface {
	CreateLiability(ctx context.Context, l Liability) (Liability, error)
	GetLiability(ctx context.Context, id string) (Liability, error)
	ListLiabilities(ctx context.Context, workerID, companyID string) ([]Liability, error)
	ListAccepted(ctx context.Context, workerID, companyID string, window period.Window) ([]Liability, error)
	// UpdateStatus applies the change only if the stored status still equals from.
	UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (Liability, error)
}
