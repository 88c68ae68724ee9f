package payroll

import (
	"context"
	"time"

	"payledger/internal/domain/period"
)

type StoreAPI interface {
	// InsertRunAndResetAdvances writes the run and restores the worker's advance
	// account to its ceiling in one transaction.
	InsertRunAndResetAdvances(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context, workerID, companyID string, window period.Window) ([]Run, error)
	ListCompanyRuns(ctx context.Context, companyID string, window period.Window) ([]Run, error)
	UpdateRun(ctx context.Context, run Run, correctedAt time.Time) (Run, error)
}
