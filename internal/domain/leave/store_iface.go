package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateLeave(ctx context.Context, req Request) (Request, error)
	GetLeave(ctx context.Context, id string) (Request, error)
	GetLeaves(ctx context.Context, ids []string) (map[string]Request, error)
	ListLeaves(ctx context.Context, workerID, companyID string) ([]Request, error)
	DecideLeave(ctx context.Context, id, status, leaveType string, at time.Time) (Request, error)
}
