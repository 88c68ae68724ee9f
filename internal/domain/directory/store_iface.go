package directory

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateWorker(ctx context.Context, worker Worker) (Worker, error)
	GetWorker(ctx context.Context, workerID string) (Worker, error)
	UpdateWorker(ctx context.Context, worker Worker) error
	CreateCompany(ctx context.Context, company Company) (Company, error)
	GetCompany(ctx context.Context, companyID string) (Company, error)
	GetEmployment(ctx context.Context, workerID, companyID string) (Employment, error)
	ActiveEmployerFor(ctx context.Context, workerID string) (string, error)
	ListActiveEmployees(ctx context.Context, companyID string) ([]Worker, error)
	CreateContract(ctx context.Context, contract Contract) (Contract, error)
	GetContract(ctx context.Context, contractID string) (Contract, error)
	GetAcceptedContract(ctx context.Context, workerID, companyID string) (Contract, error)
	AcceptContract(ctx context.Context, contractID string, at time.Time) (Contract, error)
	RejectContract(ctx context.Context, contractID string) (Contract, error)
	RevokeContract(ctx context.Context, contractID string, at time.Time) (Contract, error)
}
