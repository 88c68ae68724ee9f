package directory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payledger/internal/platform/apperr"
	"payledger/internal/platform/logger"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

type OfferInput struct {
	CompanyID   string          `json:"companyId" validate:"required"`
	WorkerID    string          `json:"workerId" validate:"required"`
	GrossSalary decimal.Decimal `json:"grossSalary"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	DailyWage   decimal.Decimal `json:"dailyWage"`
	SalaryType  string          `json:"salaryType" validate:"omitempty,oneof=monthly daily"`
	Allowances  []Allowance     `json:"allowances" validate:"dive"`
	StartDate   time.Time       `json:"startDate"`
}

func (s *Service) GetWorker(ctx context.Context, workerID string) (Worker, error) {
	return s.Store.GetWorker(ctx, workerID)
}

func (s *Service) GetCompany(ctx context.Context, companyID string) (Company, error) {
	return s.Store.GetCompany(ctx, companyID)
}

func (s *Service) GetEmployment(ctx context.Context, workerID, companyID string) (Employment, error) {
	return s.Store.GetEmployment(ctx, workerID, companyID)
}

func (s *Service) ActiveEmployerFor(ctx context.Context, workerID string) (string, error) {
	return s.Store.ActiveEmployerFor(ctx, workerID)
}

func (s *Service) ListActiveEmployees(ctx context.Context, companyID string) ([]Worker, error) {
	return s.Store.ListActiveEmployees(ctx, companyID)
}

func (s *Service) GetAcceptedContract(ctx context.Context, workerID, companyID string) (Contract, error) {
	return s.Store.GetAcceptedContract(ctx, workerID, companyID)
}

func (s *Service) GetContract(ctx context.Context, contractID string) (Contract, error) {
	return s.Store.GetContract(ctx, contractID)
}

// OfferContract records a pending contract. Terms are validated here so the
// reconciliation engine can rely on non-negative figures.
func (s *Service) OfferContract(ctx context.Context, in OfferInput) (Contract, error) {
	if !in.GrossSalary.IsPositive() {
		return Contract{}, apperr.WithMessage(ErrInvalidContract, "grossSalary must be greater than zero")
	}
	if in.BasicSalary.IsNegative() || in.DailyWage.IsNegative() {
		return Contract{}, apperr.WithMessage(ErrInvalidContract, "basicSalary and dailyWage must not be negative")
	}
	for _, a := range in.Allowances {
		if a.Name == "" || a.Amount.IsNegative() {
			return Contract{}, apperr.WithMessage(ErrInvalidContract, "allowances need a name and a non-negative amount")
		}
	}
	if _, err := s.Store.GetWorker(ctx, in.WorkerID); err != nil {
		return Contract{}, err
	}
	if _, err := s.Store.GetCompany(ctx, in.CompanyID); err != nil {
		return Contract{}, err
	}

	salaryType := in.SalaryType
	if salaryType == "" {
		salaryType = SalaryTypeMonthly
	}
	startDate := in.StartDate
	if startDate.IsZero() {
		startDate = s.Now().UTC()
	}
	return s.Store.CreateContract(ctx, Contract{
		CompanyID:   in.CompanyID,
		WorkerID:    in.WorkerID,
		GrossSalary: in.GrossSalary,
		BasicSalary: in.BasicSalary,
		DailyWage:   in.DailyWage,
		SalaryType:  salaryType,
		Allowances:  in.Allowances,
		StartDate:   startDate,
	})
}

func (s *Service) AcceptContract(ctx context.Context, contractID string) (Contract, error) {
	c, err := s.Store.AcceptContract(ctx, contractID, s.Now().UTC())
	if err != nil {
		return Contract{}, err
	}
	logger.FromContext(ctx).Info("contract accepted",
		zap.String("contractId", c.ID), zap.String("workerId", c.WorkerID), zap.String("companyId", c.CompanyID))
	return c, nil
}

func (s *Service) RejectContract(ctx context.Context, contractID string) (Contract, error) {
	return s.Store.RejectContract(ctx, contractID)
}

func (s *Service) RevokeContract(ctx context.Context, contractID string) (Contract, error) {
	return s.Store.RevokeContract(ctx, contractID, s.Now().UTC())
}

func (s *Service) UpdateProfile(ctx context.Context, workerID string, update ProfileUpdate) (Worker, error) {
	if update.Empty() {
		return Worker{}, ErrEmptyProfileUpdate
	}
	current, err := s.Store.GetWorker(ctx, workerID)
	if err != nil {
		return Worker{}, err
	}
	next := update.Apply(current)
	if err := s.Store.UpdateWorker(ctx, next); err != nil {
		return Worker{}, err
	}
	return next, nil
}
