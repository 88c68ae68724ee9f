package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/notifications"
	"payledger/internal/domain/period"
	"payledger/internal/platform/logger"
)

type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
	GetEmployment(ctx context.Context, workerID, companyID string) (directory.Employment, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Notify    Notifier
	Now       func() time.Time
}

func NewService(store StoreAPI, dir Directory, notify Notifier) *Service {
	return &Service{Store: store, Directory: dir, Notify: notify, Now: time.Now}
}

// RecordPayment stores the snapshot computed by reconciliation and opens a new
// advance cycle for the worker.
func (s *Service) RecordPayment(ctx context.Context, in RecordInput, actor auth.Actor) (Run, error) {
	if !actor.CanActForCompany(in.CompanyID) {
		return Run{}, ErrForbidden
	}
	if in.TotalAmount.IsNegative() {
		return Run{}, ErrNegativePayout
	}
	for _, v := range []decimal.Decimal{in.GrossSalary, in.AdvancePayment, in.DeductionCredit, in.Incentives,
		in.Deductions.TotalLiabilities, in.Deductions.UnpaidLeaveDeductions, in.Deductions.Final} {
		if v.IsNegative() {
			return Run{}, ErrNegativeAmount
		}
	}
	if _, err := s.Directory.GetEmployment(ctx, in.EmployeeID, in.CompanyID); err != nil {
		return Run{}, err
	}

	run, err := s.Store.InsertRunAndResetAdvances(ctx, Run{
		EmployeeID:      in.EmployeeID,
		CompanyID:       in.CompanyID,
		GrossSalary:     in.GrossSalary,
		AdvancePayment:  in.AdvancePayment,
		Deductions:      in.Deductions,
		Balance:         in.Balance,
		DeductionCredit: in.DeductionCredit,
		Incentives:      in.Incentives,
		ModeOfPayment:   in.ModeOfPayment,
		TotalAmount:     in.TotalAmount,
	})
	if err != nil {
		return Run{}, err
	}
	logger.FromContext(ctx).Info("salary payment recorded",
		zap.String("paymentId", run.ID), zap.String("employeeId", run.EmployeeID), zap.String("totalAmount", run.TotalAmount.String()))

	if s.Notify != nil {
		if worker, err := s.Directory.GetWorker(ctx, run.EmployeeID); err == nil {
			s.Notify.Notify(ctx, notifications.Message{
				Token: worker.PushToken,
				Kind:  notifications.KindSalaryPaid,
				Title: "Salary paid",
				Body:  fmt.Sprintf("%s was paid by %s", run.TotalAmount.StringFixed(2), run.ModeOfPayment),
				Data:  map[string]string{"paymentId": run.ID},
			})
		}
	}
	return run, nil
}

// Correct is the administrative escape hatch for fixing a recorded run.
func (s *Service) Correct(ctx context.Context, id string, c Correction, actor auth.Actor) (Run, error) {
	if !actor.IsAdmin() {
		return Run{}, ErrForbidden
	}
	if c.Empty() {
		return Run{}, ErrEmptyCorrection
	}
	current, err := s.Store.GetRun(ctx, id)
	if err != nil {
		return Run{}, err
	}
	next := c.Apply(current)
	if next.TotalAmount.IsNegative() {
		return Run{}, ErrNegativePayout
	}
	updated, err := s.Store.UpdateRun(ctx, next, s.Now().UTC())
	if err != nil {
		return Run{}, err
	}
	logger.FromContext(ctx).Warn("salary payment corrected", zap.String("paymentId", id), zap.String("actor", actor.ID))
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (Run, error) {
	return s.Store.GetRun(ctx, id)
}

func (s *Service) ListForWorker(ctx context.Context, workerID, companyID string, window period.Window) ([]Run, error) {
	return s.Store.ListRuns(ctx, workerID, companyID, window)
}
