package advance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/notifications"
	"payledger/internal/platform/apperr"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/metrics"
)

// Directory is the subset of the worker directory advances depend on.
type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
	GetCompany(ctx context.Context, companyID string) (directory.Company, error)
	GetAcceptedContract(ctx context.Context, workerID, companyID string) (directory.Contract, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

type Service struct {
	Store     StoreAPI
	Directory Directory
	Notify    Notifier
	Metrics   *metrics.Collector
	Now       func() time.Time
}

func NewService(store StoreAPI, dir Directory, notify Notifier, collector *metrics.Collector) *Service {
	return &Service{Store: store, Directory: dir, Notify: notify, Metrics: collector, Now: time.Now}
}

// Create opens a pending request against the worker's advance account. The
// account is created on first use with the contract's gross salary as ceiling.
func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (Request, error) {
	if !in.Amount.IsPositive() {
		return Request{}, ErrInvalidAmount
	}
	if in.IsAdminOverride && !actor.IsAdmin() {
		return Request{}, ErrForbidden
	}
	if !actor.CanActForWorker(in.WorkerID) {
		return Request{}, ErrForbidden
	}

	contract, err := s.Directory.GetAcceptedContract(ctx, in.WorkerID, in.CompanyID)
	if err != nil {
		return Request{}, err
	}
	account, err := s.Store.EnsureAccount(ctx, in.WorkerID, in.CompanyID, contract.GrossSalary)
	if err != nil {
		return Request{}, err
	}
	if in.Amount.GreaterThan(account.AvailableBalance) && !in.IsAdminOverride {
		return Request{}, apperr.WithMessage(ErrInsufficientBalance,
			"requested %s exceeds available balance %s", in.Amount.StringFixed(2), account.AvailableBalance.StringFixed(2))
	}

	req, err := s.Store.CreateRequest(ctx, Request{
		WorkerID:         in.WorkerID,
		CompanyID:        in.CompanyID,
		AccountID:        account.ID,
		Amount:           in.Amount,
		SalaryCeiling:    account.Ceiling,
		AvailableBalance: account.AvailableBalance,
		IsAdminOverride:  in.IsAdminOverride,
		Reason:           strings.TrimSpace(in.Reason),
	})
	if err != nil {
		return Request{}, err
	}

	if company, err := s.Directory.GetCompany(ctx, req.CompanyID); err == nil {
		s.notify(ctx, company.PushToken, notifications.KindAdvanceRequested, "New advance request",
			fmt.Sprintf("An advance of %s was requested", req.Amount.StringFixed(2)), req)
	}
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string, actor auth.Actor) (Request, error) {
	req, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.CanActForCompany(req.CompanyID) && !actor.CanActForWorker(req.WorkerID) {
		return Request{}, ErrForbidden
	}
	return req, nil
}

func (s *Service) List(ctx context.Context, workerID, companyID string) ([]Request, error) {
	return s.Store.ListRequests(ctx, workerID, companyID)
}

// Approve debits the account and approves the request as one atomic step.
func (s *Service) Approve(ctx context.Context, id string, actor auth.Actor) (Request, error) {
	pending, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.CanActForCompany(pending.CompanyID) {
		return Request{}, ErrForbidden
	}

	approved, err := s.Store.ApproveAtomic(ctx, id, actor.ID, s.Now().UTC())
	if err != nil {
		s.Metrics.AdvanceDecision(apperr.CodeOf(err))
		if errors.Is(err, ErrInsufficientBalance) {
			logger.FromContext(ctx).Info("advance approval rejected by balance floor",
				zap.String("advanceId", id), zap.String("amount", pending.Amount.String()))
		}
		return Request{}, err
	}
	s.Metrics.AdvanceDecision(StatusApproved)
	s.notifyDecision(ctx, approved, actor)
	return approved, nil
}

func (s *Service) Reject(ctx context.Context, id string, actor auth.Actor) (Request, error) {
	pending, err := s.Store.GetRequest(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !actor.CanActForCompany(pending.CompanyID) {
		return Request{}, ErrForbidden
	}
	rejected, err := s.Store.RejectRequest(ctx, id, actor.ID, s.Now().UTC())
	if err != nil {
		s.Metrics.AdvanceDecision(apperr.CodeOf(err))
		return Request{}, err
	}
	s.Metrics.AdvanceDecision(StatusRejected)
	s.notifyDecision(ctx, rejected, actor)
	return rejected, nil
}

// Remove archives then deletes a request. Administrative only.
func (s *Service) Remove(ctx context.Context, id string, actor auth.Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if err := s.Store.ArchiveRequest(ctx, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("advance request archived", zap.String("advanceId", id), zap.String("actor", actor.ID))
	return nil
}

// notifyDecision tells the worker; when an admin decided on the employer's
// behalf the company is told as well.
func (s *Service) notifyDecision(ctx context.Context, req Request, actor auth.Actor) {
	title := "Advance " + req.Status
	body := fmt.Sprintf("Your advance of %s was %s", req.Amount.StringFixed(2), req.Status)

	if worker, err := s.Directory.GetWorker(ctx, req.WorkerID); err == nil {
		s.notify(ctx, worker.PushToken, notifications.KindAdvanceDecided, title, body, req)
	} else {
		logger.FromContext(ctx).Warn("advance notify lookup failed", zap.String("workerId", req.WorkerID), zap.Error(err))
	}
	if actor.IsAdmin() {
		if company, err := s.Directory.GetCompany(ctx, req.CompanyID); err == nil {
			s.notify(ctx, company.PushToken, notifications.KindAdvanceDecided, title,
				fmt.Sprintf("An administrator %s an advance of %s", req.Status, req.Amount.StringFixed(2)), req)
		}
	}
}

func (s *Service) notify(ctx context.Context, token, kind, title, body string, req Request) {
	if s.Notify == nil {
		return
	}
	s.Notify.Notify(ctx, notifications.Message{
		Token: token,
		Kind:  kind,
		Title: title,
		Body:  body,
		Data:  map[string]string{"advanceId": req.ID, "status": req.Status},
	})
}
