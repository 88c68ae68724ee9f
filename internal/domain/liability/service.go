package liability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"payledger/internal/domain/auth"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/leave"
	"payledger/internal/domain/notifications"
	"payledger/internal/platform/logger"
)

type LeaveCreator interface {
	Create(ctx context.Context, in leave.CreateInput) (leave.Request, error)
	Reject(ctx context.Context, id string) (leave.Request, error)
}

type Directory interface {
	GetWorker(ctx context.Context, workerID string) (directory.Worker, error)
	GetEmployment(ctx context.Context, workerID, companyID string) (directory.Employment, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

type Service struct {
	Store     StoreAPI
	Leaves    LeaveCreator
	Directory Directory
	Notify    Notifier
	Now       func() time.Time
}

func NewService(store StoreAPI, leaves LeaveCreator, dir Directory, notify Notifier) *Service {
	return &Service{Store: store, Leaves: leaves, Directory: dir, Notify: notify, Now: time.Now}
}

// Create records a pending liability. The leave variant first files a pending
// leave request and keeps only its id; the two records evolve independently.
func (s *Service) Create(ctx context.Context, in CreateInput, actor auth.Actor) (Liability, error) {
	if !actor.CanActForCompany(in.CompanyID) {
		return Liability{}, ErrForbidden
	}
	if _, err := s.Directory.GetEmployment(ctx, in.WorkerID, in.CompanyID); err != nil {
		return Liability{}, err
	}

	l := Liability{
		WorkerID:  in.WorkerID,
		CompanyID: in.CompanyID,
		Type:      in.Type,
		Photo:     strings.TrimSpace(in.Photo),
		CreatedBy: actor.ID,
	}
	switch in.Type {
	case TypeItem:
		if strings.TrimSpace(in.ItemName) == "" || in.Amount == nil || !in.Amount.IsPositive() {
			return Liability{}, ErrItemFields
		}
		l.ItemName = strings.TrimSpace(in.ItemName)
		l.Amount = in.Amount
	case TypeLeave:
		if in.Leave == nil || in.Leave.StartDate.IsZero() || in.Leave.EndDate.IsZero() {
			return Liability{}, ErrLeaveFields
		}
		req, err := s.Leaves.Create(ctx, leave.CreateInput{
			WorkerID:  in.WorkerID,
			CompanyID: in.CompanyID,
			StartDate: in.Leave.StartDate,
			EndDate:   in.Leave.EndDate,
			Reason:    in.Leave.Reason,
		})
		if err != nil {
			return Liability{}, err
		}
		l.LeaveRequestID = req.ID
	default:
		return Liability{}, ErrInvalidType
	}

	created, err := s.Store.CreateLiability(ctx, l)
	if err != nil {
		if l.LeaveRequestID != "" {
			s.withdrawLeave(ctx, l.LeaveRequestID)
		}
		return Liability{}, err
	}
	s.notifyWorker(ctx, created, notifications.KindLiabilityCreated, "New liability recorded")
	return created, nil
}

// withdrawLeave rejects a leave request filed for a liability that could not
// be stored, so no pending leave is left without its liability.
func (s *Service) withdrawLeave(ctx context.Context, leaveID string) {
	if _, err := s.Leaves.Reject(context.WithoutCancel(ctx), leaveID); err != nil {
		logger.FromContext(ctx).Warn("withdraw orphaned leave request failed",
			zap.String("leaveRequestId", leaveID), zap.Error(err))
	}
}

func (s *Service) Get(ctx context.Context, id string) (Liability, error) {
	return s.Store.GetLiability(ctx, id)
}

func (s *Service) List(ctx context.Context, workerID, companyID string) ([]Liability, error) {
	return s.Store.ListLiabilities(ctx, workerID, companyID)
}

// SetStatus moves a liability along the role's transition table.
func (s *Service) SetStatus(ctx context.Context, id, status string, actor auth.Actor) (Liability, error) {
	current, err := s.Store.GetLiability(ctx, id)
	if err != nil {
		return Liability{}, err
	}
	switch {
	case actor.IsAdmin():
	case actor.IsEmployer() && actor.CompanyID == current.CompanyID:
	case actor.IsWorker() && actor.WorkerID == current.WorkerID:
	default:
		return Liability{}, ErrForbidden
	}
	if !CanTransition(actor.Role, current.Status, status) {
		return Liability{}, ErrInvalidTransition
	}

	updated, err := s.Store.UpdateStatus(ctx, id, current.Status, status, s.Now().UTC())
	if err != nil {
		return Liability{}, err
	}
	logger.FromContext(ctx).Info("liability status changed",
		zap.String("liabilityId", id), zap.String("from", current.Status), zap.String("to", status), zap.String("role", actor.Role))
	if !actor.IsWorker() {
		s.notifyWorker(ctx, updated, notifications.KindLiabilityStatus, "Liability "+status)
	}
	return updated, nil
}

func (s *Service) notifyWorker(ctx context.Context, l Liability, kind, title string) {
	if s.Notify == nil {
		return
	}
	worker, err := s.Directory.GetWorker(ctx, l.WorkerID)
	if err != nil {
		logger.FromContext(ctx).Warn("liability notify lookup failed", zap.String("workerId", l.WorkerID), zap.Error(err))
		return
	}
	body := fmt.Sprintf("A %s liability is now %s", l.Type, l.Status)
	s.Notify.Notify(ctx, notifications.Message{
		Token: worker.PushToken,
		Kind:  kind,
		Title: title,
		Body:  body,
		Data:  map[string]string{"liabilityId": l.ID, "status": l.Status},
	})
}
