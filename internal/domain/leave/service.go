package leave

import (
	"context"
	"strings"
	"time"
)

type Service struct {
	Store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store, Now: time.Now}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Request, error) {
	days, err := WholeDaysInclusive(in.StartDate, in.EndDate)
	if err != nil {
		return Request{}, err
	}
	return s.Store.CreateLeave(ctx, Request{
		WorkerID:  in.WorkerID,
		CompanyID: in.CompanyID,
		StartDate: civilDate(in.StartDate),
		EndDate:   civilDate(in.EndDate),
		TotalDays: days,
		Status:    StatusPending,
		Reason:    strings.TrimSpace(in.Reason),
	})
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.Store.GetLeave(ctx, id)
}

func (s *Service) List(ctx context.Context, workerID, companyID string) ([]Request, error) {
	return s.Store.ListLeaves(ctx, workerID, companyID)
}

// Approve classifies the leave as paid or unpaid; only unpaid leave reduces pay.
func (s *Service) Approve(ctx context.Context, id, leaveType string) (Request, error) {
	leaveType = strings.ToLower(strings.TrimSpace(leaveType))
	if leaveType != TypePaid && leaveType != TypeUnpaid {
		return Request{}, ErrInvalidLeaveType
	}
	return s.Store.DecideLeave(ctx, id, StatusApproved, leaveType, s.Now().UTC())
}

func (s *Service) Reject(ctx context.Context, id string) (Request, error) {
	return s.Store.DecideLeave(ctx, id, StatusRejected, "", s.Now().UTC())
}
