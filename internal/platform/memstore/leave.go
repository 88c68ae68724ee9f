package memstore

import (
	"context"
	"time"

	"payledger/internal/domain/leave"
)

func (s *Store) CreateLeave(ctx context.Context, req leave.Request) (leave.Request, error) {
	if err := s.lock(ctx); err != nil {
		return leave.Request{}, err
	}
	defer s.mu.Unlock()
	req.ID = s.newID()
	req.Status = leave.StatusPending
	req.LeaveType = ""
	req.DecidedAt = nil
	req.CreatedAt = s.Now()
	s.leaves[req.ID] = req
	return req, nil
}

func (s *Store) GetLeave(ctx context.Context, id string) (leave.Request, error) {
	if err := s.lock(ctx); err != nil {
		return leave.Request{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.leaves[id]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	return r, nil
}

func (s *Store) GetLeaves(ctx context.Context, ids []string) (map[string]leave.Request, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := make(map[string]leave.Request, len(ids))
	for _, id := range ids {
		if r, ok := s.leaves[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

func (s *Store) ListLeaves(ctx context.Context, workerID, companyID string) ([]leave.Request, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []leave.Request
	for _, r := range s.leaves {
		if r.WorkerID == workerID && r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return sortedWindow(s, out, func(r leave.Request) string { return r.ID },
		func(r leave.Request) time.Time { return r.CreatedAt }, true), nil
}

func (s *Store) DecideLeave(ctx context.Context, id, status, leaveType string, at time.Time) (leave.Request, error) {
	if err := s.lock(ctx); err != nil {
		return leave.Request{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.leaves[id]
	if !ok {
		return leave.Request{}, leave.ErrRequestNotFound
	}
	if r.Status != leave.StatusPending {
		return leave.Request{}, leave.ErrInvalidState
	}
	decided := at
	r.Status = status
	r.LeaveType = leaveType
	r.DecidedAt = &decided
	s.leaves[id] = r
	return r, nil
}

var _ leave.StoreAPI = (*Store)(nil)
