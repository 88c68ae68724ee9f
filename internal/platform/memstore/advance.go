package memstore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/period"
)

func (s *Store) EnsureAccount(ctx context.Context, workerID, companyID string, ceiling decimal.Decimal) (advance.Account, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Account{}, err
	}
	defer s.mu.Unlock()
	k := pairKey(workerID, companyID)
	if a, ok := s.accounts[k]; ok {
		return a, nil
	}
	a := advance.Account{
		ID:               s.newID(),
		WorkerID:         workerID,
		CompanyID:        companyID,
		Ceiling:          ceiling,
		AvailableBalance: ceiling,
		UpdatedAt:        s.Now(),
	}
	s.accounts[k] = a
	return a, nil
}

func (s *Store) GetAccount(ctx context.Context, workerID, companyID string) (advance.Account, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Account{}, err
	}
	defer s.mu.Unlock()
	a, ok := s.accounts[pairKey(workerID, companyID)]
	if !ok {
		return advance.Account{}, advance.ErrAccountNotFound
	}
	return a, nil
}

func (s *Store) CreateRequest(ctx context.Context, req advance.Request) (advance.Request, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Request{}, err
	}
	defer s.mu.Unlock()
	req.ID = s.newID()
	req.Status = advance.StatusPending
	req.DecidedAt = nil
	req.DecidedBy = ""
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.Now()
	}
	s.advances[req.ID] = req
	return req, nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (advance.Request, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Request{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.advances[id]
	if !ok {
		return advance.Request{}, advance.ErrRequestNotFound
	}
	return r, nil
}

func (s *Store) ListRequests(ctx context.Context, workerID, companyID string) ([]advance.Request, error) {
	return s.listAdvances(ctx, true, func(r advance.Request) bool {
		return r.WorkerID == workerID && r.CompanyID == companyID
	})
}

func (s *Store) ListApproved(ctx context.Context, workerID, companyID string, window period.Window) ([]advance.Request, error) {
	return s.listAdvances(ctx, false, func(r advance.Request) bool {
		return r.WorkerID == workerID && r.CompanyID == companyID && r.Status == advance.StatusApproved && window.Contains(r.CreatedAt)
	})
}

func (s *Store) listAdvances(ctx context.Context, desc bool, keep func(advance.Request) bool) ([]advance.Request, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []advance.Request
	for _, r := range s.advances {
		if keep(r) {
			out = append(out, r)
		}
	}
	return sortedWindow(s, out, func(r advance.Request) string { return r.ID },
		func(r advance.Request) time.Time { return r.CreatedAt }, desc), nil
}

func (s *Store) ApproveAtomic(ctx context.Context, id, decidedBy string, at time.Time) (advance.Request, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Request{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.advances[id]
	if !ok {
		return advance.Request{}, advance.ErrRequestNotFound
	}
	if r.Status != advance.StatusPending {
		return advance.Request{}, advance.ErrInvalidState
	}
	k := pairKey(r.WorkerID, r.CompanyID)
	a, ok := s.accounts[k]
	if !ok || a.ID != r.AccountID {
		return advance.Request{}, advance.ErrAccountNotFound
	}
	next := a.AvailableBalance.Sub(r.Amount)
	if next.IsNegative() {
		return advance.Request{}, advance.ErrInsufficientBalance
	}

	a.AvailableBalance = next
	a.UpdatedAt = s.Now()
	s.accounts[k] = a

	decided := at
	r.Status = advance.StatusApproved
	r.DecidedBy = decidedBy
	r.DecidedAt = &decided
	r.AvailableBalance = next
	s.advances[id] = r
	return r, nil
}

func (s *Store) RejectRequest(ctx context.Context, id, decidedBy string, at time.Time) (advance.Request, error) {
	if err := s.lock(ctx); err != nil {
		return advance.Request{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.advances[id]
	if !ok {
		return advance.Request{}, advance.ErrRequestNotFound
	}
	if r.Status != advance.StatusPending {
		return advance.Request{}, advance.ErrInvalidState
	}
	decided := at
	r.Status = advance.StatusRejected
	r.DecidedBy = decidedBy
	r.DecidedAt = &decided
	s.advances[id] = r
	return r, nil
}

func (s *Store) ArchiveRequest(ctx context.Context, id string) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	r, ok := s.advances[id]
	if !ok {
		return advance.ErrRequestNotFound
	}
	s.advanceArchive[id] = r
	delete(s.advances, id)
	return nil
}
