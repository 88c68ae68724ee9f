package memstore

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"payledger/internal/domain/advance"
	"payledger/internal/domain/directory"
	"payledger/internal/domain/liability"
	"payledger/internal/domain/payroll"
	"payledger/internal/domain/period"
	"payledger/internal/domain/referral"
)

// CreateLiability keeps a preset CreatedAt so tests can place entries in time.
func (s *Store) CreateLiability(ctx context.Context, l liability.Liability) (liability.Liability, error) {
	if err := s.lock(ctx); err != nil {
		return liability.Liability{}, err
	}
	defer s.mu.Unlock()
	l.ID = s.newID()
	l.Status = liability.StatusPending
	l.Amount = cloneDecimal(l.Amount)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.Now()
	}
	l.UpdatedAt = l.CreatedAt
	s.liabilities[l.ID] = l
	return l, nil
}

func (s *Store) GetLiability(ctx context.Context, id string) (liability.Liability, error) {
	if err := s.lock(ctx); err != nil {
		return liability.Liability{}, err
	}
	defer s.mu.Unlock()
	l, ok := s.liabilities[id]
	if !ok {
		return liability.Liability{}, liability.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListLiabilities(ctx context.Context, workerID, companyID string) ([]liability.Liability, error) {
	return s.listLiabilities(ctx, true, func(l liability.Liability) bool {
		return l.WorkerID == workerID && l.CompanyID == companyID
	})
}

func (s *Store) ListAccepted(ctx context.Context, workerID, companyID string, window period.Window) ([]liability.Liability, error) {
	return s.listLiabilities(ctx, false, func(l liability.Liability) bool {
		return l.WorkerID == workerID && l.CompanyID == companyID && l.Status == liability.StatusAccepted && window.Contains(l.CreatedAt)
	})
}

func (s *Store) listLiabilities(ctx context.Context, desc bool, keep func(liability.Liability) bool) ([]liability.Liability, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []liability.Liability
	for _, l := range s.liabilities {
		if keep(l) {
			out = append(out, l)
		}
	}
	return sortedWindow(s, out, func(l liability.Liability) string { return l.ID },
		func(l liability.Liability) time.Time { return l.CreatedAt }, desc), nil
}

func (s *Store) UpdateStatus(ctx context.Context, id, from, to string, at time.Time) (liability.Liability, error) {
	if err := s.lock(ctx); err != nil {
		return liability.Liability{}, err
	}
	defer s.mu.Unlock()
	l, ok := s.liabilities[id]
	if !ok {
		return liability.Liability{}, liability.ErrNotFound
	}
	if l.Status != from {
		return liability.Liability{}, liability.ErrInvalidTransition
	}
	l.Status = to
	l.UpdatedAt = at
	s.liabilities[id] = l
	return l, nil
}

// InsertRunAndResetAdvances keeps a preset CreatedAt so tests can place runs in time.
func (s *Store) InsertRunAndResetAdvances(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	if err := s.lock(ctx); err != nil {
		return payroll.Run{}, err
	}
	defer s.mu.Unlock()
	run.ID = s.newID()
	run.CorrectedAt = nil
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.Now()
	}
	s.runs[run.ID] = run

	k := pairKey(run.EmployeeID, run.CompanyID)
	if a, ok := s.accounts[k]; ok {
		a.AvailableBalance = a.Ceiling
		a.UpdatedAt = s.Now()
		s.accounts[k] = a
	}
	return run, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (payroll.Run, error) {
	if err := s.lock(ctx); err != nil {
		return payroll.Run{}, err
	}
	defer s.mu.Unlock()
	r, ok := s.runs[id]
	if !ok {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	return r, nil
}

func (s *Store) ListRuns(ctx context.Context, workerID, companyID string, window period.Window) ([]payroll.Run, error) {
	return s.listRuns(ctx, func(r payroll.Run) bool {
		return r.EmployeeID == workerID && r.CompanyID == companyID && window.Contains(r.CreatedAt)
	})
}

func (s *Store) ListCompanyRuns(ctx context.Context, companyID string, window period.Window) ([]payroll.Run, error) {
	return s.listRuns(ctx, func(r payroll.Run) bool {
		return r.CompanyID == companyID && window.Contains(r.CreatedAt)
	})
}

func (s *Store) listRuns(ctx context.Context, keep func(payroll.Run) bool) ([]payroll.Run, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []payroll.Run
	for _, r := range s.runs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return sortedWindow(s, out, func(r payroll.Run) string { return r.ID },
		func(r payroll.Run) time.Time { return r.CreatedAt }, false), nil
}

func (s *Store) UpdateRun(ctx context.Context, run payroll.Run, correctedAt time.Time) (payroll.Run, error) {
	if err := s.lock(ctx); err != nil {
		return payroll.Run{}, err
	}
	defer s.mu.Unlock()
	current, ok := s.runs[run.ID]
	if !ok {
		return payroll.Run{}, payroll.ErrRunNotFound
	}
	run.EmployeeID = current.EmployeeID
	run.CompanyID = current.CompanyID
	run.CreatedAt = current.CreatedAt
	corrected := correctedAt
	run.CorrectedAt = &corrected
	s.runs[run.ID] = run
	return run, nil
}

func (s *Store) ClaimAndCredit(ctx context.Context, workerID, action string, amount decimal.Decimal) (bool, string, error) {
	if err := s.lock(ctx); err != nil {
		return false, "", err
	}
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return false, "", directory.ErrWorkerNotFound
	}
	if _, exists := s.referralCredits[workerID]; exists {
		return false, "", nil
	}

	credited := decimal.Zero
	if w.ReferrerID != nil {
		credited = amount
	}
	s.referralCredits[workerID] = referral.Credit{
		WorkerID:   workerID,
		ReferrerID: w.ReferrerID,
		Action:     action,
		Amount:     credited,
		CreatedAt:  s.Now(),
	}
	if w.ReferrerID == nil {
		return false, "", nil
	}

	referrer, ok := s.workers[*w.ReferrerID]
	if !ok {
		delete(s.referralCredits, workerID)
		return false, "", directory.ErrWorkerNotFound
	}
	referrer.WalletBalance = referrer.WalletBalance.Add(amount)
	s.workers[referrer.ID] = referrer
	return true, referrer.ID, nil
}

func (s *Store) GetCredit(ctx context.Context, workerID string) (referral.Credit, bool, error) {
	if err := s.lock(ctx); err != nil {
		return referral.Credit{}, false, err
	}
	defer s.mu.Unlock()
	c, ok := s.referralCredits[workerID]
	return c, ok, nil
}

var (
	_ directory.StoreAPI = (*Store)(nil)
	_ advance.StoreAPI   = (*Store)(nil)
	_ liability.StoreAPI = (*Store)(nil)
	_ payroll.StoreAPI   = (*Store)(nil)
	_ referral.StoreAPI  = (*Store)(nil)
)
