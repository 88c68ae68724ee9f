package memstore

import (
	"context"
	"sort"
	"time"

	"payledger/internal/domain/directory"
)

func (s *Store) CreateWorker(ctx context.Context, worker directory.Worker) (directory.Worker, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Worker{}, err
	}
	defer s.mu.Unlock()
	if worker.ID == "" {
		worker.ID = s.newID()
	}
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = s.Now()
	}
	s.workers[worker.ID] = worker
	return worker, nil
}

func (s *Store) GetWorker(ctx context.Context, workerID string) (directory.Worker, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Worker{}, err
	}
	defer s.mu.Unlock()
	w, ok := s.workers[workerID]
	if !ok {
		return directory.Worker{}, directory.ErrWorkerNotFound
	}
	return w, nil
}

func (s *Store) UpdateWorker(ctx context.Context, worker directory.Worker) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	current, ok := s.workers[worker.ID]
	if !ok {
		return directory.ErrWorkerNotFound
	}
	// Wallet and referrer are not profile fields.
	worker.WalletBalance = current.WalletBalance
	worker.ReferrerID = current.ReferrerID
	worker.CreatedAt = current.CreatedAt
	s.workers[worker.ID] = worker
	return nil
}

func (s *Store) CreateCompany(ctx context.Context, company directory.Company) (directory.Company, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Company{}, err
	}
	defer s.mu.Unlock()
	if company.ID == "" {
		company.ID = s.newID()
	}
	s.companies[company.ID] = company
	return company, nil
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (directory.Company, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Company{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.companies[companyID]
	if !ok {
		return directory.Company{}, directory.ErrCompanyNotFound
	}
	return c, nil
}

// PutEmployment records an employment directly, bypassing contract acceptance.
func (s *Store) PutEmployment(ctx context.Context, e directory.Employment) error {
	if err := s.lock(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()
	if e.Status == "" {
		e.Status = directory.EmploymentActive
	}
	s.employments[pairKey(e.WorkerID, e.CompanyID)] = e
	return nil
}

func (s *Store) GetEmployment(ctx context.Context, workerID, companyID string) (directory.Employment, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Employment{}, err
	}
	defer s.mu.Unlock()
	e, ok := s.employments[pairKey(workerID, companyID)]
	if !ok || e.Status != directory.EmploymentActive {
		return directory.Employment{}, directory.ErrMappingNotFound
	}
	return e, nil
}

func (s *Store) ActiveEmployerFor(ctx context.Context, workerID string) (string, error) {
	if err := s.lock(ctx); err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	var best *directory.Employment
	for _, e := range s.employments {
		if e.WorkerID != workerID || e.Status != directory.EmploymentActive {
			continue
		}
		if best == nil || e.StartDate.After(best.StartDate) {
			e := e
			best = &e
		}
	}
	if best == nil {
		return "", directory.ErrNoActiveEmployer
	}
	return best.CompanyID, nil
}

func (s *Store) ListActiveEmployees(ctx context.Context, companyID string) ([]directory.Worker, error) {
	if err := s.lock(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []directory.Worker
	for _, e := range s.employments {
		if e.CompanyID != companyID || e.Status != directory.EmploymentActive {
			continue
		}
		if w, ok := s.workers[e.WorkerID]; ok {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CreateContract(ctx context.Context, contract directory.Contract) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	contract.ID = s.newID()
	contract.Status = directory.ContractPending
	contract.SupersededAt = nil
	contract.CreatedAt = s.Now()
	contract.Allowances = append([]directory.Allowance{}, contract.Allowances...)
	s.contracts[contract.ID] = contract
	return contract, nil
}

func (s *Store) GetContract(ctx context.Context, contractID string) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return directory.Contract{}, directory.ErrContractNotFound
	}
	return c, nil
}

func (s *Store) GetAcceptedContract(ctx context.Context, workerID, companyID string) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	for _, c := range s.contracts {
		if c.WorkerID == workerID && c.CompanyID == companyID && c.Current() {
			return c, nil
		}
	}
	return directory.Contract{}, directory.ErrContractNotFound
}

func (s *Store) AcceptContract(ctx context.Context, contractID string, at time.Time) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return directory.Contract{}, directory.ErrContractNotFound
	}
	if c.Status != directory.ContractPending {
		return directory.Contract{}, directory.ErrContractState
	}

	for id, other := range s.contracts {
		if other.WorkerID == c.WorkerID && other.Current() {
			superseded := at
			other.SupersededAt = &superseded
			s.contracts[id] = other
		}
	}
	c.Status = directory.ContractAccepted
	s.contracts[contractID] = c

	for k, e := range s.employments {
		if e.WorkerID == c.WorkerID && e.CompanyID != c.CompanyID && e.Status == directory.EmploymentActive {
			e.Status = directory.EmploymentEnded
			s.employments[k] = e
		}
	}
	k := pairKey(c.WorkerID, c.CompanyID)
	e, ok := s.employments[k]
	if !ok {
		e = directory.Employment{WorkerID: c.WorkerID, CompanyID: c.CompanyID, StartDate: c.StartDate}
	}
	e.Status = directory.EmploymentActive
	s.employments[k] = e
	return c, nil
}

func (s *Store) RejectContract(ctx context.Context, contractID string) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return directory.Contract{}, directory.ErrContractNotFound
	}
	if c.Status != directory.ContractPending {
		return directory.Contract{}, directory.ErrContractState
	}
	c.Status = directory.ContractRejected
	s.contracts[contractID] = c
	return c, nil
}

func (s *Store) RevokeContract(ctx context.Context, contractID string, at time.Time) (directory.Contract, error) {
	if err := s.lock(ctx); err != nil {
		return directory.Contract{}, err
	}
	defer s.mu.Unlock()
	c, ok := s.contracts[contractID]
	if !ok {
		return directory.Contract{}, directory.ErrContractNotFound
	}
	if !c.Current() {
		return directory.Contract{}, directory.ErrContractState
	}
	revoked := at
	c.SupersededAt = &revoked
	s.contracts[contractID] = c
	return c, nil
}
