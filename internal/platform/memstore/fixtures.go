package memstore

import (
	"context"

	"payledger/internal/domain/directory"
)

// Employed is a worker with an accepted contract at a company.
type Employed struct {
	Worker   directory.Worker
	Company  directory.Company
	Contract directory.Contract
}

// SeedEmployed creates the company if it has no id yet, creates the worker,
// and offers and accepts a contract with the given terms.
func (s *Store) SeedEmployed(ctx context.Context, worker directory.Worker, company directory.Company, terms directory.Contract) (Employed, error) {
	if company.ID == "" {
		c, err := s.CreateCompany(ctx, company)
		if err != nil {
			return Employed{}, err
		}
		company = c
	}
	w, err := s.CreateWorker(ctx, worker)
	if err != nil {
		return Employed{}, err
	}
	terms.WorkerID = w.ID
	terms.CompanyID = company.ID
	if terms.SalaryType == "" {
		terms.SalaryType = directory.SalaryTypeMonthly
	}
	if terms.StartDate.IsZero() {
		terms.StartDate = s.Now()
	}
	offered, err := s.CreateContract(ctx, terms)
	if err != nil {
		return Employed{}, err
	}
	accepted, err := s.AcceptContract(ctx, offered.ID, s.Now())
	if err != nil {
		return Employed{}, err
	}
	return Employed{Worker: w, Company: company, Contract: accepted}, nil
}
