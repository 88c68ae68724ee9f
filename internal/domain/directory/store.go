package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const workerColumns = `
  id, name, phone, push_token, referrer_id, wallet_balance, designation, face_photo,
  bank_account_holder, bank_account_number, bank_name, bank_ifsc, bank_upi, created_at`

func scanWorker(row pgx.Row) (Worker, error) {
	var w Worker
	err := row.Scan(&w.ID, &w.Name, &w.Phone, &w.PushToken, &w.ReferrerID, &w.WalletBalance, &w.Designation, &w.FacePhoto,
		&w.Bank.AccountHolder, &w.Bank.AccountNumber, &w.Bank.BankName, &w.Bank.IFSC, &w.Bank.UPI, &w.CreatedAt)
	return w, err
}

func (s *Store) CreateWorker(ctx context.Context, worker Worker) (Worker, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO workers (name, phone, push_token, referrer_id, wallet_balance, designation, face_photo,
      bank_account_holder, bank_account_number, bank_name, bank_ifsc, bank_upi)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
    RETURNING `+workerColumns,
		worker.Name, worker.Phone, worker.PushToken, worker.ReferrerID, worker.WalletBalance, worker.Designation, worker.FacePhoto,
		worker.Bank.AccountHolder, worker.Bank.AccountNumber, worker.Bank.BankName, worker.Bank.IFSC, worker.Bank.UPI)
	return scanWorker(row)
}

func (s *Store) GetWorker(ctx context.Context, workerID string) (Worker, error) {
	w, err := scanWorker(s.DB.QueryRow(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = $1`, workerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Worker{}, ErrWorkerNotFound
	}
	return w, err
}

func (s *Store) UpdateWorker(ctx context.Context, worker Worker) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE workers
    SET name = $2, phone = $3, push_token = $4, designation = $5, face_photo = $6,
        bank_account_holder = $7, bank_account_number = $8, bank_name = $9, bank_ifsc = $10, bank_upi = $11
    WHERE id = $1
  `, worker.ID, worker.Name, worker.Phone, worker.PushToken, worker.Designation, worker.FacePhoto,
		worker.Bank.AccountHolder, worker.Bank.AccountNumber, worker.Bank.BankName, worker.Bank.IFSC, worker.Bank.UPI)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

func (s *Store) CreateCompany(ctx context.Context, company Company) (Company, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO companies (name, address, logo_url, push_token)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, company.Name, company.Address, company.LogoURL, company.PushToken).Scan(&company.ID)
	return company, err
}

func (s *Store) GetCompany(ctx context.Context, companyID string) (Company, error) {
	var c Company
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, address, logo_url, push_token
    FROM companies
    WHERE id = $1
  `, companyID).Scan(&c.ID, &c.Name, &c.Address, &c.LogoURL, &c.PushToken)
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, ErrCompanyNotFound
	}
	return c, err
}

func (s *Store) GetEmployment(ctx context.Context, workerID, companyID string) (Employment, error) {
	var e Employment
	err := s.DB.QueryRow(ctx, `
    SELECT worker_id, company_id, status, start_date
    FROM employments
    WHERE worker_id = $1 AND company_id = $2 AND status = $3
  `, workerID, companyID, EmploymentActive).Scan(&e.WorkerID, &e.CompanyID, &e.Status, &e.StartDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employment{}, ErrMappingNotFound
	}
	return e, err
}

func (s *Store) ActiveEmployerFor(ctx context.Context, workerID string) (string, error) {
	var companyID string
	err := s.DB.QueryRow(ctx, `
    SELECT company_id
    FROM employments
    WHERE worker_id = $1 AND status = $2
    ORDER BY start_date DESC, created_at DESC
    LIMIT 1
  `, workerID, EmploymentActive).Scan(&companyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoActiveEmployer
	}
	return companyID, err
}

func (s *Store) ListActiveEmployees(ctx context.Context, companyID string) ([]Worker, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT w.id, w.name, w.phone, w.push_token, w.referrer_id, w.wallet_balance, w.designation, w.face_photo,
      w.bank_account_holder, w.bank_account_number, w.bank_name, w.bank_ifsc, w.bank_upi, w.created_at
    FROM employments e
    JOIN workers w ON w.id = e.worker_id
    WHERE e.company_id = $1 AND e.status = $2
    ORDER BY w.name, w.id
  `, companyID, EmploymentActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

const contractColumns = `
  id, company_id, worker_id, gross_salary, basic_salary, daily_wage, salary_type, allowances,
  start_date, status, superseded_at, created_at`

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	var allowances []byte
	if err := row.Scan(&c.ID, &c.CompanyID, &c.WorkerID, &c.GrossSalary, &c.BasicSalary, &c.DailyWage, &c.SalaryType, &allowances,
		&c.StartDate, &c.Status, &c.SupersededAt, &c.CreatedAt); err != nil {
		return Contract{}, err
	}
	if len(allowances) > 0 {
		if err := json.Unmarshal(allowances, &c.Allowances); err != nil {
			return Contract{}, err
		}
	}
	return c, nil
}

func (s *Store) CreateContract(ctx context.Context, contract Contract) (Contract, error) {
	allowances, err := json.Marshal(nonNilAllowances(contract.Allowances))
	if err != nil {
		return Contract{}, err
	}
	return scanContract(s.DB.QueryRow(ctx, `
    INSERT INTO compensation_contracts (company_id, worker_id, gross_salary, basic_salary, daily_wage, salary_type, allowances, start_date, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+contractColumns,
		contract.CompanyID, contract.WorkerID, contract.GrossSalary, contract.BasicSalary, contract.DailyWage, contract.SalaryType,
		string(allowances), contract.StartDate, ContractPending))
}

func (s *Store) GetContract(ctx context.Context, contractID string) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `SELECT `+contractColumns+` FROM compensation_contracts WHERE id = $1`, contractID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	return c, err
}

func (s *Store) GetAcceptedContract(ctx context.Context, workerID, companyID string) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `
    SELECT `+contractColumns+`
    FROM compensation_contracts
    WHERE worker_id = $1 AND company_id = $2 AND status = $3 AND superseded_at IS NULL
  `, workerID, companyID, ContractAccepted))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, ErrContractNotFound
	}
	return c, err
}

// AcceptContract supersedes the worker's current contract, accepts this one and
// activates the employment in one transaction.
func (s *Store) AcceptContract(ctx context.Context, contractID string, at time.Time) (Contract, error) {
	var accepted Contract
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		current, err := scanContract(tx.QueryRow(ctx, `
      SELECT `+contractColumns+` FROM compensation_contracts WHERE id = $1 FOR UPDATE
    `, contractID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrContractNotFound
		}
		if err != nil {
			return err
		}
		if current.Status != ContractPending {
			return ErrContractState
		}

		if _, err := tx.Exec(ctx, `
      UPDATE compensation_contracts
      SET superseded_at = $2
      WHERE worker_id = $1 AND status = $3 AND superseded_at IS NULL
    `, current.WorkerID, at, ContractAccepted); err != nil {
			return err
		}

		accepted, err = scanContract(tx.QueryRow(ctx, `
      UPDATE compensation_contracts
      SET status = $2
      WHERE id = $1
      RETURNING `+contractColumns, contractID, ContractAccepted))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
      UPDATE employments SET status = $3
      WHERE worker_id = $1 AND company_id <> $2 AND status = $4
    `, accepted.WorkerID, accepted.CompanyID, EmploymentEnded, EmploymentActive); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
      INSERT INTO employments (worker_id, company_id, status, start_date)
      VALUES ($1,$2,$3,$4)
      ON CONFLICT (worker_id, company_id) DO UPDATE SET status = EXCLUDED.status
    `, accepted.WorkerID, accepted.CompanyID, EmploymentActive, accepted.StartDate)
		return err
	})
	return accepted, err
}

func (s *Store) RejectContract(ctx context.Context, contractID string) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `
    UPDATE compensation_contracts
    SET status = $2
    WHERE id = $1 AND status = $3
    RETURNING `+contractColumns, contractID, ContractRejected, ContractPending))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, s.stateOrMissing(ctx, contractID)
	}
	return c, err
}

func (s *Store) RevokeContract(ctx context.Context, contractID string, at time.Time) (Contract, error) {
	c, err := scanContract(s.DB.QueryRow(ctx, `
    UPDATE compensation_contracts
    SET superseded_at = $2
    WHERE id = $1 AND status = $3 AND superseded_at IS NULL
    RETURNING `+contractColumns, contractID, at, ContractAccepted))
	if errors.Is(err, pgx.ErrNoRows) {
		return Contract{}, s.stateOrMissing(ctx, contractID)
	}
	return c, err
}

func (s *Store) stateOrMissing(ctx context.Context, contractID string) error {
	if _, err := s.GetContract(ctx, contractID); err != nil {
		return err
	}
	return ErrContractState
}

func nonNilAllowances(in []Allowance) []Allowance {
	if in == nil {
		return []Allowance{}
	}
	return in
}
