package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"payledger/internal/domain/period"
	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const runColumns = `id, employee_id, company_id, gross_salary, advance_payment, total_liabilities, unpaid_leave_deductions,
  final_deductions, balance, deduction_credit, incentives, mode_of_payment, total_amount, corrected_at, created_at`

func scanRun(row pgx.Row) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.EmployeeID, &r.CompanyID, &r.GrossSalary, &r.AdvancePayment, &r.Deductions.TotalLiabilities,
		&r.Deductions.UnpaidLeaveDeductions, &r.Deductions.Final, &r.Balance, &r.DeductionCredit, &r.Incentives,
		&r.ModeOfPayment, &r.TotalAmount, &r.CorrectedAt, &r.CreatedAt)
	return r, err
}

func (s *Store) InsertRunAndResetAdvances(ctx context.Context, run Run) (Run, error) {
	var created Run
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var err error
		created, err = scanRun(tx.QueryRow(ctx, `
      INSERT INTO payroll_runs (employee_id, company_id, gross_salary, advance_payment, total_liabilities, unpaid_leave_deductions,
        final_deductions, balance, deduction_credit, incentives, mode_of_payment, total_amount)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
      RETURNING `+runColumns,
			run.EmployeeID, run.CompanyID, run.GrossSalary, run.AdvancePayment, run.Deductions.TotalLiabilities,
			run.Deductions.UnpaidLeaveDeductions, run.Deductions.Final, run.Balance, run.DeductionCredit, run.Incentives,
			run.ModeOfPayment, run.TotalAmount))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
      UPDATE advance_accounts
      SET available_balance = ceiling, updated_at = now()
      WHERE worker_id = $1 AND company_id = $2
    `, run.EmployeeID, run.CompanyID)
		return err
	})
	return created, err
}

func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	r, err := scanRun(s.DB.QueryRow(ctx, `SELECT `+runColumns+` FROM payroll_runs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}

func (s *Store) ListRuns(ctx context.Context, workerID, companyID string, window period.Window) ([]Run, error) {
	from, to := window.Bounds()
	return s.list(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE employee_id = $1 AND company_id = $2
      AND ($3::timestamptz IS NULL OR created_at >= $3)
      AND ($4::timestamptz IS NULL OR created_at < $4)
    ORDER BY created_at, seq
  `, workerID, companyID, from, to)
}

func (s *Store) ListCompanyRuns(ctx context.Context, companyID string, window period.Window) ([]Run, error) {
	from, to := window.Bounds()
	return s.list(ctx, `
    SELECT `+runColumns+`
    FROM payroll_runs
    WHERE company_id = $1
      AND ($2::timestamptz IS NULL OR created_at >= $2)
      AND ($3::timestamptz IS NULL OR created_at < $3)
    ORDER BY created_at, seq
  `, companyID, from, to)
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]Run, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRun(ctx context.Context, run Run, correctedAt time.Time) (Run, error) {
	r, err := scanRun(s.DB.QueryRow(ctx, `
    UPDATE payroll_runs
    SET gross_salary = $2, advance_payment = $3, total_liabilities = $4, unpaid_leave_deductions = $5,
        final_deductions = $6, balance = $7, deduction_credit = $8, incentives = $9, mode_of_payment = $10,
        total_amount = $11, corrected_at = $12
    WHERE id = $1
    RETURNING `+runColumns,
		run.ID, run.GrossSalary, run.AdvancePayment, run.Deductions.TotalLiabilities, run.Deductions.UnpaidLeaveDeductions,
		run.Deductions.Final, run.Balance, run.DeductionCredit, run.Incentives, run.ModeOfPayment, run.TotalAmount, correctedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return r, err
}
