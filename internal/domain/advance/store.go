package advance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"payledger/internal/domain/period"
	"payledger/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const accountColumns = `id, worker_id, company_id, ceiling, available_balance, updated_at`

const requestColumns = `id, worker_id, company_id, account_id, amount, salary_ceiling, available_balance, status,
  is_admin_override, reason, decided_by, decided_at, created_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.WorkerID, &a.CompanyID, &a.Ceiling, &a.AvailableBalance, &a.UpdatedAt)
	return a, err
}

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.WorkerID, &r.CompanyID, &r.AccountID, &r.Amount, &r.SalaryCeiling, &r.AvailableBalance, &r.Status,
		&r.IsAdminOverride, &r.Reason, &r.DecidedBy, &r.DecidedAt, &r.CreatedAt)
	return r, err
}

func (s *Store) EnsureAccount(ctx context.Context, workerID, companyID string, ceiling decimal.Decimal) (Account, error) {
	if _, err := s.DB.Exec(ctx, `
    INSERT INTO advance_accounts (worker_id, company_id, ceiling, available_balance)
    VALUES ($1,$2,$3,$3)
    ON CONFLICT (worker_id, company_id) DO NOTHING
  `, workerID, companyID, ceiling); err != nil {
		return Account{}, err
	}
	return s.GetAccount(ctx, workerID, companyID)
}

func (s *Store) GetAccount(ctx context.Context, workerID, companyID string) (Account, error) {
	a, err := scanAccount(s.DB.QueryRow(ctx, `
    SELECT `+accountColumns+`
    FROM advance_accounts
    WHERE worker_id = $1 AND company_id = $2
  `, workerID, companyID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	}
	return a, err
}

func (s *Store) CreateRequest(ctx context.Context, req Request) (Request, error) {
	return scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO advance_requests (worker_id, company_id, account_id, amount, salary_ceiling, available_balance, status, is_admin_override, reason)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+requestColumns,
		req.WorkerID, req.CompanyID, req.AccountID, req.Amount, req.SalaryCeiling, req.AvailableBalance, StatusPending, req.IsAdminOverride, req.Reason))
}

func (s *Store) GetRequest(ctx context.Context, id string) (Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM advance_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) ListRequests(ctx context.Context, workerID, companyID string) ([]Request, error) {
	return s.list(ctx, `
    SELECT `+requestColumns+`
    FROM advance_requests
    WHERE worker_id = $1 AND company_id = $2
    ORDER BY created_at DESC, seq DESC
  `, workerID, companyID)
}

func (s *Store) ListApproved(ctx context.Context, workerID, companyID string, window period.Window) ([]Request, error) {
	from, to := window.Bounds()
	return s.list(ctx, `
    SELECT `+requestColumns+`
    FROM advance_requests
    WHERE worker_id = $1 AND company_id = $2 AND status = $3
      AND ($4::timestamptz IS NULL OR created_at >= $4)
      AND ($5::timestamptz IS NULL OR created_at < $5)
    ORDER BY created_at, seq
  `, workerID, companyID, StatusApproved, from, to)
}

func (s *Store) list(ctx context.Context, sql string, args ...any) ([]Request, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ApproveAtomic(ctx context.Context, id, decidedBy string, at time.Time) (Request, error) {
	var approved Request
	err := querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		var amount decimal.Decimal
		var accountID string
		err := tx.QueryRow(ctx, `
      UPDATE advance_requests
      SET status = $2, decided_by = $3, decided_at = $4
      WHERE id = $1 AND status = $5
      RETURNING amount, account_id
    `, id, StatusApproved, decidedBy, at, StatusPending).Scan(&amount, &accountID)
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := s.getRequestTx(ctx, tx, id); getErr != nil {
				return getErr
			}
			return ErrInvalidState
		}
		if err != nil {
			return err
		}

		balance, err := AtomicAdjustBalance(ctx, tx, accountID, amount.Neg(), decimal.Zero)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE advance_requests SET available_balance = $2 WHERE id = $1`, id, balance); err != nil {
			return err
		}
		approved, err = s.getRequestTx(ctx, tx, id)
		return err
	})
	return approved, err
}

// AtomicAdjustBalance adds delta to the account's available balance unless the
// result would fall below floor, in which case nothing changes and
// ErrInsufficientBalance is returned. The check and the write are one statement.
func AtomicAdjustBalance(ctx context.Context, q querier.Querier, accountID string, delta, floor decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.QueryRow(ctx, `
    UPDATE advance_accounts
    SET available_balance = available_balance + $2, updated_at = now()
    WHERE id = $1 AND available_balance + $2 >= $3
    RETURNING available_balance
  `, accountID, delta, floor).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM advance_accounts WHERE id = $1)`, accountID).Scan(&exists); err != nil {
			return decimal.Zero, err
		}
		if !exists {
			return decimal.Zero, ErrAccountNotFound
		}
		return decimal.Zero, ErrInsufficientBalance
	}
	return balance, err
}

func (s *Store) getRequestTx(ctx context.Context, q querier.Querier, id string) (Request, error) {
	r, err := scanRequest(q.QueryRow(ctx, `SELECT `+requestColumns+` FROM advance_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	return r, err
}

func (s *Store) RejectRequest(ctx context.Context, id, decidedBy string, at time.Time) (Request, error) {
	r, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE advance_requests
    SET status = $2, decided_by = $3, decided_at = $4
    WHERE id = $1 AND status = $5
    RETURNING `+requestColumns, id, StatusRejected, decidedBy, at, StatusPending))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := s.GetRequest(ctx, id); getErr != nil {
			return Request{}, getErr
		}
		return Request{}, ErrInvalidState
	}
	return r, err
}

// ArchiveRequest copies the request to the archive table and removes the live row.
func (s *Store) ArchiveRequest(ctx context.Context, id string) error {
	return querier.InTx(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      INSERT INTO advance_requests_archive (`+requestColumns+`)
      SELECT `+requestColumns+` FROM advance_requests WHERE id = $1
    `, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrRequestNotFound
		}
		_, err = tx.Exec(ctx, `DELETE FROM advance_requests WHERE id = $1`, id)
		return err
	})
}
